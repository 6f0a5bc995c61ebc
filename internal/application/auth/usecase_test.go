package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/erp-ledger/pkg/jwt"
)

const (
	companyA = "00000000-0000-0000-0000-00000000000a"
	companyB = "00000000-0000-0000-0000-00000000000b"
	secret   = "test-secret-key-for-unit-tests"
)

func setup(t *testing.T) *AuthUseCase {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: companyA, Name: "A", TaxID: "900-1", Status: entity.CompanyStatusActive, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: companyB, Name: "B", TaxID: "900-2", Status: entity.CompanyStatusSuspended, CreatedAt: now, UpdatedAt: now}))
	return NewAuthUseCase(store.Users(), store.Companies(), JWTConfig{Secret: secret, ExpMinutes: 5, Issuer: "test"})
}

func TestBootstrap_FirstUserIsAdminOnlyOnce(t *testing.T) {
	uc := setup(t)
	ctx := context.Background()

	u, err := uc.Bootstrap(ctx, dto.RegisterRequest{Email: "Owner@Example.com", Password: "supersecret", CompanyID: companyA, Role: "warehouse"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, u.Role)
	assert.Equal(t, "owner@example.com", u.Email)

	_, err = uc.Bootstrap(ctx, dto.RegisterRequest{Email: "otro@example.com", Password: "supersecret", CompanyID: companyA})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestBootstrap_CompanyChecks(t *testing.T) {
	uc := setup(t)
	ctx := context.Background()

	_, err := uc.Bootstrap(ctx, dto.RegisterRequest{Email: "x@example.com", Password: "supersecret", CompanyID: companyB})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = uc.Bootstrap(ctx, dto.RegisterRequest{Email: "x@example.com", Password: "supersecret", CompanyID: "00000000-0000-0000-0000-0000000000ff"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterUser_UsesCallerCompany(t *testing.T) {
	uc := setup(t)
	ctx := context.Background()

	u, err := uc.RegisterUser(ctx, companyA, dto.RegisterRequest{Email: "bodega@example.com", Password: "supersecret", CompanyID: companyB})
	require.NoError(t, err)
	assert.Equal(t, companyA, u.CompanyID)
	assert.Equal(t, entity.RoleWarehouse, u.Role)

	_, err = uc.RegisterUser(ctx, companyA, dto.RegisterRequest{Email: "BODEGA@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = uc.RegisterUser(ctx, companyA, dto.RegisterRequest{Email: "x@example.com", Password: "supersecret", Role: "root"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "role", ve.Field)
}

func TestLogin(t *testing.T) {
	uc := setup(t)
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, companyA, dto.RegisterRequest{Email: "conta@example.com", Password: "supersecret", Role: "accountant"})
	require.NoError(t, err)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "Conta@example.com", Password: "supersecret"})
	require.NoError(t, err)
	claims, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, companyA, claims.CompanyID)
	assert.Equal(t, "accountant", claims.Role)

	me, err := uc.Me(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "conta@example.com", me.Email)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "conta@example.com", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
