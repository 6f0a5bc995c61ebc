package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/application/rbac"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	apphttp "github.com/jhoicas/erp-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/erp-ledger/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "erp-ledger-test"
	testExpMin    = 60
)

// buildTestApp aplicación mínima con AuthMiddleware + RequireRole y un handler que responde 200.
func buildTestApp(allowedRoles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowedRoles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"ok": true, "role": apphttp.GetRole(c)})
		},
	)
	return app
}

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func doGet(t *testing.T, app *fiber.App, path, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRequireRole_RolPermitido(t *testing.T) {
	app := buildTestApp("admin", "warehouse")

	resp := doGet(t, app, "/protected", tokenForRole(t, "warehouse"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "warehouse", body["role"])
}

func TestRequireRole_RolDistinto_403(t *testing.T) {
	app := buildTestApp("admin")
	resp := doGet(t, app, "/protected", tokenForRole(t, "accountant"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

func TestRequireRole_TokenSinRol_401(t *testing.T) {
	app := buildTestApp("admin")
	resp := doGet(t, app, "/protected", tokenForRole(t, ""))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_ROLE")
}

func TestAuthMiddleware_TokenAusenteOInvalido(t *testing.T) {
	app := buildTestApp("admin")
	for name, header := range map[string]string{
		"sin header":   "",
		"sin bearer":   "Token abc",
		"malformado":   "Bearer token.invalido.aqui",
		"bearer vacío": "Bearer ",
		"otro secreto": "Bearer " + mustToken(t, "otro-secreto", "admin"),
	} {
		t.Run(name, func(t *testing.T) {
			resp := doGet(t, app, "/protected", header)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func mustToken(t *testing.T, secret, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(secret, testUserID, testCompanyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":    apphttp.GetUserID(c),
			"company_id": apphttp.GetCompanyID(c),
			"role":       apphttp.GetRole(c),
		})
	})

	resp := doGet(t, app, "/me", tokenForRole(t, "admin"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, "admin", body["role"])
}

func TestRequirePermission(t *testing.T) {
	app := fiber.New()
	app.Post("/payments",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequirePermission(rbac.DefaultPolicy(), rbac.PaymentWrite),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) },
	)
	for role, want := range map[string]int{
		"admin":       http.StatusCreated,
		"accountant":  http.StatusCreated,
		"warehouse":   http.StatusForbidden,
		"desconocido": http.StatusForbidden,
	} {
		t.Run(role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/payments", nil)
			req.Header.Set("Authorization", tokenForRole(t, role))
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, want, resp.StatusCode)
		})
	}
}

type stubCompanies struct {
	company *entity.Company
	err     error
}

func (s stubCompanies) GetByID(context.Context, string) (*entity.Company, error) {
	return s.company, s.err
}

func TestRequireActiveCompany(t *testing.T) {
	for name, tc := range map[string]struct {
		repo stubCompanies
		want int
	}{
		"activa":      {stubCompanies{company: &entity.Company{ID: testCompanyID, Status: entity.CompanyStatusActive}}, http.StatusOK},
		"suspendida":  {stubCompanies{company: &entity.Company{ID: testCompanyID, Status: entity.CompanyStatusSuspended}}, http.StatusForbidden},
		"inexistente": {stubCompanies{}, http.StatusForbidden},
		"error repo":  {stubCompanies{err: errors.New("conexión rechazada")}, http.StatusServiceUnavailable},
	} {
		t.Run(name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/x",
				apphttp.AuthMiddleware(testJWTSecret),
				apphttp.RequireActiveCompany(tc.repo),
				func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
			)
			resp := doGet(t, app, "/x", tokenForRole(t, "admin"))
			defer resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
