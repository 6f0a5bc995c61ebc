package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-key-for-unit-tests"
	testUser    = "00000000-0000-0000-0000-000000000001"
	testCompany = "00000000-0000-0000-0000-000000000002"
)

func TestGenerateAndParse(t *testing.T) {
	tok, err := Generate(testSecret, testUser, testCompany, "warehouse", "erp-ledger-test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testUser, claims.UserID)
	assert.Equal(t, testCompany, claims.CompanyID)
	assert.Equal(t, "warehouse", claims.Role)
	assert.Equal(t, "erp-ledger-test", claims.Issuer)
}

func TestParse_Expired(t *testing.T) {
	tok, err := Generate(testSecret, testUser, testCompany, "admin", "erp-ledger-test", -1)
	require.NoError(t, err)

	_, err = Parse(testSecret, tok)
	assert.Error(t, err)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := Generate(testSecret, testUser, testCompany, "admin", "erp-ledger-test", 60)
	require.NoError(t, err)

	_, err = Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err)
}

func TestParse_MissingCompany(t *testing.T) {
	tok, err := Generate(testSecret, testUser, "", "admin", "erp-ledger-test", 60)
	require.NoError(t, err)

	_, err = Parse(testSecret, tok)
	assert.Error(t, err)
}

func TestEmptySecret(t *testing.T) {
	_, err := Generate("", testUser, testCompany, "admin", "x", 60)
	assert.ErrorIs(t, err, ErrEmptySecret)
	_, err = Parse("", "a.b.c")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
