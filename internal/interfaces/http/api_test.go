package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jhoicas/erp-ledger/internal/application/rbac"
	"github.com/jhoicas/erp-ledger/internal/bootstrap"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/erp-ledger/internal/interfaces/http"
	"github.com/jhoicas/erp-ledger/pkg/config"
)

// newAPI arma la API completa sobre el almacenamiento en memoria.
func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		JWT:   config.JWTConfig{Secret: testJWTSecret, Expiration: testExpMin, Issuer: testIssuer},
		Audit: config.AuditConfig{CompressThreshold: 256},
	}
	storage := bootstrap.MemoryStorage(memory.NewStore())
	svc, err := bootstrap.NewServices(cfg, storage, bootstrap.Options{
		Renderer: pdf.NewStatementRenderer(language.Spanish),
	})
	require.NoError(t, err)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:      svc.Auth,
		CompanyUC:   svc.Companies,
		WarehouseUC: svc.Warehouses,
		ProductUC:   svc.Products,
		PartnerUC:   svc.Partners,
		Ledger:      svc.Ledger,
		Billing:     svc.Billing,
		Orders:      svc.Orders,
		Audit:       svc.Audit,
		Companies:   storage.Companies,
		Policy:      rbac.DefaultPolicy(),
		DB:          storage.DB,
		JWTSecret:   testJWTSecret,
	})
	return app
}

type client struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func (c client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	status, raw := c.raw(method, path, body)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	}
	return status, out
}

func (c client) list(path string) []map[string]any {
	c.t.Helper()
	status, raw := c.raw(http.MethodGet, path, nil)
	require.Equal(c.t, http.StatusOK, status, string(raw))
	var out []map[string]any
	require.NoError(c.t, json.Unmarshal(raw, &out))
	return out
}

func (c client) raw(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, raw
}

func (c client) as(token string) client { return client{t: c.t, app: c.app, token: token} }

func num(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "se esperaba decimal serializado como string: %v", v)
	return decimal.RequireFromString(s)
}

// tenant crea una empresa con su administrador y devuelve un cliente autenticado.
func tenant(t *testing.T, app *fiber.App, taxID, email string) (client, string) {
	t.Helper()
	anon := client{t: t, app: app}
	status, company := anon.do(http.MethodPost, "/api/companies", map[string]any{"name": "Empresa " + taxID, "tax_id": taxID})
	require.Equal(t, http.StatusCreated, status, company)
	companyID := company["id"].(string)

	status, user := anon.do(http.MethodPost, "/api/auth/register", map[string]any{
		"email": email, "password": "secreto123", "company_id": companyID,
	})
	require.Equal(t, http.StatusCreated, status, user)
	assert.Equal(t, "admin", user["role"])

	return anon.as(login(t, anon, email)), companyID
}

func login(t *testing.T, anon client, email string) string {
	t.Helper()
	status, out := anon.do(http.MethodPost, "/api/auth/login", map[string]any{"email": email, "password": "secreto123"})
	require.Equal(t, http.StatusOK, status, out)
	return out["token"].(string)
}

func create(t *testing.T, c client, path string, body any) string {
	t.Helper()
	status, out := c.do(http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, status, out)
	return out["id"].(string)
}

func TestAPI_Health(t *testing.T) {
	c := client{t: t, app: newAPI(t)}
	status, out := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", out["status"])
}

func TestAPI_BootstrapSoloUnaVez(t *testing.T) {
	app := newAPI(t)
	admin, companyID := tenant(t, app, "900-1", "admin@a.test")

	anon := client{t: t, app: app}
	status, out := anon.do(http.MethodPost, "/api/auth/register", map[string]any{
		"email": "intruso@a.test", "password": "secreto123", "company_id": companyID,
	})
	assert.Equal(t, http.StatusForbidden, status, out)

	// El admin registra usuarios en su propia empresa, ignorando company_id del cuerpo.
	status, out = admin.do(http.MethodPost, "/api/users", map[string]any{
		"email": "bodega@a.test", "password": "secreto123", "role": "warehouse",
		"company_id": "00000000-0000-0000-0000-00000000dead",
	})
	require.Equal(t, http.StatusCreated, status, out)
	assert.Equal(t, companyID, out["company_id"])
	assert.Equal(t, "warehouse", out["role"])

	status, out = admin.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin@a.test", out["email"])
}

func TestAPI_ValidacionYErrores(t *testing.T) {
	app := newAPI(t)
	admin, _ := tenant(t, app, "900-2", "admin@b.test")

	status, out := admin.do(http.MethodPost, "/api/stock-movements", map[string]any{
		"warehouse_id": "aaaaaaaa-0000-0000-0000-000000000001", "movement_type": "IN", "quantity": "1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", out["code"])
	assert.Equal(t, "product_id", out["field"])

	status, out = admin.do(http.MethodPost, "/api/orders", map[string]any{"currency": "USD", "items": []any{map[string]any{"quantity": "1"}}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, []any{"customer_id", "items[0].product_id"}, out["field"])

	status, raw := admin.raw(http.MethodPost, "/api/warehouses", nil)
	assert.Equal(t, http.StatusBadRequest, status, string(raw))

	status, out = admin.do(http.MethodGet, "/api/warehouses/no-es-uuid", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", out["code"])

	status, out = admin.do(http.MethodGet, "/api/stock?warehouse_id=xyz", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "warehouse_id", out["field"])

	status, _ = admin.do(http.MethodGet, "/api/stock?source=cache", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = client{t: t, app: app}.do(http.MethodGet, "/api/warehouses", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_KardexDeExistencias(t *testing.T) {
	app := newAPI(t)
	admin, _ := tenant(t, app, "900-3", "admin@c.test")

	wh1 := create(t, admin, "/api/warehouses", map[string]any{"name": "Principal"})
	wh2 := create(t, admin, "/api/warehouses", map[string]any{"name": "Sucursal"})
	prod := create(t, admin, "/api/products", map[string]any{"sku": "SKU-1", "name": "Tornillo", "price": "10", "tax_rate": "0"})

	status, out := admin.do(http.MethodPost, "/api/stock-movements", map[string]any{
		"warehouse_id": wh1, "product_id": prod, "movement_type": "IN", "quantity": "10", "unit_cost": "2.5",
	})
	require.Equal(t, http.StatusCreated, status, out)
	assert.Equal(t, "IN", out["movement_type"])

	status, out = admin.do(http.MethodPost, "/api/stock-movements", map[string]any{
		"warehouse_id": wh1, "product_id": prod, "movement_type": "OUT", "quantity": "15",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", out["code"])

	status, out = admin.do(http.MethodPost, "/api/stock-movements", map[string]any{
		"from_warehouse_id": wh1, "to_warehouse_id": wh2, "product_id": prod, "movement_type": "TRANSFER", "quantity": "4",
	})
	require.Equal(t, http.StatusCreated, status, out)
	movs := out["movements"].([]any)
	require.Len(t, movs, 2)
	assert.Equal(t, "OUT", movs[0].(map[string]any)["movement_type"])
	assert.Equal(t, "IN", movs[1].(map[string]any)["movement_type"])

	levels := admin.list("/api/stock?warehouse_id=" + wh1)
	require.Len(t, levels, 1)
	assert.True(t, num(t, levels[0]["available"]).Equal(decimal.NewFromInt(6)))

	fromLedger := admin.list("/api/stock?source=ledger&product_id=" + prod)
	assert.Len(t, fromLedger, 2)

	status, out = admin.do(http.MethodGet, "/api/stock-movements?product_id="+prod, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["items"], 3)

	status, out = admin.do(http.MethodPost, "/api/stock/recalculate", nil)
	require.Equal(t, http.StatusOK, status, out)
	assert.EqualValues(t, 2, out["recalculated_count"])

	assert.Empty(t, admin.list("/api/stock/drift"))

	// Sin worker configurado la reconstrucción asíncrona no está disponible.
	status, out = admin.do(http.MethodPost, "/api/stock/recalculate?async=true", nil)
	assert.Equal(t, http.StatusConflict, status, out)

	status, out = admin.do(http.MethodPut, "/api/warehouses/"+wh2, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, false, out["is_active"])
}

func TestAPI_AislamientoEntreEmpresas(t *testing.T) {
	app := newAPI(t)
	a, companyA := tenant(t, app, "900-4", "admin@d.test")
	b, _ := tenant(t, app, "900-5", "admin@e.test")

	wh := create(t, a, "/api/warehouses", map[string]any{"name": "Solo A"})
	prod := create(t, a, "/api/products", map[string]any{"sku": "A-1", "name": "Producto A", "price": "1", "tax_rate": "0"})

	status, _ := b.do(http.MethodGet, "/api/warehouses/"+wh, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = b.do(http.MethodGet, "/api/companies/"+companyA, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, out := b.do(http.MethodPost, "/api/stock-movements", map[string]any{
		"warehouse_id": wh, "product_id": prod, "movement_type": "IN", "quantity": "5",
	})
	assert.Equal(t, http.StatusNotFound, status, out)

	status, out = b.do(http.MethodGet, "/api/warehouses", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, out["items"])

	status, out = a.do(http.MethodGet, "/api/companies/"+companyA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, companyA, out["id"])
}

func TestAPI_PermisosPorRol(t *testing.T) {
	app := newAPI(t)
	admin, _ := tenant(t, app, "900-6", "admin@f.test")
	status, _ := admin.do(http.MethodPost, "/api/users", map[string]any{
		"email": "bodega@f.test", "password": "secreto123", "role": "warehouse",
	})
	require.Equal(t, http.StatusCreated, status)
	bodega := admin.as(login(t, client{t: t, app: app}, "bodega@f.test"))

	status, _ = bodega.do(http.MethodGet, "/api/stock", nil)
	assert.Equal(t, http.StatusOK, status)

	status, out := bodega.do(http.MethodPost, "/api/payments", map[string]any{"amount": "1", "currency": "USD", "payment_method": "CASH"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", out["code"])

	status, _ = bodega.do(http.MethodPost, "/api/stock/recalculate", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = bodega.do(http.MethodGet, "/api/audit-logs", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_CicloVentaFacturaPago(t *testing.T) {
	app := newAPI(t)
	admin, _ := tenant(t, app, "900-7", "admin@g.test")

	wh := create(t, admin, "/api/warehouses", map[string]any{"name": "Principal"})
	prod := create(t, admin, "/api/products", map[string]any{"sku": "V-1", "name": "Silla", "price": "100", "tax_rate": "19"})
	customer := create(t, admin, "/api/customers", map[string]any{"name": "Cliente Uno"})

	status, out := admin.do(http.MethodPost, "/api/stock-movements", map[string]any{
		"warehouse_id": wh, "product_id": prod, "movement_type": "IN", "quantity": "5",
	})
	require.Equal(t, http.StatusCreated, status, out)

	status, order := admin.do(http.MethodPost, "/api/orders", map[string]any{
		"customer_id": customer, "currency": "USD", "status": "CONFIRMED",
		"items": []any{map[string]any{"product_id": prod, "quantity": "2"}},
	})
	require.Equal(t, http.StatusCreated, status, order)
	orderID := order["id"].(string)
	assert.True(t, num(t, order["total_amount"]).Equal(decimal.RequireFromString("238")))

	status, out = admin.do(http.MethodPost, "/api/orders/"+orderID+"/reserve", map[string]any{"warehouse_id": wh})
	require.Equal(t, http.StatusOK, status, out)
	levels := admin.list("/api/stock?product_id=" + prod)
	require.Len(t, levels, 1)
	assert.True(t, num(t, levels[0]["reserved"]).Equal(decimal.NewFromInt(2)))

	status, out = admin.do(http.MethodPost, "/api/orders/"+orderID+"/fulfill", map[string]any{"warehouse_id": wh})
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "COMPLETED", out["order"].(map[string]any)["status"])
	levels = admin.list("/api/stock?product_id=" + prod)
	assert.True(t, num(t, levels[0]["quantity"]).Equal(decimal.NewFromInt(3)))
	assert.True(t, num(t, levels[0]["reserved"]).IsZero())

	status, inv := admin.do(http.MethodPost, "/api/invoices", map[string]any{"order_id": orderID})
	require.Equal(t, http.StatusCreated, status, inv)
	invoiceID := inv["id"].(string)
	assert.True(t, num(t, inv["total_amount"]).Equal(decimal.RequireFromString("238")))
	assert.Equal(t, "ISSUED", inv["status"])

	status, out = admin.do(http.MethodPost, "/api/invoices", map[string]any{"order_id": orderID})
	assert.Equal(t, http.StatusConflict, status, out)

	status, out = admin.do(http.MethodPost, "/api/payments", map[string]any{
		"invoice_id": invoiceID, "amount": "100", "currency": "USD", "payment_method": "CASH",
	})
	require.Equal(t, http.StatusCreated, status, out)

	status, bal := admin.do(http.MethodGet, "/api/invoices/"+invoiceID+"/balance", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, num(t, bal["outstanding"]).Equal(decimal.RequireFromString("138")))

	status, out = admin.do(http.MethodPatch, "/api/invoices/"+invoiceID+"/status", map[string]any{"status": "PAID"})
	assert.Equal(t, http.StatusBadRequest, status, out)
	assert.Equal(t, "status", out["field"])

	status, out = admin.do(http.MethodPost, "/api/payments", map[string]any{
		"invoice_id": invoiceID, "amount": "150", "currency": "USD", "payment_method": "CARD",
	})
	require.Equal(t, http.StatusCreated, status, out)

	status, inv = admin.do(http.MethodGet, "/api/invoices/"+invoiceID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PAID", inv["status"])
	assert.True(t, num(t, inv["outstanding_amount"]).IsZero())
	assert.True(t, num(t, inv["overpaid_amount"]).Equal(decimal.NewFromInt(12)))
	assert.Len(t, inv["payments"], 2)

	status, out = admin.do(http.MethodGet, "/api/payments?invoice_id="+invoiceID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["items"], 2)

	status, raw := admin.raw(http.MethodGet, "/api/invoices/"+invoiceID+"/pdf", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	status, out = admin.do(http.MethodGet, "/api/audit-logs?entity_type=invoice&entity_id="+invoiceID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, out["items"])
}
