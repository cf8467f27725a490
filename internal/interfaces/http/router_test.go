package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalytics "github.com/jhoicas/inventorypro-ledger/internal/application/analytics"
	"github.com/jhoicas/inventorypro-ledger/internal/application/auth"
	"github.com/jhoicas/inventorypro-ledger/internal/application/billing"
	"github.com/jhoicas/inventorypro-ledger/internal/application/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/application/usecase"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/seed"
	apphttp "github.com/jhoicas/inventorypro-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventorypro-ledger/pkg/jwt"
)

// ── Servidor completo sobre el almacén en memoria ─────────────────────────────

const seedPassword = "demo123"

// Usuarios semilla: 1 super-admin, 2 branch-manager north, 4 sales-rep main.
const (
	adminID   = "1"
	managerID = "2"
	repID     = "4"
)

func newServer(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()

	store := memory.NewStore(2 * time.Second)
	batchRepo := memory.NewBatchRepository(store)
	productRepo := memory.NewProductRepository(store)
	branchRepo := memory.NewBranchRepository(store)
	userRepo := memory.NewUserRepository(store)
	invoiceRepo := memory.NewInvoiceRepository(store)
	require.NoError(t, seed.Demo(ctx, seed.Repos{
		Branches: branchRepo, Products: productRepo, Batches: batchRepo, Users: userRepo,
	}, seedPassword, log))

	txRunner := memory.NewTxRunner(store)
	ledger := inventory.NewLedger(txRunner, batchRepo, productRepo, branchRepo, log)

	app := apphttp.NewApp("inventorypro-test", log)
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(userRepo, auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
		}, log),
		BranchUC:  usecase.NewBranchUseCase(branchRepo, log),
		ProductUC: usecase.NewProductUseCase(txRunner, ledger, productRepo, branchRepo, log),
		UserUC:    usecase.NewUserUseCase(userRepo),
		Ledger:    ledger,
		Transfers: inventory.NewTransferProcessor(txRunner, ledger, batchRepo, productRepo, branchRepo, time.Minute, log),
		CreateSale: billing.NewCreateSaleUseCase(
			txRunner, ledger, batchRepo, productRepo, branchRepo, billing.NewNumberGenerator(""), log,
		),
		Invoices:    billing.NewInvoiceQueryUseCase(invoiceRepo),
		InvoicePDF:  billing.NewPDFUseCase(invoiceRepo, branchRepo, pdf.NewMarotoPDFGenerator("NGN ")),
		DashboardUC: appanalytics.NewDashboardUseCase(branchRepo, batchRepo),
		BatchProfit: appanalytics.NewBatchProfitUseCase(batchRepo, productRepo, invoiceRepo),
		JWTSecret:   testJWTSecret,
	})
	return app
}

// bearer token para un usuario semilla.
func bearer(t *testing.T, userID, branchID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, branchID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func adminToken(t *testing.T) string   { return bearer(t, adminID, "", "super-admin") }
func managerToken(t *testing.T) string { return bearer(t, managerID, "north", "branch-manager") }
func repToken(t *testing.T) string     { return bearer(t, repID, "main", "sales-rep") }

// call ejecuta la petición y devuelve el estado y el cuerpo crudo.
func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func object(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m), string(raw))
	return m
}

func array(t *testing.T, raw []byte) []any {
	t.Helper()
	var a []any
	require.NoError(t, json.Unmarshal(raw, &a), string(raw))
	return a
}

func sale(branchID string, qty int64) map[string]any {
	return map[string]any{
		"branch_id":     branchID,
		"customer_name": "Ngozi Eze",
		"items": []map[string]any{
			{"product_id": "PROD-001", "batch_id": "BTH-2024-001", "quantity": qty, "unit_price": 455000},
		},
	}
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func TestLogin_DevuelveTokenYSesion(t *testing.T) {
	app := newServer(t)

	status, raw := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "KEMI@inventorypro.ng", "password": seedPassword,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	body := object(t, raw)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	session := body["session"].(map[string]any)
	assert.Equal(t, "sales", session["default_view"])
	caps := session["capabilities"].(map[string]any)
	assert.Equal(t, true, caps["manageSales"])
	assert.Equal(t, false, caps["transferStock"])

	status, raw = call(t, app, http.MethodGet, "/api/auth/session", "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	user := object(t, raw)["user"].(map[string]any)
	assert.Equal(t, repID, user["id"])
	assert.Equal(t, "main", user["branch_id"])
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	app := newServer(t)

	status, _ := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "kemi@inventorypro.ng", "password": "otra",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nadie@inventorypro.ng", "password": seedPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogin_EmailMalFormado(t *testing.T) {
	app := newServer(t)

	status, raw := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "kemi"})
	require.Equal(t, http.StatusBadRequest, status)
	body := object(t, raw)
	assert.Equal(t, "VALIDATION", body["code"])
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

// ── Ventas ────────────────────────────────────────────────────────────────────

func TestSales_CreaFacturaYRechazaStockInsuficiente(t *testing.T) {
	app := newServer(t)
	tok := repToken(t)

	status, raw := call(t, app, http.MethodPost, "/api/sales", tok, sale("", 2))
	require.Equal(t, http.StatusCreated, status, string(raw))
	inv := object(t, raw)
	assert.Equal(t, "main", inv["branch_id"])
	assert.Equal(t, "Kemi Adeyemi", inv["sales_rep"])
	assert.Equal(t, "910000", inv["total"])

	status, raw = call(t, app, http.MethodPost, "/api/sales", tok, sale("main", 50))
	require.Equal(t, http.StatusConflict, status)
	body := object(t, raw)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Contains(t, body["message"], "Disponible: 43")

	status, raw = call(t, app, http.MethodGet, "/api/batches/BTH-2024-001", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 43, object(t, raw)["quantity"])
}

func TestSales_Validate(t *testing.T) {
	app := newServer(t)
	tok := repToken(t)

	status, _ := call(t, app, http.MethodPost, "/api/sales/validate", tok, sale("main", 5))
	assert.Equal(t, http.StatusOK, status)

	bad := sale("main", 5)
	bad["customer_name"] = ""
	status, raw := call(t, app, http.MethodPost, "/api/sales/validate", tok, bad)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, object(t, raw)["fields"], "customer_name")
}

func TestSales_SucursalAjenaProhibida(t *testing.T) {
	app := newServer(t)

	status, _ := call(t, app, http.MethodPost, "/api/sales", repToken(t), sale("north", 1))
	assert.Equal(t, http.StatusForbidden, status)

	// el gerente no tiene manageSales
	status, _ = call(t, app, http.MethodPost, "/api/sales", managerToken(t), sale("north", 1))
	assert.Equal(t, http.StatusForbidden, status)
}

func TestInvoices_ListadoYPDF(t *testing.T) {
	app := newServer(t)
	tok := repToken(t)

	status, raw := call(t, app, http.MethodPost, "/api/sales", tok, sale("main", 1))
	require.Equal(t, http.StatusCreated, status, string(raw))
	id := object(t, raw)["id"].(string)

	status, raw = call(t, app, http.MethodGet, "/api/invoices?search=ngozi", tok, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	list := object(t, raw)
	assert.EqualValues(t, 1, list["invoice_count"])

	status, _ = call(t, app, http.MethodGet, "/api/invoices?branch_id=north", tok, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/api/invoices?from=2024-13-01", tok, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/"+id+"/pdf", nil)
	req.Header.Set("Authorization", tok)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "factura_INV-")
	doc, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))

	status, _ = call(t, app, http.MethodGet, "/api/invoices/"+id+"/pdf", managerToken(t), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/api/invoices/no-existe", adminToken(t), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// ── Traslados ─────────────────────────────────────────────────────────────────

func TestTransfers_PrepararYConfirmar(t *testing.T) {
	app := newServer(t)
	tok := adminToken(t)
	req := map[string]any{
		"source_branch_id": "main", "destination_branch_id": "north",
		"product_id": "PROD-001", "batch_id": "BTH-2024-001", "quantity": 5,
	}

	status, raw := call(t, app, http.MethodPost, "/api/transfers/prepare", tok, req)
	require.Equal(t, http.StatusCreated, status, string(raw))
	draft := object(t, raw)
	assert.Equal(t, "awaiting_confirmation", draft["state"])
	id := draft["id"].(string)

	// preparar no toca el libro
	_, raw = call(t, app, http.MethodGet, "/api/batches/BTH-2024-001", tok, nil)
	assert.EqualValues(t, 45, object(t, raw)["quantity"])

	status, raw = call(t, app, http.MethodPost, "/api/transfers/"+id+"/confirm", tok, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	done := object(t, raw)
	assert.Equal(t, "committed", done["state"])
	result := done["result"].(map[string]any)
	assert.EqualValues(t, 40, result["source_quantity"])
	assert.EqualValues(t, 5, result["destination_quantity"])
	assert.Equal(t, false, result["merged"])

	status, raw = call(t, app, http.MethodGet, "/api/batches/"+result["destination_batch_id"].(string), tok, nil)
	require.Equal(t, http.StatusOK, status)
	dest := object(t, raw)
	assert.Equal(t, "north", dest["branch_id"])
	assert.Equal(t, "BTH-2024-001", dest["lot_code"])

	// un segundo confirm devuelve el mismo resultado
	status, raw = call(t, app, http.MethodPost, "/api/transfers/"+id+"/confirm", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, result, object(t, raw)["result"])
}

func TestTransfers_ValidacionYCancelacion(t *testing.T) {
	app := newServer(t)
	tok := adminToken(t)

	status, raw := call(t, app, http.MethodPost, "/api/transfers/validate", tok, map[string]any{})
	require.Equal(t, http.StatusBadRequest, status)
	fields := object(t, raw)["fields"].(map[string]any)
	for _, f := range []string{"source_branch_id", "destination_branch_id", "product_id", "batch_id", "quantity"} {
		assert.Contains(t, fields, f)
	}

	status, raw = call(t, app, http.MethodPost, "/api/transfers/validate", tok, map[string]any{
		"source_branch_id": "main", "destination_branch_id": "north",
		"product_id": "PROD-001", "batch_id": "BTH-2024-001", "quantity": 46,
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", object(t, raw)["code"])

	ok := map[string]any{
		"source_branch_id": "south", "destination_branch_id": "west",
		"product_id": "PROD-008", "batch_id": "BTH-2024-011", "quantity": 1,
	}
	status, raw = call(t, app, http.MethodPost, "/api/transfers/validate", tok, ok)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "validated", object(t, raw)["state"])

	status, raw = call(t, app, http.MethodPost, "/api/transfers/prepare", tok, ok)
	require.Equal(t, http.StatusCreated, status)
	id := object(t, raw)["id"].(string)

	status, _ = call(t, app, http.MethodDelete, "/api/transfers/"+id, tok, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, app, http.MethodGet, "/api/transfers/"+id, tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTransfers_SoloConCapacidad(t *testing.T) {
	app := newServer(t)
	for _, tok := range []string{repToken(t), managerToken(t)} {
		status, _ := call(t, app, http.MethodPost, "/api/transfers", tok, map[string]any{})
		assert.Equal(t, http.StatusForbidden, status)
	}
}

// ── Lotes ─────────────────────────────────────────────────────────────────────

func TestBatches_AlcancePorSucursal(t *testing.T) {
	app := newServer(t)
	tok := managerToken(t)

	status, _ := call(t, app, http.MethodGet, "/api/batches?branch_id=main", tok, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw := call(t, app, http.MethodGet, "/api/batches", tok, nil)
	require.Equal(t, http.StatusOK, status)
	list := array(t, raw)
	require.Len(t, list, 3)
	for _, b := range list {
		assert.Equal(t, "north", b.(map[string]any)["branch_id"])
	}

	status, _ = call(t, app, http.MethodGet, "/api/batches/BTH-2024-001", tok, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = call(t, app, http.MethodGet, "/api/products/PROD-001/batches", repToken(t), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, array(t, raw), 1)
}

func TestAdjustBatch(t *testing.T) {
	app := newServer(t)
	tok := managerToken(t)

	stale := int64(99)
	status, raw := call(t, app, http.MethodPost, "/api/batches/BTH-2024-006/adjust", tok, map[string]any{
		"delta": -1, "expected_version": stale,
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", object(t, raw)["code"])

	status, raw = call(t, app, http.MethodPost, "/api/batches/BTH-2024-006/adjust", tok, map[string]any{"delta": -1})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.EqualValues(t, 21, object(t, raw)["quantity"])

	status, raw = call(t, app, http.MethodPost, "/api/batches/BTH-2024-006/adjust", tok, map[string]any{"delta": -100})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", object(t, raw)["code"])

	status, _ = call(t, app, http.MethodPost, "/api/batches/BTH-2024-001/adjust", tok, map[string]any{"delta": 1})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodPost, "/api/batches/BTH-2024-006/adjust", repToken(t), map[string]any{"delta": 1})
	assert.Equal(t, http.StatusForbidden, status)
}

// ── Sucursales y productos ────────────────────────────────────────────────────

func TestBranches_CrearYListar(t *testing.T) {
	app := newServer(t)
	tok := adminToken(t)

	status, raw := call(t, app, http.MethodPost, "/api/branches", tok, map[string]any{"name": "East Branch", "email": "no-es-email"})
	require.Equal(t, http.StatusBadRequest, status)
	fields := object(t, raw)["fields"].(map[string]any)
	assert.Equal(t, "formato de email inválido", fields["email"])
	assert.Contains(t, fields, "code")
	assert.Contains(t, fields, "established_date")

	status, raw = call(t, app, http.MethodPost, "/api/branches", tok, map[string]any{
		"name": "East Branch", "code": "br-005", "location": "Enugu", "address": "12 Ogui Road",
		"manager": "Ifeoma Nwosu", "phone": "+234 802", "email": "east@inventorypro.ng",
		"established_date": "2024-06-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	assert.Equal(t, "pending", object(t, raw)["status"])

	status, raw = call(t, app, http.MethodGet, "/api/branches", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, array(t, raw), 5)

	status, raw = call(t, app, http.MethodGet, "/api/branches", managerToken(t), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, array(t, raw), 1)

	status, _ = call(t, app, http.MethodPost, "/api/branches", managerToken(t), map[string]any{})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/api/branches/south", managerToken(t), nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestProducts_CrearEnSucursalPropia(t *testing.T) {
	app := newServer(t)
	tok := managerToken(t)

	status, raw := call(t, app, http.MethodPost, "/api/products", tok, map[string]any{
		"name": "Tecno Camon 30", "sku": "TC30-256-GRY", "category": "Electronics", "supplier": "Tecno",
		"quantity": 10, "cost_price": "150000", "selling_price": "185000",
		"purchase_date": "2024-07-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	batch := object(t, raw)["batch"].(map[string]any)
	assert.Equal(t, "north", batch["branch_id"])
	assert.EqualValues(t, 10, batch["quantity"])

	status, raw = call(t, app, http.MethodGet, "/api/branches/north/products", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, array(t, raw), 4)

	status, _ = call(t, app, http.MethodPost, "/api/products", tok, map[string]any{
		"name": "X", "sku": "X-1", "category": "Electronics", "supplier": "X", "branch_id": "main",
		"quantity": 1, "cost_price": "1", "purchase_date": "2024-07-01T00:00:00Z",
	})
	assert.Equal(t, http.StatusForbidden, status)
}

// ── Dashboard, reportes y usuarios ────────────────────────────────────────────

func TestDashboard_AcotadoALaSucursal(t *testing.T) {
	app := newServer(t)

	status, raw := call(t, app, http.MethodGet, "/api/dashboard/summary", managerToken(t), nil)
	require.Equal(t, http.StatusOK, status)
	body := object(t, raw)
	assert.Len(t, body["branches"], 1)
	assert.Equal(t, "10332000", body["total_value"])

	status, raw = call(t, app, http.MethodGet, "/api/dashboard/summary", adminToken(t), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, object(t, raw)["branches"], 4)
}

func TestReports_BatchProfitPorRol(t *testing.T) {
	app := newServer(t)

	status, raw := call(t, app, http.MethodGet, "/api/reports/batch-profit", managerToken(t), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, object(t, raw)["rows"], 3)

	status, _ = call(t, app, http.MethodGet, "/api/reports/batch-profit", repToken(t), nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUsers_SoloAdministracion(t *testing.T) {
	app := newServer(t)

	status, raw := call(t, app, http.MethodGet, "/api/users", adminToken(t), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, array(t, raw), 5)

	status, _ = call(t, app, http.MethodGet, "/api/users", managerToken(t), nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestHealth(t *testing.T) {
	app := newServer(t)
	status, raw := call(t, app, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", object(t, raw)["status"])
}
