package billing_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventorypro-ledger/internal/application/billing"
	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/application/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/seed"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

type fixture struct {
	ledger   *inventory.Ledger
	sales    *billing.CreateSaleUseCase
	queries  *billing.InvoiceQueryUseCase
	invoices *memory.InvoiceRepo
	branches *memory.BranchRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(5 * time.Second)
	batches := memory.NewBatchRepository(store)
	products := memory.NewProductRepository(store)
	branches := memory.NewBranchRepository(store)
	invoices := memory.NewInvoiceRepository(store)
	require.NoError(t, seed.Demo(ctx, seed.Repos{
		Branches: branches, Products: products, Batches: batches, Users: memory.NewUserRepository(store),
	}, "secret", zerolog.Nop()))

	txRunner := memory.NewTxRunner(store)
	ledger := inventory.NewLedger(txRunner, batches, products, branches, zerolog.Nop())
	return &fixture{
		ledger:   ledger,
		sales:    billing.NewCreateSaleUseCase(txRunner, ledger, batches, products, branches, billing.NewNumberGenerator(""), zerolog.Nop()),
		queries:  billing.NewInvoiceQueryUseCase(invoices),
		invoices: invoices,
		branches: branches,
	}
}

func item(productID, batchID string, qty, price int64) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: productID, BatchID: batchID, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
}

func sale(customer string, items ...dto.SaleItemRequest) dto.CreateSaleRequest {
	return dto.CreateSaleRequest{BranchID: "main", CustomerName: customer, SalesRep: "Kemi Adeyemi", Items: items}
}

func (f *fixture) quantity(t *testing.T, id string) int64 {
	t.Helper()
	b, err := f.ledger.FindBatch(context.Background(), id)
	require.NoError(t, err)
	return b.Quantity
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateSale_DescuentaLoteYFactura(t *testing.T) {
	f := newFixture(t)

	inv, err := f.sales.CreateSale(context.Background(), sale("Ngozi Eze", item("PROD-001", "BTH-2024-001", 2, 455000)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(inv.Number, "INV-"))
	require.Len(t, inv.Items, 1)
	assert.True(t, decimal.NewFromInt(910000).Equal(inv.Total))
	assert.True(t, decimal.NewFromInt(910000).Equal(inv.Items[0].Total))
	assert.Equal(t, "iPhone 15 Pro", inv.Items[0].ProductName)
	assert.Equal(t, "IP15P-256-BLU", inv.Items[0].SKU)
	assert.Equal(t, int64(43), f.quantity(t, "BTH-2024-001"))
}

func TestCreateSale_StockInsuficiente(t *testing.T) {
	f := newFixture(t)

	_, err := f.sales.CreateSale(context.Background(), sale("Ngozi Eze", item("PROD-001", "BTH-2024-001", 50, 455000)))
	require.Error(t, err)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "BTH-2024-001", ise.BatchID)
	assert.Equal(t, int64(45), ise.Available)
	assert.Contains(t, err.Error(), "Disponible: 45")

	assert.Equal(t, int64(45), f.quantity(t, "BTH-2024-001"))
	last, err := f.invoices.LastNumber(context.Background())
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestCreateSale_EsAtomica(t *testing.T) {
	f := newFixture(t)

	_, err := f.sales.CreateSale(context.Background(), sale("Ngozi Eze",
		item("PROD-002", "BTH-2024-002", 2, 372500),
		item("PROD-004", "BTH-2024-003", 1, 538500),
		item("PROD-001", "BTH-2024-001", 46, 455000),
	))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(28), f.quantity(t, "BTH-2024-002"))
	assert.Equal(t, int64(12), f.quantity(t, "BTH-2024-003"))
	assert.Equal(t, int64(45), f.quantity(t, "BTH-2024-001"))
}

func TestCreateSale_Totales(t *testing.T) {
	f := newFixture(t)
	in := sale("Ngozi Eze",
		item("PROD-001", "BTH-2024-001", 2, 455000),
		item("PROD-006", "BTH-2024-005", 3, 125000),
	)
	in.Discount = decimal.NewFromInt(10000)
	in.Tax = decimal.NewFromInt(5000)

	inv, err := f.sales.CreateSale(context.Background(), in)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, l := range inv.Items {
		assert.True(t, l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)).Equal(l.Total))
		sum = sum.Add(l.Total)
	}
	assert.True(t, sum.Equal(inv.Subtotal))
	assert.True(t, decimal.NewFromInt(1285000).Equal(inv.Subtotal), inv.Subtotal.String())
	assert.True(t, decimal.NewFromInt(1280000).Equal(inv.Total), inv.Total.String())
}

func TestValidateSale_PrimerError(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		in    dto.CreateSaleRequest
		field string
		is    error
	}{
		{"cliente vacío", sale("   ", item("PROD-001", "BTH-2024-001", 1, 1)), "customer_name", domain.ErrInvalidInput},
		{"sin líneas", sale("Ngozi"), "items", domain.ErrInvalidInput},
		{"sin producto", sale("Ngozi", item("", "", 0, 0)), "items[0].product_id", domain.ErrInvalidInput},
		{"sin lote", sale("Ngozi", item("PROD-001", "", 0, 0)), "items[0].batch_id", domain.ErrInvalidInput},
		{"cantidad cero", sale("Ngozi", item("PROD-001", "BTH-2024-001", 0, 0)), "items[0].quantity", domain.ErrInvalidInput},
		{"precio cero", sale("Ngozi", item("PROD-001", "BTH-2024-001", 1, 0)), "items[0].unit_price", domain.ErrInvalidInput},
		{"precio con tres decimales", sale("Ngozi", dto.SaleItemRequest{ProductID: "PROD-001", BatchID: "BTH-2024-001", Quantity: 3, UnitPrice: decimal.RequireFromString("0.333")}), "items[0].unit_price", domain.ErrInvalidInput},
		{"segunda línea inválida", sale("Ngozi", item("PROD-001", "BTH-2024-001", 1, 1), item("PROD-001", "BTH-2024-001", -1, 1)), "items[1].quantity", domain.ErrInvalidInput},
		{"lote de otra sucursal", sale("Ngozi", item("PROD-001", "BTH-2024-006", 1, 1)), "items[0].batch_id", domain.ErrInvalidInput},
		{"lote de otro producto", sale("Ngozi", item("PROD-002", "BTH-2024-001", 1, 1)), "items[0].batch_id", domain.ErrInvalidInput},
		{"lote desconocido", sale("Ngozi", item("PROD-001", "BTH-0000-000", 1, 1)), "", domain.ErrNotFound},
		{"producto desconocido", sale("Ngozi", item("PROD-999", "BTH-2024-001", 1, 1)), "", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.sales.ValidateSale(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.is)
			if tt.field != "" {
				var ve *domain.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, tt.field, ve.Field)
			}
			// Sin efectos: la misma entrada da el mismo error.
			again := f.sales.ValidateSale(context.Background(), tt.in)
			assert.Equal(t, err.Error(), again.Error())
		})
	}
}

func TestValidateSale_CantidadAcumuladaPorLote(t *testing.T) {
	f := newFixture(t)
	err := f.sales.ValidateSale(context.Background(), sale("Ngozi",
		item("PROD-001", "BTH-2024-001", 30, 455000),
		item("PROD-001", "BTH-2024-001", 20, 455000),
	))
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, int64(15), ise.Available)
	assert.Equal(t, int64(20), ise.Requested)
}

func TestValidateSale_DescuentoNegativo(t *testing.T) {
	f := newFixture(t)
	in := sale("Ngozi", item("PROD-001", "BTH-2024-001", 1, 455000))
	in.Discount = decimal.NewFromInt(-1)
	err := f.sales.ValidateSale(context.Background(), in)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "discount", ve.Field)
}

func TestValidateSale_ImporteConDosDecimales(t *testing.T) {
	f := newFixture(t)
	in := sale("Ngozi", dto.SaleItemRequest{ProductID: "PROD-001", BatchID: "BTH-2024-001", Quantity: 3, UnitPrice: decimal.RequireFromString("0.50")})
	require.NoError(t, f.sales.ValidateSale(context.Background(), in))

	in.Tax = decimal.RequireFromString("0.125")
	err := f.sales.ValidateSale(context.Background(), in)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "tax", ve.Field)
}

func TestCreateSale_ConcurrentesNoVendenDeMas(t *testing.T) {
	f := newFixture(t)
	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sales.CreateSale(context.Background(), sale("Ngozi", item("PROD-001", "BTH-2024-001", 5, 455000)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			fail++
		}()
	}
	wg.Wait()

	assert.Equal(t, 9, ok)
	assert.Equal(t, 1, fail)
	assert.Equal(t, int64(0), f.quantity(t, "BTH-2024-001"))
}

func TestCreateSale_NumerosCrecientes(t *testing.T) {
	f := newFixture(t)
	var prev int64
	for i := 0; i < 5; i++ {
		inv, err := f.sales.CreateSale(context.Background(), sale("Ngozi", item("PROD-006", "BTH-2024-005", 1, 125000)))
		require.NoError(t, err)
		n, err := decimal.NewFromString(strings.TrimPrefix(inv.Number, "INV-"))
		require.NoError(t, err)
		assert.Greater(t, n.IntPart(), prev)
		prev = n.IntPart()
	}
}

func TestInvoiceQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, c := range []string{"Ngozi Eze", "Tunde Bakare", "ngozi okafor"} {
		_, err := f.sales.CreateSale(ctx, sale(c, item("PROD-006", "BTH-2024-005", 1, 125000), item("PROD-001", "BTH-2024-001", 1, 455000)))
		require.NoError(t, err)
	}
	north := dto.CreateSaleRequest{BranchID: "north", CustomerName: "Aisha", Items: []dto.SaleItemRequest{item("PROD-003", "BTH-2024-007", 2, 58000)}}
	created, err := f.sales.CreateSale(ctx, north)
	require.NoError(t, err)

	got, err := f.queries.GetInvoice(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Number, got.Number)
	_, err = f.queries.GetInvoice(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.queries.ListInvoices(ctx, dto.InvoiceListRequest{BranchID: "main"})
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	assert.Equal(t, "ngozi okafor", list.Items[0].CustomerName)
	assert.Equal(t, dto.DefaultPageSize, list.Page.PageSize)
	assert.True(t, decimal.NewFromInt(3*580000).Equal(list.TotalSales))
	assert.Equal(t, "2.0", list.AvgItemsPerInvoice.StringFixed(1))

	search, err := f.queries.ListInvoices(ctx, dto.InvoiceListRequest{Search: "NGOZI"})
	require.NoError(t, err)
	assert.Len(t, search.Items, 2)

	all, err := f.queries.ListInvoices(ctx, dto.InvoiceListRequest{PageRequest: dto.PageRequest{Page: 2, PageSize: 3}})
	require.NoError(t, err)
	assert.Len(t, all.Items, 1)
	assert.Equal(t, 4, all.Page.Total)
	assert.Equal(t, 2, all.Page.TotalPages)
	assert.Equal(t, "1.8", all.AvgItemsPerInvoice.StringFixed(1))

	future := time.Now().Add(time.Hour)
	none, err := f.queries.ListInvoices(ctx, dto.InvoiceListRequest{From: &future})
	require.NoError(t, err)
	assert.Empty(t, none.Items)
	assert.True(t, none.TotalSales.IsZero())
}

// ── PDF ───────────────────────────────────────────────────────────────────────

type stubGenerator struct {
	got *entity.Invoice
}

func (g *stubGenerator) GenerateInvoicePDF(_ context.Context, inv *entity.Invoice, _ *entity.Branch) ([]byte, error) {
	g.got = inv
	return []byte("%PDF"), nil
}

func TestDownloadInvoicePDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.sales.CreateSale(ctx, sale("Ngozi", item("PROD-001", "BTH-2024-001", 1, 455000)))
	require.NoError(t, err)

	gen := &stubGenerator{}
	uc := billing.NewPDFUseCase(f.invoices, f.branches, gen)

	b, name, err := uc.DownloadInvoicePDF(ctx, "", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), b)
	assert.Equal(t, "factura_"+inv.Number+".pdf", name)
	assert.Equal(t, inv.Number, gen.got.Number)

	_, _, err = uc.DownloadInvoicePDF(ctx, "north", inv.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, _, err = uc.DownloadInvoicePDF(ctx, "", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
