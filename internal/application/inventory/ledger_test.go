package inventory_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventorypro-ledger/internal/application/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
)

func TestLedger_FindBatch(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	b, err := f.ledger.FindBatch(ctx, "BTH-2024-001")
	require.NoError(t, err)
	assert.Equal(t, int64(45), b.Quantity)
	assert.Equal(t, "main", b.BranchID)

	_, err = f.ledger.FindBatch(ctx, "BTH-9999-999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_BatchesForProduct_ExcluyeAgotados(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	list, err := f.ledger.BatchesForProduct(ctx, "PROD-001", "main")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.ledger.AdjustQuantity(ctx, "BTH-2024-001", -45)
	require.NoError(t, err)

	list, err = f.ledger.BatchesForProduct(ctx, "PROD-001", "main")
	require.NoError(t, err)
	assert.Empty(t, list)

	all, err := f.ledger.BatchesForBranch(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for _, b := range all {
		if b.ID == "BTH-2024-001" {
			assert.Equal(t, entity.BatchStatusSoldOut, b.Status(time.Now()))
		}
	}
}

func TestLedger_AdjustQuantity_NoPermiteNegativos(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	_, err := f.ledger.AdjustQuantity(ctx, "BTH-2024-001", -46)
	require.Error(t, err)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, int64(45), ise.Available)
	assert.True(t, strings.Contains(err.Error(), "Disponible: 45"))
	assert.Equal(t, int64(45), f.quantity(t, "BTH-2024-001"))

	b, err := f.ledger.AdjustQuantity(ctx, "BTH-2024-001", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(50), b.Quantity)
	assert.Equal(t, int64(2), b.Version)

	_, err = f.ledger.AdjustQuantity(ctx, "nope", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_AdjustQuantity_DesbordeEsValidacion(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	_, err := f.ledger.AdjustQuantity(ctx, "BTH-2024-001", math.MaxInt64)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, errors.Is(err, domain.ErrInsufficientStock))
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "quantity", ve.Field)
	assert.Equal(t, int64(45), f.quantity(t, "BTH-2024-001"))
}

func TestLedger_AdjustQuantityIfVersion(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	b, err := f.ledger.FindBatch(ctx, "BTH-2024-002")
	require.NoError(t, err)

	updated, err := f.ledger.AdjustQuantityIfVersion(ctx, b.ID, -3, b.Version)
	require.NoError(t, err)
	assert.Equal(t, int64(25), updated.Quantity)

	_, err = f.ledger.AdjustQuantityIfVersion(ctx, b.ID, -3, b.Version)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(25), f.quantity(t, b.ID))
}

func TestLedger_AdjustQuantity_ConcurrenteSinPerdidas(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	ctx := context.Background()

	const workers = 60
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.AdjustQuantity(ctx, "BTH-2024-001", -1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 45, ok)
	assert.Equal(t, workers-45, rejected)
	assert.Equal(t, int64(0), f.quantity(t, "BTH-2024-001"))
}

func TestLedger_CreateBatch(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	b, err := f.ledger.CreateBatch(ctx, inventory.NewBatch{
		ProductID:    "PROD-003",
		BranchID:     "south",
		Quantity:     12,
		CostPrice:    decimal.NewFromInt(36900),
		PurchaseDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b.ID, "BTH-"))
	assert.True(t, strings.HasSuffix(b.ID, "-015"), b.ID)
	assert.Equal(t, b.ID, b.LotCode)
	assert.Equal(t, int64(1), b.Version)

	tests := []struct {
		name  string
		in    inventory.NewBatch
		field string
		is    error
	}{
		{"sin producto", inventory.NewBatch{BranchID: "main"}, "product_id", domain.ErrInvalidInput},
		{"cantidad negativa", inventory.NewBatch{ProductID: "PROD-001", BranchID: "main", Quantity: -1}, "quantity", domain.ErrInvalidInput},
		{"costo negativo", inventory.NewBatch{ProductID: "PROD-001", BranchID: "main", CostPrice: decimal.NewFromInt(-1)}, "cost_price", domain.ErrInvalidInput},
		{"costo con tres decimales", inventory.NewBatch{ProductID: "PROD-001", BranchID: "main", CostPrice: decimal.RequireFromString("10.005")}, "cost_price", domain.ErrInvalidInput},
		{"sin fecha de compra", inventory.NewBatch{ProductID: "PROD-001", BranchID: "main"}, "purchase_date", domain.ErrInvalidInput},
		{"producto desconocido", inventory.NewBatch{ProductID: "X", BranchID: "main", PurchaseDate: time.Now()}, "", domain.ErrNotFound},
		{"sucursal desconocida", inventory.NewBatch{ProductID: "PROD-001", BranchID: "east", PurchaseDate: time.Now()}, "", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.CreateBatch(ctx, tt.in)
			require.ErrorIs(t, err, tt.is)
			if tt.field != "" {
				var ve *domain.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, tt.field, ve.Field)
			}
		})
	}
}

func TestLedger_ProductsByBranch(t *testing.T) {
	f := newFixture(t, time.Second)
	products, err := f.ledger.ProductsByBranch(context.Background(), "north")
	require.NoError(t, err)
	var ids []string
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"PROD-001", "PROD-003", "PROD-007"}, ids)
}

func TestLedger_InventoryValue(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	main, err := f.ledger.InventoryValue(ctx, "main")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(41454000).Equal(main), main.String())

	all, err := f.ledger.InventoryValue(ctx, "")
	require.NoError(t, err)
	assert.True(t, all.GreaterThan(main))
}
