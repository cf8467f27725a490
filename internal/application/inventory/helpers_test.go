package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventorypro-ledger/internal/application/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/seed"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

type fixture struct {
	store     *memory.Store
	txRunner  *memory.TxRunner
	batches   *memory.BatchRepo
	products  *memory.ProductRepo
	branches  *memory.BranchRepo
	ledger    *inventory.Ledger
	transfers *inventory.TransferProcessor
}

func newFixture(t *testing.T, lockTimeout time.Duration) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(lockTimeout)
	batches := memory.NewBatchRepository(store)
	products := memory.NewProductRepository(store)
	branches := memory.NewBranchRepository(store)
	require.NoError(t, seed.Demo(ctx, seed.Repos{
		Branches: branches,
		Products: products,
		Batches:  batches,
		Users:    memory.NewUserRepository(store),
	}, "secret", zerolog.Nop()))

	txRunner := memory.NewTxRunner(store)
	ledger := inventory.NewLedger(txRunner, batches, products, branches, zerolog.Nop())
	return &fixture{
		store:     store,
		txRunner:  txRunner,
		batches:   batches,
		products:  products,
		branches:  branches,
		ledger:    ledger,
		transfers: inventory.NewTransferProcessor(txRunner, ledger, batches, products, branches, 15*time.Minute, zerolog.Nop()),
	}
}

// addBatch agrega un lote con ID fijo (escenarios de traslado).
func (f *fixture) addBatch(t *testing.T, id, productID, branchID string, qty, cost int64) *entity.Batch {
	t.Helper()
	sell := decimal.NewFromInt(cost + 90000)
	exp := time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)
	b := &entity.Batch{
		ID:           id,
		ProductID:    productID,
		BranchID:     branchID,
		Quantity:     qty,
		CostPrice:    decimal.NewFromInt(cost),
		SellingPrice: &sell,
		PurchaseDate: time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC),
		ExpiryDate:   &exp,
	}
	require.NoError(t, f.batches.Create(context.Background(), b))
	return b
}

func (f *fixture) quantity(t *testing.T, id string) int64 {
	t.Helper()
	b, err := f.ledger.FindBatch(context.Background(), id)
	require.NoError(t, err)
	return b.Quantity
}

// sumFor suma las cantidades de un producto en una sucursal.
func (f *fixture) sumFor(t *testing.T, productID, branchID string) (int64, int) {
	t.Helper()
	list, err := f.batches.ListByProductAndBranch(context.Background(), productID, branchID)
	require.NoError(t, err)
	var total int64
	for _, b := range list {
		total += b.Quantity
	}
	return total, len(list)
}
