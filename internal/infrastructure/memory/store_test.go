package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/seed"
)

var errAbort = errors.New("abortar")

func seeded(t *testing.T, lockTimeout time.Duration) *Store {
	t.Helper()
	s := NewStore(lockTimeout)
	require.NoError(t, seed.Demo(context.Background(), seed.Repos{
		Branches: NewBranchRepository(s),
		Products: NewProductRepository(s),
		Batches:  NewBatchRepository(s),
		Users:    NewUserRepository(s),
	}, "secret", zerolog.Nop()))
	return s
}

func TestTx_RollbackDescartaYLiberaCandados(t *testing.T) {
	s := seeded(t, 50*time.Millisecond)
	runner := NewTxRunner(s)
	ctx := context.Background()

	err := runner.Run(ctx, func(batches repository.BatchRepository, _ repository.ProductRepository) error {
		b, err := batches.GetForUpdate(ctx, "BTH-2024-001")
		require.NoError(t, err)
		b.Quantity = 1
		require.NoError(t, batches.UpdateQuantity(ctx, b))

		seen, err := batches.GetByID(ctx, "BTH-2024-001")
		require.NoError(t, err)
		assert.Equal(t, int64(1), seen.Quantity)
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	b, err := NewBatchRepository(s).GetByID(ctx, "BTH-2024-001")
	require.NoError(t, err)
	assert.Equal(t, int64(45), b.Quantity)
	assert.Equal(t, int64(1), b.Version)

	// El candado quedó libre.
	err = runner.Run(ctx, func(batches repository.BatchRepository, _ repository.ProductRepository) error {
		_, err := batches.GetForUpdate(ctx, "BTH-2024-001")
		return err
	})
	assert.NoError(t, err)
}

func TestTx_EsperaDeCandadoVenceConConflicto(t *testing.T) {
	s := seeded(t, 20*time.Millisecond)
	runner := NewTxRunner(s)
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = runner.Run(ctx, func(batches repository.BatchRepository, _ repository.ProductRepository) error {
			_, err := batches.GetForUpdate(ctx, "BTH-2024-002")
			close(held)
			<-done
			return err
		})
	}()
	<-held

	err := runner.Run(ctx, func(batches repository.BatchRepository, _ repository.ProductRepository) error {
		_, err := batches.GetForUpdate(ctx, "BTH-2024-002")
		return err
	})
	close(done)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTx_ClaveDeLoteSeBloqueaAunqueNoExista(t *testing.T) {
	s := seeded(t, 20*time.Millisecond)
	runner := NewTxRunner(s)
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = runner.Run(ctx, func(batches repository.BatchRepository, _ repository.ProductRepository) error {
			b, err := batches.FindLotForUpdate(ctx, "north", "PROD-005", "BTH-2024-004")
			assert.Nil(t, b)
			close(held)
			<-done
			return err
		})
	}()
	<-held

	err := runner.Run(ctx, func(batches repository.BatchRepository, _ repository.ProductRepository) error {
		_, err := batches.FindLotForUpdate(ctx, "north", "PROD-005", "BTH-2024-004")
		return err
	})
	close(done)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBatchRepo_VersionVieja(t *testing.T) {
	s := seeded(t, 0)
	repo := NewBatchRepository(s)
	ctx := context.Background()

	a, err := repo.GetByID(ctx, "BTH-2024-003")
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, "BTH-2024-003")
	require.NoError(t, err)

	a.Quantity = 10
	require.NoError(t, repo.UpdateQuantity(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	b.Quantity = 11
	assert.ErrorIs(t, repo.UpdateQuantity(ctx, b), domain.ErrConflict)

	got, err := repo.GetByID(ctx, "BTH-2024-003")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Quantity)
}

func TestBatchRepo_DevuelveCopias(t *testing.T) {
	s := seeded(t, 0)
	repo := NewBatchRepository(s)
	ctx := context.Background()

	b, err := repo.GetByID(ctx, "BTH-2024-005")
	require.NoError(t, err)
	b.Quantity = 0
	*b.SellingPrice = decimal.Zero

	again, err := repo.GetByID(ctx, "BTH-2024-005")
	require.NoError(t, err)
	assert.Equal(t, int64(35), again.Quantity)
	assert.True(t, decimal.NewFromInt(125000).Equal(*again.SellingPrice))
}

func TestBatchRepo_IDsYLoteNuevo(t *testing.T) {
	s := seeded(t, 0)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	repo := NewBatchRepository(s)
	ctx := context.Background()

	b := &entity.Batch{ProductID: "PROD-001", BranchID: "south", Quantity: 3, CostPrice: decimal.NewFromInt(1), PurchaseDate: s.now()}
	require.NoError(t, repo.Create(ctx, b))
	assert.Equal(t, "BTH-2025-015", b.ID)
	assert.Equal(t, b.ID, b.LotCode)
	assert.Equal(t, int64(1), b.Version)

	dup := &entity.Batch{ID: "BTH-2024-001", ProductID: "PROD-001", BranchID: "main"}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicate)
}

func TestTx_CreadosSoloVisiblesTrasCommit(t *testing.T) {
	s := seeded(t, 0)
	runner := NewTxRunner(s)
	outside := NewBatchRepository(s)
	ctx := context.Background()

	var id string
	err := runner.Run(ctx, func(batches repository.BatchRepository, products repository.ProductRepository) error {
		p := &entity.Product{Name: "Kindle", SKU: "KND-11"}
		if err := products.Create(ctx, p); err != nil {
			return err
		}
		b := &entity.Batch{ProductID: p.ID, BranchID: "west", Quantity: 5, CostPrice: decimal.NewFromInt(2)}
		if err := batches.Create(ctx, b); err != nil {
			return err
		}
		id = b.ID

		inside, err := batches.GetByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, inside)
		fromOutside, err := outside.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, fromOutside)
		return nil
	})
	require.NoError(t, err)

	b, err := outside.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, int64(5), b.Quantity)

	p, err := NewProductRepository(s).GetBySKU(ctx, "knd-11")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestTx_FacturaSeGuardaAlConfirmar(t *testing.T) {
	s := seeded(t, 0)
	runner := NewTxRunner(s)
	invoices := NewInvoiceRepository(s)
	ctx := context.Background()

	err := runner.RunBilling(ctx, func(_ repository.BatchRepository, _ repository.ProductRepository, inv repository.InvoiceRepository) error {
		require.NoError(t, inv.Create(ctx, &entity.Invoice{Number: "INV-1", BranchID: "main"}))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	last, err := invoices.LastNumber(ctx)
	require.NoError(t, err)
	assert.Empty(t, last)

	err = runner.RunBilling(ctx, func(_ repository.BatchRepository, _ repository.ProductRepository, inv repository.InvoiceRepository) error {
		return inv.Create(ctx, &entity.Invoice{Number: "INV-2", BranchID: "main"})
	})
	require.NoError(t, err)
	last, err = invoices.LastNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-2", last)

	err = invoices.Create(ctx, &entity.Invoice{Number: "INV-2"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUserRepo_EmailSinMayusculas(t *testing.T) {
	s := seeded(t, 0)
	u, err := NewUserRepository(s).GetByEmail(context.Background(), "KEMI@InventoryPro.ng")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "4", u.ID)
	assert.NotEmpty(t, u.PasswordHash)
}
