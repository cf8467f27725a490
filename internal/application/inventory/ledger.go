package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Ledger es el libro de lotes: única vía para modificar la cantidad de un lote.
// Toda escritura pasa por un lote bloqueado dentro de una transacción.
type Ledger struct {
	txRunner    TxRunner
	batchRepo   repository.BatchRepository
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewLedger construye el libro de lotes.
func NewLedger(
	txRunner TxRunner,
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	log zerolog.Logger,
) *Ledger {
	return &Ledger{
		txRunner:    txRunner,
		batchRepo:   batchRepo,
		productRepo: productRepo,
		branchRepo:  branchRepo,
		log:         log,
		now:         time.Now,
	}
}

// NewBatch datos de alta de un lote.
type NewBatch struct {
	ProductID    string
	BranchID     string
	LotCode      string // vacío: el lote es su propio lote
	Quantity     int64
	CostPrice    decimal.Decimal
	SellingPrice *decimal.Decimal
	PurchaseDate time.Time
	ExpiryDate   *time.Time
}

// FindBatch devuelve el lote o domain.ErrNotFound.
func (l *Ledger) FindBatch(ctx context.Context, batchID string) (*entity.Batch, error) {
	b, err := l.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("lote %s: %w", batchID, domain.ErrNotFound)
	}
	return b, nil
}

// BatchesForProduct lotes con existencias de un producto en una sucursal (alimenta los selectores).
func (l *Ledger) BatchesForProduct(ctx context.Context, productID, branchID string) ([]*entity.Batch, error) {
	all, err := l.batchRepo.ListByProductAndBranch(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Batch, 0, len(all))
	for _, b := range all {
		if b.Quantity > 0 {
			out = append(out, b)
		}
	}
	return out, nil
}

// BatchesForBranch todos los lotes de la sucursal, agotados incluidos. branchID vacío: todas.
func (l *Ledger) BatchesForBranch(ctx context.Context, branchID string) ([]*entity.Batch, error) {
	return l.batchRepo.ListByBranch(ctx, branchID)
}

// AdjustQuantity aplica quantity += delta de forma atómica respecto de otros ajustes del mismo lote.
func (l *Ledger) AdjustQuantity(ctx context.Context, batchID string, delta int64) (*entity.Batch, error) {
	return l.adjust(ctx, batchID, delta, nil)
}

// AdjustQuantityIfVersion como AdjustQuantity pero solo si el lote sigue en expectedVersion;
// si otro escritor se adelantó devuelve domain.ErrConflict.
func (l *Ledger) AdjustQuantityIfVersion(ctx context.Context, batchID string, delta, expectedVersion int64) (*entity.Batch, error) {
	return l.adjust(ctx, batchID, delta, &expectedVersion)
}

func (l *Ledger) adjust(ctx context.Context, batchID string, delta int64, expectedVersion *int64) (*entity.Batch, error) {
	var out *entity.Batch
	err := l.txRunner.Run(ctx, func(batchRepo repository.BatchRepository, _ repository.ProductRepository) error {
		b, err := batchRepo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("lote %s: %w", batchID, domain.ErrNotFound)
		}
		if expectedVersion != nil && b.Version != *expectedVersion {
			return fmt.Errorf("lote %s en versión %d, se esperaba %d: %w", batchID, b.Version, *expectedVersion, domain.ErrConflict)
		}
		if err := l.AdjustInTx(ctx, batchRepo, b, delta); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("batch_id", batchID).Int64("delta", delta).Int64("quantity", out.Quantity).Msg("ajuste de lote")
	return out, nil
}

// AdjustInTx aplica delta sobre un lote ya bloqueado por el llamador (misma transacción).
// Si la cantidad quedaría negativa devuelve *domain.InsufficientStockError sin tocar el lote.
func (l *Ledger) AdjustInTx(ctx context.Context, batchRepo repository.BatchRepository, b *entity.Batch, delta int64) error {
	next := b.Quantity + delta
	if delta > 0 && next < b.Quantity {
		return domain.NewValidationError("quantity", "la cantidad excede el máximo admitido")
	}
	if next < 0 {
		return &domain.InsufficientStockError{BatchID: b.ID, Available: b.Quantity, Requested: -delta}
	}
	prev := b.Quantity
	b.Quantity = next
	if err := batchRepo.UpdateQuantity(ctx, b); err != nil {
		b.Quantity = prev
		return err
	}
	return nil
}

// CreateBatch valida y da de alta un lote con ID nuevo.
func (l *Ledger) CreateBatch(ctx context.Context, in NewBatch) (*entity.Batch, error) {
	if err := l.validateNewBatch(ctx, in); err != nil {
		return nil, err
	}
	b := buildBatch(in, l.now())
	if err := l.batchRepo.Create(ctx, b); err != nil {
		return nil, err
	}
	l.log.Info().Str("batch_id", b.ID).Str("branch_id", b.BranchID).Int64("quantity", b.Quantity).Msg("lote creado")
	return b, nil
}

// CreateInTx da de alta un lote dentro de una transacción del llamador (sin validar catálogo).
func (l *Ledger) CreateInTx(ctx context.Context, batchRepo repository.BatchRepository, in NewBatch) (*entity.Batch, error) {
	if in.Quantity < 0 || in.CostPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	b := buildBatch(in, l.now())
	if err := batchRepo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func buildBatch(in NewBatch, now time.Time) *entity.Batch {
	return &entity.Batch{
		LotCode:      in.LotCode,
		ProductID:    in.ProductID,
		BranchID:     in.BranchID,
		Quantity:     in.Quantity,
		CostPrice:    in.CostPrice,
		SellingPrice: in.SellingPrice,
		PurchaseDate: in.PurchaseDate,
		ExpiryDate:   in.ExpiryDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (l *Ledger) validateNewBatch(ctx context.Context, in NewBatch) error {
	if strings.TrimSpace(in.ProductID) == "" {
		return domain.NewValidationError("product_id", "seleccione un producto")
	}
	if strings.TrimSpace(in.BranchID) == "" {
		return domain.NewValidationError("branch_id", "seleccione una sucursal")
	}
	if in.Quantity < 0 {
		return domain.NewValidationError("quantity", "la cantidad no puede ser negativa")
	}
	if in.CostPrice.IsNegative() {
		return domain.NewValidationError("cost_price", "el costo no puede ser negativo")
	}
	if !inventory.IsMoney(in.CostPrice) {
		return domain.NewValidationError("cost_price", "el costo admite máximo 2 decimales")
	}
	if in.SellingPrice != nil && in.SellingPrice.IsNegative() {
		return domain.NewValidationError("selling_price", "el precio de venta no puede ser negativo")
	}
	if in.SellingPrice != nil && !inventory.IsMoney(*in.SellingPrice) {
		return domain.NewValidationError("selling_price", "el precio de venta admite máximo 2 decimales")
	}
	if in.PurchaseDate.IsZero() {
		return domain.NewValidationError("purchase_date", "la fecha de compra es obligatoria")
	}
	product, err := l.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("producto %s: %w", in.ProductID, domain.ErrNotFound)
	}
	branch, err := l.branchRepo.GetByID(ctx, in.BranchID)
	if err != nil {
		return err
	}
	if branch == nil {
		return fmt.Errorf("sucursal %s: %w", in.BranchID, domain.ErrNotFound)
	}
	return nil
}

// ProductsByBranch productos con algún lote en la sucursal (agotados incluidos), en el orden del catálogo.
func (l *Ledger) ProductsByBranch(ctx context.Context, branchID string) ([]*entity.Product, error) {
	batches, err := l.batchRepo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	inStock := make(map[string]bool)
	for _, b := range batches {
		inStock[b.ProductID] = true
	}
	products, err := l.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Product, 0, len(inStock))
	for _, p := range products {
		if inStock[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// InventoryValue valor al costo de las existencias de una sucursal ("" = todas).
func (l *Ledger) InventoryValue(ctx context.Context, branchID string) (decimal.Decimal, error) {
	batches, err := l.batchRepo.ListByBranch(ctx, branchID)
	if err != nil {
		return decimal.Zero, err
	}
	return inventory.StockValue(batches), nil
}
