package billing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CreateSaleUseCase convierte líneas de venta en una factura confirmada o rechaza la venta completa.
type CreateSaleUseCase struct {
	txRunner    BillingTxRunner
	ledger      LedgerInTx
	batchRepo   repository.BatchRepository
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
	numbers     *NumberGenerator
	log         zerolog.Logger
	now         func() time.Time
}

// NewCreateSaleUseCase construye el caso de uso.
func NewCreateSaleUseCase(
	txRunner BillingTxRunner,
	ledger LedgerInTx,
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	numbers *NumberGenerator,
	log zerolog.Logger,
) *CreateSaleUseCase {
	return &CreateSaleUseCase{
		txRunner:    txRunner,
		ledger:      ledger,
		batchRepo:   batchRepo,
		productRepo: productRepo,
		branchRepo:  branchRepo,
		numbers:     numbers,
		log:         log,
		now:         time.Now,
	}
}

// ValidateSale revisa la venta contra el estado actual del libro sin modificar nada.
// Se detiene en el primer error, en este orden: cliente, líneas y, por cada línea,
// producto, lote, cantidad, precio, existencia del lote y disponibilidad acumulada.
func (uc *CreateSaleUseCase) ValidateSale(ctx context.Context, in dto.CreateSaleRequest) error {
	_, err := uc.validate(ctx, in)
	return err
}

func lineField(i int, name string) string {
	return fmt.Sprintf("items[%d].%s", i, name)
}

// validate devuelve los productos de las líneas para copiar nombre y SKU a la factura.
func (uc *CreateSaleUseCase) validate(ctx context.Context, in dto.CreateSaleRequest) (map[string]*entity.Product, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, domain.NewValidationError("customer_name", "ingrese el nombre del cliente")
	}
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "agregue al menos un producto")
	}
	if in.Discount.IsNegative() {
		return nil, domain.NewValidationError("discount", "el descuento no puede ser negativo")
	}
	if !inventory.IsMoney(in.Discount) {
		return nil, domain.NewValidationError("discount", "el descuento admite máximo 2 decimales")
	}
	if in.Tax.IsNegative() {
		return nil, domain.NewValidationError("tax", "el impuesto no puede ser negativo")
	}
	if !inventory.IsMoney(in.Tax) {
		return nil, domain.NewValidationError("tax", "el impuesto admite máximo 2 decimales")
	}
	if in.BranchID == "" {
		return nil, domain.NewValidationError("branch_id", "seleccione una sucursal")
	}
	branch, err := uc.branchRepo.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, fmt.Errorf("sucursal %s: %w", in.BranchID, domain.ErrNotFound)
	}

	products := make(map[string]*entity.Product)
	used := make(map[string]int64) // cantidad ya comprometida por líneas anteriores
	for i, item := range in.Items {
		if item.ProductID == "" {
			return nil, domain.NewValidationError(lineField(i, "product_id"), "seleccione un producto")
		}
		if item.BatchID == "" {
			return nil, domain.NewValidationError(lineField(i, "batch_id"), "seleccione un lote")
		}
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError(lineField(i, "quantity"), "la cantidad debe ser un entero positivo")
		}
		if !item.UnitPrice.IsPositive() {
			return nil, domain.NewValidationError(lineField(i, "unit_price"), "el precio debe ser mayor que cero")
		}
		if !inventory.IsMoney(item.UnitPrice) {
			return nil, domain.NewValidationError(lineField(i, "unit_price"), "el precio admite máximo 2 decimales")
		}

		product, ok := products[item.ProductID]
		if !ok {
			product, err = uc.productRepo.GetByID(ctx, item.ProductID)
			if err != nil {
				return nil, err
			}
			if product == nil {
				return nil, fmt.Errorf("producto %s: %w", item.ProductID, domain.ErrNotFound)
			}
			products[item.ProductID] = product
		}

		batch, err := uc.batchRepo.GetByID(ctx, item.BatchID)
		if err != nil {
			return nil, err
		}
		if batch == nil {
			return nil, fmt.Errorf("lote %s: %w", item.BatchID, domain.ErrNotFound)
		}
		if batch.BranchID != in.BranchID {
			return nil, domain.NewValidationError(lineField(i, "batch_id"), "el lote no pertenece a la sucursal")
		}
		if batch.ProductID != item.ProductID {
			return nil, domain.NewValidationError(lineField(i, "batch_id"), "el lote no corresponde al producto")
		}
		available := batch.Quantity - used[batch.ID]
		if item.Quantity > available {
			return nil, &domain.InsufficientStockError{BatchID: batch.ID, Available: available, Requested: item.Quantity}
		}
		used[batch.ID] += item.Quantity
	}
	return products, nil
}

// CreateSale valida todas las líneas y luego, en una transacción, bloquea los lotes en orden
// de ID, vuelve a comprobar disponibilidad, descuenta en el orden de las líneas y guarda la factura.
// Si otro proceso consumió el stock entre la validación y el commit devuelve domain.ErrConflict
// y ningún lote queda modificado.
func (uc *CreateSaleUseCase) CreateSale(ctx context.Context, in dto.CreateSaleRequest) (*dto.InvoiceResponse, error) {
	products, err := uc.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	need := make(map[string]int64)
	for _, item := range in.Items {
		need[item.BatchID] += item.Quantity
	}
	batchIDs := make([]string, 0, len(need))
	for id := range need {
		batchIDs = append(batchIDs, id)
	}
	sort.Strings(batchIDs)

	now := uc.now()
	var inv *entity.Invoice

	err = uc.txRunner.RunBilling(ctx, func(
		batchRepo repository.BatchRepository,
		_ repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		// 1) Bloquear lotes en orden fijo y re-verificar contra el estado bloqueado
		locked := make(map[string]*entity.Batch, len(batchIDs))
		for _, id := range batchIDs {
			b, err := batchRepo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if b == nil {
				return fmt.Errorf("lote %s: %w", id, domain.ErrNotFound)
			}
			if b.Quantity < need[id] {
				return domain.StockChanged(&domain.InsufficientStockError{
					BatchID: id, Available: b.Quantity, Requested: need[id],
				})
			}
			locked[id] = b
		}

		// 2) Descontar en el orden validado
		for _, item := range in.Items {
			if err := uc.ledger.AdjustInTx(ctx, batchRepo, locked[item.BatchID], -item.Quantity); err != nil {
				return err
			}
		}

		// 3) Factura con copia de nombre y SKU
		inv = buildInvoice(in, products, now)
		inv.Number = uc.numbers.Next()
		return invoiceRepo.Create(ctx, inv)
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("branch_id", in.BranchID).Msg("venta rechazada")
		return nil, err
	}

	uc.log.Info().
		Str("invoice", inv.Number).
		Str("branch_id", inv.BranchID).
		Strs("batches", batchIDs).
		Str("total", inv.Total.String()).
		Msg("venta confirmada")
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

func buildInvoice(in dto.CreateSaleRequest, products map[string]*entity.Product, now time.Time) *entity.Invoice {
	inv := &entity.Invoice{
		ID:           uuid.New().String(),
		Date:         now,
		BranchID:     in.BranchID,
		CustomerName: strings.TrimSpace(in.CustomerName),
		SalesRep:     in.SalesRep,
		Discount:     in.Discount,
		Tax:          in.Tax,
		CreatedAt:    now,
	}
	subtotal := decimal.Zero
	for i, item := range in.Items {
		p := products[item.ProductID]
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))
		subtotal = subtotal.Add(lineTotal)
		inv.Lines = append(inv.Lines, entity.InvoiceLine{
			ID:          uuid.New().String(),
			InvoiceID:   inv.ID,
			Position:    i + 1,
			ProductID:   item.ProductID,
			ProductName: p.Name,
			SKU:         p.SKU,
			BatchID:     item.BatchID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       lineTotal,
		})
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal.Sub(in.Discount).Add(in.Tax)
	return inv
}

// ToInvoiceResponse mapea la entidad a la respuesta HTTP.
func ToInvoiceResponse(inv *entity.Invoice) dto.InvoiceResponse {
	out := dto.InvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		Date:         inv.Date,
		BranchID:     inv.BranchID,
		CustomerName: inv.CustomerName,
		SalesRep:     inv.SalesRep,
		Subtotal:     inv.Subtotal,
		Discount:     inv.Discount,
		Tax:          inv.Tax,
		Total:        inv.Total,
		Items:        make([]dto.InvoiceLineResponse, 0, len(inv.Lines)),
	}
	for _, l := range inv.Lines {
		out.Items = append(out.Items, dto.InvoiceLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			SKU:         l.SKU,
			BatchID:     l.BatchID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total,
		})
	}
	return out
}
