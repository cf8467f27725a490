package billing

import (
	"context"

	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción que incluye repos de inventario y facturación.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		batchRepo repository.BatchRepository,
		productRepo repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error) error
}

// LedgerInTx integra la venta con el libro de lotes.
// AdjustInTx aplica delta sobre un lote ya bloqueado usando el repositorio del caller (misma transacción).
// Si retorna error (ej: *domain.InsufficientStockError), el caller debe hacer rollback.
type LedgerInTx interface {
	AdjustInTx(ctx context.Context, batchRepo repository.BatchRepository, batch *entity.Batch, delta int64) error
}

// InvoicePDFGenerator genera la representación imprimible de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, invoice *entity.Invoice, branch *entity.Branch) ([]byte, error)
}
