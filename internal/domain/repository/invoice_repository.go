package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// InvoiceFilter criterios de búsqueda de facturas. Campos vacíos no filtran.
type InvoiceFilter struct {
	BranchID string
	Search   string // cliente o número, sin distinguir mayúsculas
	From     *time.Time
	To       *time.Time
}

// BatchSales acumulado vendido de un lote.
type BatchSales struct {
	Quantity int64
	Revenue  decimal.Decimal
}

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// List devuelve las facturas (con líneas) más recientes primero.
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
	// LastNumber número de la última factura emitida ("" si no hay).
	LastNumber(ctx context.Context) (string, error)
	// SalesByBatch agrega cantidades e ingresos vendidos por lote.
	SalesByBatch(ctx context.Context) (map[string]BatchSales, error)
}
