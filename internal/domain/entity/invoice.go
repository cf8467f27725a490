package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice registro inmutable de una venta confirmada.
// Total = Subtotal - Discount + Tax.
type Invoice struct {
	ID           string
	Number       string // INV-<unix ms>, estrictamente creciente
	Date         time.Time
	BranchID     string
	CustomerName string
	SalesRep     string
	Lines        []InvoiceLine
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	CreatedAt    time.Time
}

// ItemCount número de líneas de la factura.
func (i *Invoice) ItemCount() int {
	return len(i.Lines)
}
