package entity

import "github.com/shopspring/decimal"

// InvoiceLine línea de factura. Nombre y SKU son una copia al momento de la venta:
// cambios posteriores del catálogo no alteran facturas históricas.
type InvoiceLine struct {
	ID          string
	InvoiceID   string
	Position    int
	ProductID   string
	ProductName string
	SKU         string
	BatchID     string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal // Quantity * UnitPrice
}
