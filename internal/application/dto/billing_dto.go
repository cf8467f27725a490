package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest body para POST /api/sales.
// BranchID y SalesRep los completa el handler a partir del token si vienen vacíos.
type CreateSaleRequest struct {
	BranchID     string            `json:"branch_id"`
	CustomerName string            `json:"customer_name"`
	SalesRep     string            `json:"sales_rep"`
	Items        []SaleItemRequest `json:"items"`
	Discount     decimal.Decimal   `json:"discount"`
	Tax          decimal.Decimal   `json:"tax"`
}

// SaleItemRequest línea de venta: producto, lote, cantidad y precio unitario.
type SaleItemRequest struct {
	ProductID string          `json:"product_id"`
	BatchID   string          `json:"batch_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// InvoiceResponse factura con sus líneas.
type InvoiceResponse struct {
	ID           string                `json:"id"`
	Number       string                `json:"number"`
	Date         time.Time             `json:"date"`
	BranchID     string                `json:"branch_id"`
	CustomerName string                `json:"customer_name"`
	SalesRep     string                `json:"sales_rep"`
	Subtotal     decimal.Decimal       `json:"subtotal"`
	Discount     decimal.Decimal       `json:"discount"`
	Tax          decimal.Decimal       `json:"tax"`
	Total        decimal.Decimal       `json:"total"`
	Items        []InvoiceLineResponse `json:"items"`
}

// InvoiceLineResponse línea de factura (copia de nombre y SKU al momento de la venta).
type InvoiceLineResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	BatchID     string          `json:"batch_id"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceListRequest filtros de GET /api/invoices.
type InvoiceListRequest struct {
	PageRequest
	BranchID string     `query:"branch_id"`
	Search   string     `query:"search"`
	From     *time.Time `query:"-"`
	To       *time.Time `query:"-"`
}

// InvoiceListResponse página de facturas y resumen sobre todo el conjunto filtrado.
type InvoiceListResponse struct {
	Items              []InvoiceResponse `json:"items"`
	Page               PageResponse      `json:"page"`
	TotalSales         decimal.Decimal   `json:"total_sales"`
	InvoiceCount       int               `json:"invoice_count"`
	AvgItemsPerInvoice decimal.Decimal   `json:"avg_items_per_invoice"`
}
