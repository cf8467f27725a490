package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products: producto y su lote inicial en una sucursal.
type CreateProductRequest struct {
	Name         string           `json:"name" validate:"required,max=200"`
	SKU          string           `json:"sku" validate:"required,max=64"`
	Category     string           `json:"category" validate:"required"`
	Supplier     string           `json:"supplier" validate:"required"`
	Description  string           `json:"description" validate:"omitempty,max=1000"`
	BranchID     string           `json:"branch_id"`
	Quantity     int64            `json:"quantity" validate:"min=0"`
	CostPrice    decimal.Decimal  `json:"cost_price"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	PurchaseDate *time.Time       `json:"purchase_date" validate:"required"`
	ExpiryDate   *time.Time       `json:"expiry_date,omitempty"`
}

// ProductResponse producto del catálogo.
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku"`
	Category    string    `json:"category"`
	Supplier    string    `json:"supplier"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateProductResponse producto creado y su lote inicial.
type CreateProductResponse struct {
	Product ProductResponse `json:"product"`
	Batch   BatchResponse   `json:"batch"`
}
