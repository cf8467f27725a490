package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchResponse lote con su estado y valor derivados.
type BatchResponse struct {
	ID           string           `json:"id"`
	LotCode      string           `json:"lot_code"`
	ProductID    string           `json:"product_id"`
	ProductName  string           `json:"product_name,omitempty"`
	BranchID     string           `json:"branch_id"`
	Quantity     int64            `json:"quantity"`
	CostPrice    decimal.Decimal  `json:"cost_price"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	PurchaseDate time.Time        `json:"purchase_date"`
	ExpiryDate   *time.Time       `json:"expiry_date,omitempty"`
	Status       string           `json:"status"`
	Value        decimal.Decimal  `json:"value"`
	Version      int64            `json:"version"`
}

// AdjustBatchRequest body para POST /api/batches/:id/adjust.
// ExpectedVersion opcional: si viene, el ajuste falla con conflicto si el lote cambió.
type AdjustBatchRequest struct {
	Delta           int64  `json:"delta" validate:"required"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

// TransferRequest body para POST /api/transfers y /api/transfers/prepare.
type TransferRequest struct {
	SourceBranchID      string `json:"source_branch_id"`
	DestinationBranchID string `json:"destination_branch_id"`
	ProductID           string `json:"product_id"`
	BatchID             string `json:"batch_id"`
	Quantity            int64  `json:"quantity"`
}

// TransferResponse estado del borrador de traslado.
type TransferResponse struct {
	ID          string            `json:"id"`
	State       string            `json:"state"`
	Request     TransferRequest   `json:"request"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Failure     string            `json:"failure,omitempty"`
	Result      *TransferResult   `json:"result,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TransferResult efecto del traslado confirmado.
type TransferResult struct {
	SourceBatchID       string `json:"source_batch_id"`
	SourceQuantity      int64  `json:"source_quantity"`
	DestinationBatchID  string `json:"destination_batch_id"`
	DestinationQuantity int64  `json:"destination_quantity"`
	Merged              bool   `json:"merged"`
}
