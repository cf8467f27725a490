package dto

import "github.com/shopspring/decimal"

// BranchValue valor de inventario de una sucursal.
type BranchValue struct {
	BranchID   string          `json:"branch_id"`
	BranchName string          `json:"branch_name"`
	Value      decimal.Decimal `json:"value"`
	Batches    int             `json:"batches"`
	Units      int64           `json:"units"`
}

// DashboardSummary valor de inventario por sucursal y total.
type DashboardSummary struct {
	Branches   []BranchValue   `json:"branches"`
	TotalValue decimal.Decimal `json:"total_value"`
	TotalUnits int64           `json:"total_units"`
}

// BatchProfitRow fila del reporte de rentabilidad por lote.
type BatchProfitRow struct {
	BatchID      string          `json:"batch_id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	BranchID     string          `json:"branch_id"`
	Remaining    int64           `json:"remaining"`
	SoldQuantity int64           `json:"sold_quantity"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	Revenue      decimal.Decimal `json:"total_revenue"`
	Cost         decimal.Decimal `json:"total_cost"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	Margin       decimal.Decimal `json:"profit_margin"`
	Status       string          `json:"status"`
}

// BatchProfitReport filas y resumen.
type BatchProfitReport struct {
	Rows          []BatchProfitRow `json:"rows"`
	TotalProfit   decimal.Decimal  `json:"total_profit"`
	ActiveBatches int              `json:"active_batches"`
	AverageMargin decimal.Decimal  `json:"average_margin"`
}
