package inventory

import (
	"time"

	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MoneyScale decimales que admiten las columnas de dinero.
const MoneyScale = 2

// IsMoney indica si d se guarda sin redondeo (a lo sumo MoneyScale decimales significativos).
func IsMoney(d decimal.Decimal) bool {
	return d.Round(MoneyScale).Equal(d)
}

// StockValue suma cantidad * costo de los lotes (servicio de dominio).
func StockValue(batches []*entity.Batch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(b.Value())
	}
	return total
}

// BatchProfit rentabilidad de un lote a partir de lo vendido.
type BatchProfit struct {
	Batch        *entity.Batch
	SoldQuantity int64
	Revenue      decimal.Decimal
	Cost         decimal.Decimal // vendido * costo del lote
	GrossProfit  decimal.Decimal
	Margin       decimal.Decimal // porcentaje sobre el ingreso, 1 decimal
	Status       string
}

// ComputeBatchProfit Ganancia = Ingreso - (Vendido * Costo); Margen = Ganancia / Ingreso * 100.
func ComputeBatchProfit(b *entity.Batch, sold int64, revenue decimal.Decimal, now time.Time) BatchProfit {
	cost := b.CostPrice.Mul(decimal.NewFromInt(sold))
	profit := revenue.Sub(cost)
	margin := decimal.Zero
	if revenue.IsPositive() {
		margin = profit.Div(revenue).Mul(hundred).Round(1)
	}
	return BatchProfit{
		Batch:        b,
		SoldQuantity: sold,
		Revenue:      revenue,
		Cost:         cost,
		GrossProfit:  profit,
		Margin:       margin,
		Status:       b.Status(now),
	}
}

// ProfitSummary totales del reporte de rentabilidad.
type ProfitSummary struct {
	TotalProfit   decimal.Decimal
	ActiveBatches int
	AverageMargin decimal.Decimal // promedio simple de márgenes, 1 decimal
}

// SummarizeProfit agrega las filas del reporte.
func SummarizeProfit(rows []BatchProfit) ProfitSummary {
	s := ProfitSummary{TotalProfit: decimal.Zero, AverageMargin: decimal.Zero}
	if len(rows) == 0 {
		return s
	}
	marginSum := decimal.Zero
	for _, r := range rows {
		s.TotalProfit = s.TotalProfit.Add(r.GrossProfit)
		marginSum = marginSum.Add(r.Margin)
		if r.Status == entity.BatchStatusActive {
			s.ActiveBatches++
		}
	}
	s.AverageMargin = marginSum.Div(decimal.NewFromInt(int64(len(rows)))).Round(1)
	return s
}
