package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// BatchProfitUseCase reporte de rentabilidad por lote a partir de las líneas facturadas.
type BatchProfitUseCase struct {
	batchRepo   repository.BatchRepository
	productRepo repository.ProductRepository
	invoiceRepo repository.InvoiceRepository
	now         func() time.Time
}

// NewBatchProfitUseCase construye el caso de uso.
func NewBatchProfitUseCase(
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
) *BatchProfitUseCase {
	return &BatchProfitUseCase{
		batchRepo:   batchRepo,
		productRepo: productRepo,
		invoiceRepo: invoiceRepo,
		now:         time.Now,
	}
}

// Report una fila por lote de la sucursal (vacío = todas), vendidos o no.
func (uc *BatchProfitUseCase) Report(ctx context.Context, branchID string) (*dto.BatchProfitReport, error) {
	batches, err := uc.batchRepo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("rentabilidad: lotes: %w", err)
	}
	sales, err := uc.invoiceRepo.SalesByBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("rentabilidad: ventas: %w", err)
	}
	products, err := uc.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("rentabilidad: productos: %w", err)
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	now := uc.now()
	profits := make([]inventory.BatchProfit, 0, len(batches))
	for _, b := range batches {
		s, ok := sales[b.ID]
		if !ok {
			s.Revenue = decimal.Zero
		}
		profits = append(profits, inventory.ComputeBatchProfit(b, s.Quantity, s.Revenue, now))
	}
	summary := inventory.SummarizeProfit(profits)

	out := &dto.BatchProfitReport{
		Rows:          make([]dto.BatchProfitRow, 0, len(profits)),
		TotalProfit:   summary.TotalProfit,
		ActiveBatches: summary.ActiveBatches,
		AverageMargin: summary.AverageMargin,
	}
	for _, p := range profits {
		out.Rows = append(out.Rows, toProfitRow(p, names))
	}
	return out, nil
}

func toProfitRow(p inventory.BatchProfit, names map[string]string) dto.BatchProfitRow {
	b := p.Batch
	return dto.BatchProfitRow{
		BatchID:      b.ID,
		ProductID:    b.ProductID,
		ProductName:  names[b.ProductID],
		BranchID:     b.BranchID,
		Remaining:    b.Quantity,
		SoldQuantity: p.SoldQuantity,
		CostPrice:    b.CostPrice,
		Revenue:      p.Revenue,
		Cost:         p.Cost,
		GrossProfit:  p.GrossProfit,
		Margin:       p.Margin,
		Status:       p.Status,
	}
}

