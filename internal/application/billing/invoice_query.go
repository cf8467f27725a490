package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// InvoiceQueryUseCase consultas de facturas para la pantalla de ventas.
type InvoiceQueryUseCase struct {
	invoiceRepo repository.InvoiceRepository
}

// NewInvoiceQueryUseCase construye el caso de uso.
func NewInvoiceQueryUseCase(invoiceRepo repository.InvoiceRepository) *InvoiceQueryUseCase {
	return &InvoiceQueryUseCase{invoiceRepo: invoiceRepo}
}

// GetInvoice devuelve la factura o domain.ErrNotFound.
func (uc *InvoiceQueryUseCase) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("factura %s: %w", id, domain.ErrNotFound)
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// ListInvoices filtra, pagina (más recientes primero) y resume el conjunto filtrado:
// total vendido y promedio de líneas por factura con un decimal.
func (uc *InvoiceQueryUseCase) ListInvoices(ctx context.Context, in dto.InvoiceListRequest) (*dto.InvoiceListResponse, error) {
	page := in.PageRequest
	page.DefaultPage()

	all, err := uc.invoiceRepo.List(ctx, repository.InvoiceFilter{
		BranchID: in.BranchID,
		Search:   in.Search,
		From:     in.From,
		To:       in.To,
	})
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	lines := 0
	for _, inv := range all {
		total = total.Add(inv.Total)
		lines += inv.ItemCount()
	}
	avg := decimal.Zero
	if len(all) > 0 {
		avg = decimal.NewFromInt(int64(lines)).Div(decimal.NewFromInt(int64(len(all)))).Round(1)
	}

	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	items := make([]dto.InvoiceResponse, 0, end-start)
	for _, inv := range all[start:end] {
		items = append(items, ToInvoiceResponse(inv))
	}

	return &dto.InvoiceListResponse{
		Items: items,
		Page: dto.PageResponse{
			Page:       page.Page,
			PageSize:   page.PageSize,
			Total:      len(all),
			TotalPages: (len(all) + page.PageSize - 1) / page.PageSize,
		},
		TotalSales:         total,
		InvoiceCount:       len(all),
		AvgItemsPerInvoice: avg,
	}, nil
}
