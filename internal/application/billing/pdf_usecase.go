package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
)

// PDFUseCase genera la representación imprimible (PDF) de una factura.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	branchRepo  repository.BranchRepository
	generator   InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	invoiceRepo repository.InvoiceRepository,
	branchRepo repository.BranchRepository,
	generator InvoicePDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		invoiceRepo: invoiceRepo,
		branchRepo:  branchRepo,
		generator:   generator,
	}
}

// DownloadInvoicePDF recupera la factura y su sucursal y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
//   - domain.ErrForbidden        si branchScope no es vacío y la factura es de otra sucursal.
func (uc *PDFUseCase) DownloadInvoicePDF(
	ctx context.Context,
	branchScope, invoiceID string,
) (pdfBytes []byte, filename string, err error) {
	// ── 1. Cargar factura ─────────────────────────────────────────────────────
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", domain.ErrNotFound
	}
	if branchScope != "" && inv.BranchID != branchScope {
		return nil, "", domain.ErrForbidden
	}

	// ── 2. Cargar sucursal ────────────────────────────────────────────────────
	branch, err := uc.branchRepo.GetByID(ctx, inv.BranchID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener sucursal: %w", err)
	}
	if branch == nil {
		return nil, "", fmt.Errorf("pdf: sucursal %s: %w", inv.BranchID, domain.ErrNotFound)
	}

	// ── 3. Generar PDF ────────────────────────────────────────────────────────
	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv, branch)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("factura_%s.pdf", inv.Number)
	return pdfBytes, filename, nil
}
