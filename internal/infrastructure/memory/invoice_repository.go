package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository en memoria (usable con o sin tx).
type InvoiceRepo struct {
	s  *Store
	tx *tx
}

// NewInvoiceRepository construye el repositorio sin transacción.
func NewInvoiceRepository(s *Store) *InvoiceRepo {
	return &InvoiceRepo{s: s}
}

// Create persiste cabecera y líneas. Dentro de una tx queda pendiente hasta el commit.
func (r *InvoiceRepo) Create(_ context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	for i := range invoice.Lines {
		if invoice.Lines[i].ID == "" {
			invoice.Lines[i].ID = uuid.New().String()
		}
		invoice.Lines[i].InvoiceID = invoice.ID
	}
	if r.tx != nil {
		r.tx.invoices = append(r.tx.invoices, cloneInvoice(invoice))
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.invoices {
		if existing.Number == invoice.Number {
			return fmt.Errorf("factura %s: %w", invoice.Number, domain.ErrDuplicate)
		}
	}
	r.s.invoices = append(r.s.invoices, cloneInvoice(invoice))
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, inv := range r.s.invoices {
		if inv.ID == id {
			return cloneInvoice(inv), nil
		}
	}
	return nil, nil
}

// List filtra y devuelve las más recientes primero.
func (r *InvoiceRepo) List(_ context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Invoice
	for i := len(r.s.invoices) - 1; i >= 0; i-- {
		inv := r.s.invoices[i]
		if f.BranchID != "" && inv.BranchID != f.BranchID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(inv.CustomerName), search) &&
			!strings.Contains(strings.ToLower(inv.Number), search) {
			continue
		}
		if f.From != nil && inv.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && inv.Date.After(*f.To) {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	return out, nil
}

// LastNumber número de la última factura emitida.
func (r *InvoiceRepo) LastNumber(_ context.Context) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if len(r.s.invoices) == 0 {
		return "", nil
	}
	return r.s.invoices[len(r.s.invoices)-1].Number, nil
}

// SalesByBatch acumula cantidad e ingreso de las líneas por lote.
func (r *InvoiceRepo) SalesByBatch(_ context.Context) (map[string]repository.BatchSales, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]repository.BatchSales)
	for _, inv := range r.s.invoices {
		for _, l := range inv.Lines {
			acc, ok := out[l.BatchID]
			if !ok {
				acc.Revenue = decimal.Zero
			}
			acc.Quantity += l.Quantity
			acc.Revenue = acc.Revenue.Add(l.Total)
			out[l.BatchID] = acc
		}
	}
	return out, nil
}
