package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventorypro-ledger/internal/application/billing"
	"github.com/jhoicas/inventorypro-ledger/internal/application/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)
var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks con repositorios que escriben sobre una transacción en memoria.
// Las escrituras se aplican juntas al terminar fn sin error; ante error se descartan.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run inicia una transacción con repos de inventario.
func (r *TxRunner) Run(ctx context.Context, fn func(
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
) error) error {
	t := r.store.begin()
	defer t.release()

	if err := fn(&BatchRepo{s: r.store, tx: t}, &ProductRepo{s: r.store, tx: t}); err != nil {
		return err
	}
	if err := t.commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunBilling inicia una transacción con repos de inventario y facturación (para CreateSale).
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	t := r.store.begin()
	defer t.release()

	if err := fn(
		&BatchRepo{s: r.store, tx: t},
		&ProductRepo{s: r.store, tx: t},
		&InvoiceRepo{s: r.store, tx: t},
	); err != nil {
		return err
	}
	if err := t.commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// tx estado de una transacción: candados tomados y escrituras pendientes.
type tx struct {
	s *Store

	held []string
	hold map[string]bool

	batches     map[string]*entity.Batch // lotes existentes modificados
	baseVersion map[string]int64         // versión en el almacén al primer cambio
	created     []*entity.Batch
	products    []*entity.Product
	invoices    []*entity.Invoice
	done        bool
}

func (s *Store) begin() *tx {
	return &tx{
		s:           s,
		hold:        make(map[string]bool),
		batches:     make(map[string]*entity.Batch),
		baseVersion: make(map[string]int64),
	}
}

// lock toma el candado de la clave una sola vez por transacción.
func (t *tx) lock(ctx context.Context, key string) error {
	if t.hold[key] {
		return nil
	}
	if err := t.s.locks.acquire(ctx, key, t.s.lockTimeout); err != nil {
		return err
	}
	t.hold[key] = true
	t.held = append(t.held, key)
	return nil
}

// release libera los candados en orden inverso.
func (t *tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.release(t.held[i])
	}
	t.held = nil
	t.hold = map[string]bool{}
}

func (t *tx) createdBatch(id string) *entity.Batch {
	for _, b := range t.created {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// commit aplica todo o nada. Un lote modificado por fuera desde que la tx lo leyó es conflicto.
func (t *tx) commit() error {
	if t.done {
		return nil
	}
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, base := range t.baseVersion {
		cur, ok := s.batches[id]
		if !ok {
			return fmt.Errorf("lote %s: %w", id, domain.ErrNotFound)
		}
		if cur.Version != base {
			return fmt.Errorf("lote %s: %w", id, domain.ErrConflict)
		}
	}
	for _, b := range t.created {
		if _, dup := s.batches[b.ID]; dup {
			return fmt.Errorf("lote %s: %w", b.ID, domain.ErrDuplicate)
		}
	}
	for _, p := range t.products {
		if _, dup := s.products[p.ID]; dup {
			return fmt.Errorf("producto %s: %w", p.ID, domain.ErrDuplicate)
		}
		if existing := productBySKULocked(s, p.SKU); existing != nil {
			return fmt.Errorf("sku %s: %w", p.SKU, domain.ErrDuplicate)
		}
	}
	for _, inv := range t.invoices {
		for _, existing := range s.invoices {
			if existing.Number == inv.Number {
				return fmt.Errorf("factura %s: %w", inv.Number, domain.ErrDuplicate)
			}
		}
	}

	for id, b := range t.batches {
		s.batches[id] = b
	}
	for _, b := range t.created {
		s.batches[b.ID] = b
		s.batchIDs = append(s.batchIDs, b.ID)
	}
	for _, p := range t.products {
		s.products[p.ID] = p
		s.productIDs = append(s.productIDs, p.ID)
	}
	s.invoices = append(s.invoices, t.invoices...)
	t.done = true
	return nil
}
