package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository en memoria (directa o atada a una tx).
type BatchRepo struct {
	s  *Store
	tx *tx
}

// NewBatchRepository construye el repositorio sin transacción.
func NewBatchRepository(s *Store) *BatchRepo {
	return &BatchRepo{s: s}
}

func batchLockKey(id string) string { return "batch:" + id }

func lotLockKey(branchID, productID, lotCode string) string {
	return "lot:" + branchID + "|" + productID + "|" + lotCode
}

// get lee la versión visible para la tx: pendiente, creada en la tx o la del almacén.
func (r *BatchRepo) get(id string) *entity.Batch {
	if r.tx != nil {
		if b, ok := r.tx.batches[id]; ok {
			return b.Clone()
		}
		if b := r.tx.createdBatch(id); b != nil {
			return b.Clone()
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.batches[id]; ok {
		return b.Clone()
	}
	return nil
}

// all lista en orden de alta lo visible para la tx.
func (r *BatchRepo) all() []*entity.Batch {
	r.s.mu.RLock()
	out := make([]*entity.Batch, 0, len(r.s.batchIDs))
	for _, id := range r.s.batchIDs {
		b := r.s.batches[id]
		if r.tx != nil {
			if staged, ok := r.tx.batches[id]; ok {
				b = staged
			}
		}
		out = append(out, b.Clone())
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, b := range r.tx.created {
			out = append(out, b.Clone())
		}
	}
	return out
}

// GetByID devuelve nil, nil si no existe.
func (r *BatchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	return r.get(id), nil
}

// GetForUpdate toma el candado del lote hasta el fin de la tx. Fuera de tx equivale a GetByID.
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, batchLockKey(id)); err != nil {
			return nil, err
		}
	}
	return r.get(id), nil
}

// ListByProductAndBranch lotes de un producto en una sucursal, agotados incluidos.
func (r *BatchRepo) ListByProductAndBranch(_ context.Context, productID, branchID string) ([]*entity.Batch, error) {
	var out []*entity.Batch
	for _, b := range r.all() {
		if b.ProductID == productID && b.BranchID == branchID {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListByBranch lotes de la sucursal; branchID vacío devuelve todos.
func (r *BatchRepo) ListByBranch(_ context.Context, branchID string) ([]*entity.Batch, error) {
	all := r.all()
	if branchID == "" {
		return all, nil
	}
	var out []*entity.Batch
	for _, b := range all {
		if b.BranchID == branchID {
			out = append(out, b)
		}
	}
	return out, nil
}

// FindLotForUpdate toma el candado de la clave de destino y, si el lote existe, también el del lote.
func (r *BatchRepo) FindLotForUpdate(ctx context.Context, branchID, productID, lotCode string) (*entity.Batch, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, lotLockKey(branchID, productID, lotCode)); err != nil {
			return nil, err
		}
	}
	for _, b := range r.all() {
		if b.BranchID == branchID && b.ProductID == productID && b.Lot() == lotCode {
			return r.GetForUpdate(ctx, b.ID)
		}
	}
	return nil, nil
}

// Create asigna ID, LotCode y Version. Dentro de una tx el lote queda pendiente hasta el commit.
func (r *BatchRepo) Create(_ context.Context, batch *entity.Batch) error {
	r.s.mu.Lock()
	if batch.ID == "" {
		batch.ID = r.s.nextBatchIDLocked()
	} else {
		if _, dup := r.s.batches[batch.ID]; dup {
			r.s.mu.Unlock()
			return fmt.Errorf("lote %s: %w", batch.ID, domain.ErrDuplicate)
		}
		r.s.observeBatchIDLocked(batch.ID)
	}
	if batch.LotCode == "" {
		batch.LotCode = batch.ID
	}
	now := r.s.now()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now
	batch.Version = 1

	if r.tx != nil {
		r.s.mu.Unlock()
		r.tx.created = append(r.tx.created, batch.Clone())
		return nil
	}
	r.s.batches[batch.ID] = batch.Clone()
	r.s.batchIDs = append(r.s.batchIDs, batch.ID)
	r.s.mu.Unlock()
	return nil
}

// UpdateQuantity escribe la cantidad si la versión coincide; incrementa batch.Version.
func (r *BatchRepo) UpdateQuantity(_ context.Context, batch *entity.Batch) error {
	if batch.Quantity < 0 {
		return &domain.InsufficientStockError{BatchID: batch.ID, Available: 0, Requested: -batch.Quantity}
	}
	now := r.s.now()

	if r.tx != nil {
		if created := r.tx.createdBatch(batch.ID); created != nil {
			if created.Version != batch.Version {
				return fmt.Errorf("lote %s: %w", batch.ID, domain.ErrConflict)
			}
			created.Quantity = batch.Quantity
			created.Version++
			created.UpdatedAt = now
			batch.Version = created.Version
			batch.UpdatedAt = now
			return nil
		}
		cur := r.get(batch.ID)
		if cur == nil {
			return fmt.Errorf("lote %s: %w", batch.ID, domain.ErrNotFound)
		}
		if cur.Version != batch.Version {
			return fmt.Errorf("lote %s: %w", batch.ID, domain.ErrConflict)
		}
		if _, staged := r.tx.batches[batch.ID]; !staged {
			r.tx.baseVersion[batch.ID] = cur.Version
		}
		cur.Quantity = batch.Quantity
		cur.Version++
		cur.UpdatedAt = now
		r.tx.batches[batch.ID] = cur
		batch.Version = cur.Version
		batch.UpdatedAt = now
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.batches[batch.ID]
	if !ok {
		return fmt.Errorf("lote %s: %w", batch.ID, domain.ErrNotFound)
	}
	if cur.Version != batch.Version {
		return fmt.Errorf("lote %s: %w", batch.ID, domain.ErrConflict)
	}
	next := cur.Clone()
	next.Quantity = batch.Quantity
	next.Version++
	next.UpdatedAt = now
	r.s.batches[batch.ID] = next
	batch.Version = next.Version
	batch.UpdatedAt = now
	return nil
}
