package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository sobre PostgreSQL (usable con pool o tx).
// Los métodos ForUpdate solo bloquean dentro de una transacción.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `id, lot_code, product_id, branch_id, quantity, cost_price, selling_price,
	expiry_date, purchase_date, version, created_at, updated_at`

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(
		&b.ID, &b.LotCode, &b.ProductID, &b.BranchID, &b.Quantity, &b.CostPrice, &b.SellingPrice,
		&b.ExpiryDate, &b.PurchaseDate, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return b, nil
}

func (r *BatchRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()
	var out []*entity.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetByID obtiene un lote por ID; nil, nil si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	return r.getOne(ctx, "get batch", `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id)
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.getOne(ctx, "get batch for update", `SELECT `+batchColumns+` FROM batches WHERE id = $1 FOR UPDATE`, id)
}

// ListByProductAndBranch lotes de un producto en una sucursal, agotados incluidos.
func (r *BatchRepo) ListByProductAndBranch(ctx context.Context, productID, branchID string) ([]*entity.Batch, error) {
	return r.list(ctx, "list batches by product",
		`SELECT `+batchColumns+` FROM batches WHERE product_id = $1 AND branch_id = $2 ORDER BY seq`,
		productID, branchID)
}

// ListByBranch lotes de la sucursal; branchID vacío devuelve todos.
func (r *BatchRepo) ListByBranch(ctx context.Context, branchID string) ([]*entity.Batch, error) {
	if branchID == "" {
		return r.list(ctx, "list batches", `SELECT `+batchColumns+` FROM batches ORDER BY seq`)
	}
	return r.list(ctx, "list batches by branch",
		`SELECT `+batchColumns+` FROM batches WHERE branch_id = $1 ORDER BY seq`, branchID)
}

// FindLotForUpdate toma un advisory lock transaccional sobre (sucursal, producto, lote)
// para serializar a quienes crean el mismo lote destino, y luego bloquea la fila si existe.
func (r *BatchRepo) FindLotForUpdate(ctx context.Context, branchID, productID, lotCode string) (*entity.Batch, error) {
	key := "lot:" + branchID + "|" + productID + "|" + lotCode
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return nil, mapError("lock lot", err)
	}
	return r.getOne(ctx, "find lot for update",
		`SELECT `+batchColumns+` FROM batches
		 WHERE branch_id = $1 AND product_id = $2 AND lot_code = $3
		 ORDER BY seq LIMIT 1 FOR UPDATE`,
		branchID, productID, lotCode)
}

// Create inserta el lote. Sin ID toma el siguiente de batch_seq; con ID explícito
// adelanta la secuencia para no repetirlo.
func (r *BatchRepo) Create(ctx context.Context, batch *entity.Batch) error {
	now := time.Now()
	if batch.ID == "" {
		var seq int64
		if err := r.q.QueryRow(ctx, `SELECT nextval('batch_seq')`).Scan(&seq); err != nil {
			return mapError("next batch id", err)
		}
		batch.ID = entity.FormatBatchID(now.Year(), seq)
	} else if n := batchSeqOf(batch.ID); n > 0 {
		if _, err := r.q.Exec(ctx,
			`SELECT setval('batch_seq', GREATEST($1, (SELECT last_value FROM batch_seq)))`, n); err != nil {
			return mapError("advance batch_seq", err)
		}
	}
	if batch.LotCode == "" {
		batch.LotCode = batch.ID
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now
	batch.Version = 1

	_, err := r.q.Exec(ctx, `
		INSERT INTO batches (id, lot_code, product_id, branch_id, quantity, cost_price, selling_price,
			expiry_date, purchase_date, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		batch.ID, batch.LotCode, batch.ProductID, batch.BranchID, batch.Quantity, batch.CostPrice,
		batch.SellingPrice, batch.ExpiryDate, batch.PurchaseDate, batch.Version, batch.CreatedAt, batch.UpdatedAt,
	)
	if err != nil {
		return mapError(fmt.Sprintf("insert batch %s", batch.ID), err)
	}
	return nil
}

// UpdateQuantity escribe la cantidad si la versión coincide e incrementa batch.Version.
func (r *BatchRepo) UpdateQuantity(ctx context.Context, batch *entity.Batch) error {
	if batch.Quantity < 0 {
		return &domain.InsufficientStockError{BatchID: batch.ID, Available: 0, Requested: -batch.Quantity}
	}
	var version int64
	var updatedAt time.Time
	err := r.q.QueryRow(ctx, `
		UPDATE batches SET quantity = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3
		RETURNING version, updated_at`,
		batch.ID, batch.Quantity, batch.Version,
	).Scan(&version, &updatedAt)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return mapError("update batch quantity", err)
		}
		cur, getErr := r.GetByID(ctx, batch.ID)
		if getErr != nil {
			return getErr
		}
		if cur == nil {
			return fmt.Errorf("lote %s: %w", batch.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("lote %s: %w", batch.ID, domain.ErrConflict)
	}
	batch.Version = version
	batch.UpdatedAt = updatedAt
	return nil
}
