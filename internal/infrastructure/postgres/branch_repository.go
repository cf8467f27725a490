package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
)

var _ repository.BranchRepository = (*BranchRepo)(nil)

// BranchRepo implementación de BranchRepository sobre PostgreSQL.
type BranchRepo struct {
	q Querier
}

// NewBranchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBranchRepository(q Querier) *BranchRepo {
	return &BranchRepo{q: q}
}

const branchColumns = `id, name, code, location, address, manager, phone, email,
	established_date, status, created_at, updated_at`

func scanBranch(row pgx.Row) (*entity.Branch, error) {
	var b entity.Branch
	err := row.Scan(&b.ID, &b.Name, &b.Code, &b.Location, &b.Address, &b.Manager, &b.Phone, &b.Email,
		&b.EstablishedDate, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create persiste la sucursal. Código repetido (índice sobre lower(code)): domain.ErrDuplicate.
func (r *BranchRepo) Create(ctx context.Context, branch *entity.Branch) error {
	now := time.Now()
	if branch.CreatedAt.IsZero() {
		branch.CreatedAt = now
	}
	branch.UpdatedAt = now
	_, err := r.q.Exec(ctx, `
		INSERT INTO branches (id, name, code, location, address, manager, phone, email,
			established_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		branch.ID, branch.Name, branch.Code, branch.Location, branch.Address, branch.Manager,
		branch.Phone, branch.Email, branch.EstablishedDate, branch.Status, branch.CreatedAt, branch.UpdatedAt,
	)
	if err != nil {
		return mapError("insert branch", err)
	}
	return nil
}

func (r *BranchRepo) getOne(ctx context.Context, op, query string, arg string) (*entity.Branch, error) {
	b, err := scanBranch(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return b, nil
}

// GetByID obtiene una sucursal; nil, nil si no existe.
func (r *BranchRepo) GetByID(ctx context.Context, id string) (*entity.Branch, error) {
	return r.getOne(ctx, "get branch", `SELECT `+branchColumns+` FROM branches WHERE id = $1`, id)
}

// GetByCode compara sin distinguir mayúsculas.
func (r *BranchRepo) GetByCode(ctx context.Context, code string) (*entity.Branch, error) {
	return r.getOne(ctx, "get branch by code", `SELECT `+branchColumns+` FROM branches WHERE lower(code) = lower($1)`, code)
}

// List sucursales en orden de alta.
func (r *BranchRepo) List(ctx context.Context) ([]*entity.Branch, error) {
	rows, err := r.q.Query(ctx, `SELECT `+branchColumns+` FROM branches ORDER BY seq`)
	if err != nil {
		return nil, mapError("list branches", err)
	}
	defer rows.Close()
	var out []*entity.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, mapError("scan branch", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
