package repository

import (
	"context"

	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
)

// BranchRepository define el puerto de persistencia para Branch (DIP).
type BranchRepository interface {
	Create(ctx context.Context, branch *entity.Branch) error
	GetByID(ctx context.Context, id string) (*entity.Branch, error)
	// GetByCode compara sin distinguir mayúsculas.
	GetByCode(ctx context.Context, code string) (*entity.Branch, error)
	List(ctx context.Context) ([]*entity.Branch, error)
}
