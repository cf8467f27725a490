package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
)

var _ repository.BranchRepository = (*BranchRepo)(nil)

// BranchRepo implementación de BranchRepository en memoria.
type BranchRepo struct {
	s *Store
}

// NewBranchRepository construye el repositorio.
func NewBranchRepository(s *Store) *BranchRepo {
	return &BranchRepo{s: s}
}

// Create exige ID y código únicos (el código sin distinguir mayúsculas).
func (r *BranchRepo) Create(_ context.Context, branch *entity.Branch) error {
	if branch.ID == "" {
		branch.ID = uuid.New().String()
	}
	now := r.s.now()
	if branch.CreatedAt.IsZero() {
		branch.CreatedAt = now
	}
	branch.UpdatedAt = now

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.branches[branch.ID]; dup {
		return fmt.Errorf("sucursal %s: %w", branch.ID, domain.ErrDuplicate)
	}
	for _, id := range r.s.branchIDs {
		if strings.EqualFold(r.s.branches[id].Code, branch.Code) {
			return fmt.Errorf("código %s: %w", branch.Code, domain.ErrDuplicate)
		}
	}
	r.s.branches[branch.ID] = cloneBranch(branch)
	r.s.branchIDs = append(r.s.branchIDs, branch.ID)
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *BranchRepo) GetByID(_ context.Context, id string) (*entity.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.branches[id]; ok {
		return cloneBranch(b), nil
	}
	return nil, nil
}

// GetByCode compara sin distinguir mayúsculas.
func (r *BranchRepo) GetByCode(_ context.Context, code string) (*entity.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.branchIDs {
		if b := r.s.branches[id]; strings.EqualFold(b.Code, code) {
			return cloneBranch(b), nil
		}
	}
	return nil, nil
}

// List sucursales en orden de alta.
func (r *BranchRepo) List(_ context.Context) ([]*entity.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Branch, 0, len(r.s.branchIDs))
	for _, id := range r.s.branchIDs {
		out = append(out, cloneBranch(r.s.branches[id]))
	}
	return out, nil
}
