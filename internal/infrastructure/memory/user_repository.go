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

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación de UserRepository en memoria.
type UserRepo struct {
	s *Store
}

// NewUserRepository construye el repositorio.
func NewUserRepository(s *Store) *UserRepo {
	return &UserRepo{s: s}
}

// Create exige email único sin distinguir mayúsculas.
func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.s.now()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.users[user.ID]; dup {
		return fmt.Errorf("usuario %s: %w", user.ID, domain.ErrDuplicate)
	}
	for _, id := range r.s.userIDs {
		if strings.EqualFold(r.s.users[id].Email, user.Email) {
			return fmt.Errorf("email %s: %w", user.Email, domain.ErrDuplicate)
		}
	}
	r.s.users[user.ID] = cloneUser(user)
	r.s.userIDs = append(r.s.userIDs, user.ID)
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

// GetByEmail compara sin distinguir mayúsculas.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	email = strings.TrimSpace(email)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.userIDs {
		if u := r.s.users[id]; strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

// List usuarios en orden de alta.
func (r *UserRepo) List(_ context.Context) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.s.userIDs))
	for _, id := range r.s.userIDs {
		out = append(out, cloneUser(r.s.users[id]))
	}
	return out, nil
}
