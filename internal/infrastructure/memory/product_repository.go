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

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación de ProductRepository en memoria.
type ProductRepo struct {
	s  *Store
	tx *tx
}

// NewProductRepository construye el repositorio sin transacción.
func NewProductRepository(s *Store) *ProductRepo {
	return &ProductRepo{s: s}
}

func productBySKULocked(s *Store, sku string) *entity.Product {
	for _, id := range s.productIDs {
		if p := s.products[id]; strings.EqualFold(p.SKU, sku) {
			return p
		}
	}
	return nil
}

// Create valida SKU único. Dentro de una tx el producto queda pendiente hasta el commit.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.s.now()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.products[product.ID]; dup {
		return fmt.Errorf("producto %s: %w", product.ID, domain.ErrDuplicate)
	}
	if productBySKULocked(r.s, product.SKU) != nil {
		return fmt.Errorf("sku %s: %w", product.SKU, domain.ErrDuplicate)
	}
	if r.tx != nil {
		for _, p := range r.tx.products {
			if strings.EqualFold(p.SKU, product.SKU) {
				return fmt.Errorf("sku %s: %w", product.SKU, domain.ErrDuplicate)
			}
		}
		r.tx.products = append(r.tx.products, cloneProduct(product))
		return nil
	}
	r.s.products[product.ID] = cloneProduct(product)
	r.s.productIDs = append(r.s.productIDs, product.ID)
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	if r.tx != nil {
		for _, p := range r.tx.products {
			if p.ID == id {
				return cloneProduct(p), nil
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.products[id]; ok {
		return cloneProduct(p), nil
	}
	return nil, nil
}

// GetBySKU compara sin distinguir mayúsculas.
func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p := productBySKULocked(r.s, sku); p != nil {
		return cloneProduct(p), nil
	}
	return nil, nil
}

// List productos en orden de alta.
func (r *ProductRepo) List(_ context.Context) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Product, 0, len(r.s.productIDs))
	for _, id := range r.s.productIDs {
		out = append(out, cloneProduct(r.s.products[id]))
	}
	return out, nil
}
