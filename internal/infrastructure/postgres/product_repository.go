package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, name, sku, category, supplier, description, created_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.Supplier, &p.Description, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto. SKU repetido (índice sobre lower(sku)): domain.ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, name, sku, category, supplier, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		product.ID, product.Name, product.SKU, product.Category, product.Supplier, product.Description, product.CreatedAt,
	)
	if err != nil {
		return mapError("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID; nil, nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get product", err)
	}
	return p, nil
}

// GetBySKU compara sin distinguir mayúsculas.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE lower(sku) = lower($1)`, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get product by sku", err)
	}
	return p, nil
}

// List productos en orden de alta.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq`)
	if err != nil {
		return nil, mapError("list products", err)
	}
	defer rows.Close()
	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapError("scan product", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
