package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, number, date, branch_id, customer_name, sales_rep, subtotal, discount, tax, total, created_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.Date, &inv.BranchID, &inv.CustomerName, &inv.SalesRep,
		&inv.Subtotal, &inv.Discount, &inv.Tax, &inv.Total, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create persiste la cabecera y sus líneas.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO invoices (id, number, date, branch_id, customer_name, sales_rep, subtotal, discount, tax, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		invoice.ID, invoice.Number, invoice.Date, invoice.BranchID, invoice.CustomerName, invoice.SalesRep,
		invoice.Subtotal, invoice.Discount, invoice.Tax, invoice.Total, invoice.CreatedAt,
	)
	if err != nil {
		return mapError(fmt.Sprintf("insert invoice %s", invoice.Number), err)
	}
	for i := range invoice.Lines {
		l := &invoice.Lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.InvoiceID = invoice.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO invoice_lines (id, invoice_id, position, product_id, product_name, sku, batch_id, quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			l.ID, l.InvoiceID, l.Position, l.ProductID, l.ProductName, l.SKU, l.BatchID, l.Quantity, l.UnitPrice, l.Total,
		)
		if err != nil {
			return mapError("insert invoice line", err)
		}
	}
	return nil
}

// GetByID obtiene una factura completa; nil, nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get invoice", err)
	}
	if err := r.loadLines(ctx, []*entity.Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

// List filtra y devuelve las más recientes primero, con sus líneas.
func (r *InvoiceRepo) List(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.BranchID != "" {
		add("branch_id = $%d", f.BranchID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("(customer_name ILIKE '%%' || $%[1]d || '%%' OR number ILIKE '%%' || $%[1]d || '%%')", s)
	}
	if f.From != nil {
		add("date >= $%d", *f.From)
	}
	if f.To != nil {
		add("date <= $%d", *f.To)
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, number DESC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list invoices", err)
	}
	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, mapError("scan invoice", err)
		}
		out = append(out, inv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError("list invoices", err)
	}
	if err := r.loadLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadLines carga las líneas de todas las facturas en una sola consulta.
func (r *InvoiceRepo) loadLines(ctx context.Context, invoices []*entity.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]string, 0, len(invoices))
	byID := make(map[string]*entity.Invoice, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
		byID[inv.ID] = inv
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, position, product_id, product_name, sku, batch_id, quantity, unit_price, total
		FROM invoice_lines WHERE invoice_id = ANY($1) ORDER BY invoice_id, position`, ids)
	if err != nil {
		return mapError("list invoice lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Position, &l.ProductID, &l.ProductName, &l.SKU,
			&l.BatchID, &l.Quantity, &l.UnitPrice, &l.Total); err != nil {
			return mapError("scan invoice line", err)
		}
		inv := byID[l.InvoiceID]
		inv.Lines = append(inv.Lines, l)
	}
	return rows.Err()
}

// LastNumber número de la última factura emitida ("" si no hay).
func (r *InvoiceRepo) LastNumber(ctx context.Context) (string, error) {
	var number string
	err := r.q.QueryRow(ctx, `SELECT number FROM invoices ORDER BY length(number) DESC, number DESC LIMIT 1`).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", mapError("last invoice number", err)
	}
	return number, nil
}

// SalesByBatch agrega cantidades e ingresos vendidos por lote.
func (r *InvoiceRepo) SalesByBatch(ctx context.Context) (map[string]repository.BatchSales, error) {
	rows, err := r.q.Query(ctx, `
		SELECT batch_id, COALESCE(SUM(quantity), 0), COALESCE(SUM(total), 0)
		FROM invoice_lines GROUP BY batch_id`)
	if err != nil {
		return nil, mapError("sales by batch", err)
	}
	defer rows.Close()
	out := make(map[string]repository.BatchSales)
	for rows.Next() {
		var (
			batchID string
			qty     int64
			revenue decimal.Decimal
		)
		if err := rows.Scan(&batchID, &qty, &revenue); err != nil {
			return nil, mapError("scan sales by batch", err)
		}
		out[batchID] = repository.BatchSales{Quantity: qty, Revenue: revenue}
	}
	return out, rows.Err()
}
