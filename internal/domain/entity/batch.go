package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados de un lote (no se persisten).
const (
	BatchStatusActive  = "active"
	BatchStatusExpired = "expired"
	BatchStatusSoldOut = "sold-out"
)

// Batch es una cantidad de un producto en una sucursal, adquirida en un momento dado.
// Quantity nunca es negativa. Un lote agotado no se borra: queda como registro histórico.
// Varios lotes del mismo producto pueden convivir en la sucursal con costos distintos;
// el ID es la única clave de mutación.
type Batch struct {
	ID           string
	LotCode      string // etiqueta del lote de compra; compartida por los lotes trasladados
	ProductID    string
	BranchID     string
	Quantity     int64
	CostPrice    decimal.Decimal
	SellingPrice *decimal.Decimal // precio sugerido; nil si no se definió
	ExpiryDate   *time.Time
	PurchaseDate time.Time
	Version      int64 // se incrementa en cada escritura de cantidad
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone devuelve una copia independiente (los repositorios nunca exponen su estado interno).
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	c := *b
	if b.SellingPrice != nil {
		sp := *b.SellingPrice
		c.SellingPrice = &sp
	}
	if b.ExpiryDate != nil {
		ed := *b.ExpiryDate
		c.ExpiryDate = &ed
	}
	return &c
}

// Lot devuelve la etiqueta de lote; un lote de compra es su propio lote.
func (b *Batch) Lot() string {
	if b.LotCode != "" {
		return b.LotCode
	}
	return b.ID
}

// Status deriva el estado del lote a la fecha indicada.
func (b *Batch) Status(now time.Time) string {
	if b.Quantity == 0 {
		return BatchStatusSoldOut
	}
	if b.ExpiryDate != nil && b.ExpiryDate.Before(now) {
		return BatchStatusExpired
	}
	return BatchStatusActive
}

// Value valor del lote al costo: cantidad * costo.
func (b *Batch) Value() decimal.Decimal {
	return b.CostPrice.Mul(decimal.NewFromInt(b.Quantity))
}

// FormatBatchID construye el identificador BTH-<año>-<secuencia con al menos 3 dígitos>.
func FormatBatchID(year int, seq int64) string {
	return fmt.Sprintf("BTH-%d-%03d", year, seq)
}
