package entity

import "time"

// Categorías conocidas del catálogo (el catálogo acepta cualquier texto no vacío).
const (
	CategoryElectronics = "Electronics"
	CategoryFootwear    = "Footwear"
)

// Product representa una entrada del catálogo. Es dato de referencia: las ventas y
// los traslados nunca lo modifican.
type Product struct {
	ID          string
	Name        string
	SKU         string // código único en el catálogo
	Category    string
	Supplier    string
	Description string
	CreatedAt   time.Time
}
