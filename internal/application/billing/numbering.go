package billing

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// InvoicePrefix prefijo de los números de factura.
const InvoicePrefix = "INV-"

// NumberGenerator emite INV-<unix ms> estrictamente creciente: dos ventas en el mismo
// milisegundo reciben números consecutivos.
type NumberGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewNumberGenerator construye el generador. lastNumber es el último emitido ("" si ninguno).
func NewNumberGenerator(lastNumber string) *NumberGenerator {
	g := &NumberGenerator{now: time.Now}
	g.last = parseNumber(lastNumber)
	return g
}

// Next reserva el siguiente número.
func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.now().UnixMilli()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return fmt.Sprintf("%s%d", InvoicePrefix, n)
}

func parseNumber(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimPrefix(s, InvoicePrefix), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
