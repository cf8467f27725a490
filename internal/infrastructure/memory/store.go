// Package memory implementa los puertos de persistencia en memoria del proceso.
// Es el almacenamiento por defecto: los datos no sobreviven a un reinicio.
package memory

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
)

// DefaultLockTimeout espera máxima por el bloqueo de un lote.
const DefaultLockTimeout = 2 * time.Second

// Store contiene todas las colecciones. Las lecturas devuelven copias; nadie fuera
// del paquete comparte punteros con el estado interno.
type Store struct {
	mu sync.RWMutex

	products   map[string]*entity.Product
	productIDs []string
	branches   map[string]*entity.Branch
	branchIDs  []string
	batches    map[string]*entity.Batch
	batchIDs   []string
	invoices   []*entity.Invoice
	users      map[string]*entity.User
	userIDs    []string

	batchSeq int64

	locks       *keyLocks
	lockTimeout time.Duration
	now         func() time.Time
}

// NewStore crea un almacén vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		products:    make(map[string]*entity.Product),
		branches:    make(map[string]*entity.Branch),
		batches:     make(map[string]*entity.Batch),
		users:       make(map[string]*entity.User),
		locks:       newKeyLocks(),
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// nextBatchIDLocked asigna el siguiente BTH-<año>-<seq>. Requiere s.mu tomado.
func (s *Store) nextBatchIDLocked() string {
	for {
		s.batchSeq++
		id := entity.FormatBatchID(s.now().Year(), s.batchSeq)
		if _, taken := s.batches[id]; !taken {
			return id
		}
	}
}

// observeBatchIDLocked adelanta la secuencia ante IDs explícitos (datos de demostración).
func (s *Store) observeBatchIDLocked(id string) {
	i := strings.LastIndex(id, "-")
	if i < 0 {
		return
	}
	if n, err := strconv.ParseInt(id[i+1:], 10, 64); err == nil && n > s.batchSeq {
		s.batchSeq = n
	}
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func cloneBranch(b *entity.Branch) *entity.Branch {
	c := *b
	return &c
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

func cloneInvoice(inv *entity.Invoice) *entity.Invoice {
	c := *inv
	c.Lines = append([]entity.InvoiceLine(nil), inv.Lines...)
	return &c
}
