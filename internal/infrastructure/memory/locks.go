package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/inventorypro-ledger/internal/domain"
)

// keyLocks candados exclusivos por clave (un semáforo de capacidad 1 por lote o lote destino).
// Una clave sin dueño ni espera se elimina del mapa.
type keyLocks struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int // dueño + en espera
}

func newKeyLocks() *keyLocks {
	return &keyLocks{slots: make(map[string]*lockSlot)}
}

func (k *keyLocks) join(key string) *lockSlot {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[key]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *keyLocks) leaveLocked(key string, s *lockSlot) {
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// acquire espera el candado hasta timeout; vencido el plazo devuelve domain.ErrConflict.
func (k *keyLocks) acquire(ctx context.Context, key string, timeout time.Duration) error {
	s := k.join(key)
	select {
	case s.ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var err error
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
		err = fmt.Errorf("espera de bloqueo %s: %w", key, domain.ErrConflict)
	}
	k.mu.Lock()
	k.leaveLocked(key, s)
	k.mu.Unlock()
	return err
}

func (k *keyLocks) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[key]
	if !ok {
		return
	}
	<-s.ch
	k.leaveLocked(key, s)
}
