// gpay-mock-upi/internal/guard/memory.go
package guard

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard - запасной вариант на случай работы без Redis (и для тестов).
// Записи хранятся в карте с меткой времени; просроченные вычищаются фоновым
// жнецом и дополнительно проверяются при каждом Acquire.
type MemoryGuard struct {
	mu    sync.Mutex
	ttl   time.Duration
	locks map[string]time.Time
	stop  chan struct{}
}

func NewMemory(ttl time.Duration) *MemoryGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	g := &MemoryGuard{
		ttl:   ttl,
		locks: make(map[string]time.Time),
		stop:  make(chan struct{}),
	}
	go g.reap()
	return g
}

func (g *MemoryGuard) Acquire(ctx context.Context, paymentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if created, exists := g.locks[paymentID]; exists && time.Since(created) < g.ttl {
		return ErrDuplicate
	}
	g.locks[paymentID] = time.Now()
	return nil
}

// Close останавливает фоновую чистку.
func (g *MemoryGuard) Close() {
	close(g.stop)
}

func (g *MemoryGuard) reap() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
			g.mu.Lock()
			for id, created := range g.locks {
				if time.Since(created) >= g.ttl {
					delete(g.locks, id)
				}
			}
			g.mu.Unlock()
		}
	}
}

var _ PaymentGuard = (*MemoryGuard)(nil)
