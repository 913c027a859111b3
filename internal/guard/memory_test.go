package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuard_AcquireAndDuplicate(t *testing.T) {
	g := NewMemory(DefaultTTL)
	defer g.Close()

	require.NoError(t, g.Acquire(context.Background(), "p1"))
	assert.ErrorIs(t, g.Acquire(context.Background(), "p1"), ErrDuplicate)

	// Другой paymentId не затронут.
	require.NoError(t, g.Acquire(context.Background(), "p2"))
}

func TestMemoryGuard_ExpiresAfterTTL(t *testing.T) {
	g := NewMemory(50 * time.Millisecond)
	defer g.Close()

	require.NoError(t, g.Acquire(context.Background(), "p1"))
	assert.ErrorIs(t, g.Acquire(context.Background(), "p1"), ErrDuplicate)

	// После истечения окна тот же идентификатор снова свободен - записи
	// не освобождаются явно, только по времени.
	time.Sleep(80 * time.Millisecond)
	assert.NoError(t, g.Acquire(context.Background(), "p1"))
}

func TestMemoryGuard_ConcurrentSingleWinner(t *testing.T) {
	g := NewMemory(DefaultTTL)
	defer g.Close()

	const n = 32
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- g.Acquire(context.Background(), "contested")
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrDuplicate)
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
}
