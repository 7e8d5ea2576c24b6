package allocator_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/sergeii/go-url-shortener/allocator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocmemAllocatorIssuesIncreasingIDs(t *testing.T) {
	ctx := context.TODO()
	backend := allocator.NewLocmemAllocatorBackend(0)
	defer backend.Close()
	for want := uint64(1); want <= 100; want++ {
		id, err := backend.Allocate(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func TestLocmemAllocatorStartsAfterGivenValue(t *testing.T) {
	backend := allocator.NewLocmemAllocatorBackend(41)
	id, err := backend.Allocate(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestLocmemAllocatorIsExhausted(t *testing.T) {
	backend := allocator.NewLocmemAllocatorBackend(math.MaxUint64 - 1)
	id, err := backend.Allocate(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), id)
	_, err = backend.Allocate(context.TODO())
	assert.ErrorIs(t, err, allocator.ErrCounterExhausted)
}

func TestLocmemAllocatorRespectsCanceledContext(t *testing.T) {
	backend := allocator.NewLocmemAllocatorBackend(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := backend.Allocate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	// отмененный вызов не расходует идентификатор
	id, err := backend.Allocate(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestLocmemAllocatorConcurrentUniqueness(t *testing.T) {
	const numGoroutines = 10
	const idsPerGoroutine = 500

	backend := allocator.NewLocmemAllocatorBackend(0)
	results := make(chan uint64, numGoroutines*idsPerGoroutine)
	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				id, err := backend.Allocate(context.TODO())
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				results <- id
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]bool)
	for id := range results {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, numGoroutines*idsPerGoroutine)
}
