package allocator

import (
	"context"
	"math"
	"sync/atomic"
)

// LocmemAllocatorBackend хранит счетчик в памяти процесса.
// Подходит только для единственного инстанса сервиса: после перезапуска счет начинается заново
type LocmemAllocatorBackend struct {
	counter atomic.Uint64
}

func NewLocmemAllocatorBackend(start uint64) *LocmemAllocatorBackend {
	backend := &LocmemAllocatorBackend{}
	backend.counter.Store(start)
	return backend
}

func (backend *LocmemAllocatorBackend) Allocate(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	for {
		current := backend.counter.Load()
		if current == math.MaxUint64 {
			return 0, ErrCounterExhausted
		}
		if backend.counter.CompareAndSwap(current, current+1) {
			return current + 1, nil
		}
	}
}

func (backend *LocmemAllocatorBackend) Close() error {
	// do nothing
	return nil
}
