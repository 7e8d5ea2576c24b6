package allocator

import "context"

// IDAllocator выдает уникальные строго возрастающие идентификаторы, начиная с единицы
type IDAllocator interface {
	Allocate(context.Context) (uint64, error)
	Close() error
}
