package storage

import (
	"context"
	"sync"
	"time"
)

type LocURLItem struct {
	LongURL   string
	Hits      int64
	CreatedAt time.Time
}

type LocmemURLStorerBackend struct {
	Storage map[string]LocURLItem
	mu      sync.RWMutex
}

func NewLocmemURLStorerBackend() *LocmemURLStorerBackend {
	storage := make(map[string]LocURLItem)
	return &LocmemURLStorerBackend{
		Storage: storage,
	}
}

func (backend *LocmemURLStorerBackend) Set(ctx context.Context, token, longURL string) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return setItem(backend.Storage, token, longURL)
}

func (backend *LocmemURLStorerBackend) Get(ctx context.Context, token string) (string, error) {
	backend.mu.RLock()
	defer backend.mu.RUnlock()
	item, found := backend.Storage[token]
	if !found {
		return "", ErrURLNotFound
	}
	return item.LongURL, nil
}

func (backend *LocmemURLStorerBackend) SaveBatch(ctx context.Context, items []BatchItem) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return saveItems(backend.Storage, items)
}

func (backend *LocmemURLStorerBackend) RecordHit(ctx context.Context, token string) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return recordHit(backend.Storage, token)
}

func (backend *LocmemURLStorerBackend) GetStats(ctx context.Context, token string) (URLStats, error) {
	backend.mu.RLock()
	defer backend.mu.RUnlock()
	return getStats(backend.Storage, token)
}

func (backend *LocmemURLStorerBackend) Ping(ctx context.Context) error {
	return nil
}

func (backend *LocmemURLStorerBackend) Cleanup() {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	backend.Storage = make(map[string]LocURLItem)
}

func (backend *LocmemURLStorerBackend) Close() error {
	// do nothing
	return nil
}

// Функции ниже работают с мапой, общей для бэкендов в памяти и в файле.
// Вызывающий код должен держать блокировку

func setItem(items map[string]LocURLItem, token, longURL string) error {
	if _, exists := items[token]; exists {
		return ErrTokenAlreadyExists
	}
	items[token] = LocURLItem{LongURL: longURL, CreatedAt: time.Now().UTC()}
	return nil
}

func saveItems(items map[string]LocURLItem, batch []BatchItem) error {
	// Проверяем на дубли до записи, чтобы батч сохранился либо целиком, либо никак
	seen := make(map[string]bool, len(batch))
	for _, item := range batch {
		if _, exists := items[item.Token]; exists || seen[item.Token] {
			return ErrTokenAlreadyExists
		}
		seen[item.Token] = true
	}
	now := time.Now().UTC()
	for _, item := range batch {
		items[item.Token] = LocURLItem{LongURL: item.LongURL, CreatedAt: now}
	}
	return nil
}

func recordHit(items map[string]LocURLItem, token string) error {
	item, found := items[token]
	if !found {
		return ErrURLNotFound
	}
	item.Hits++
	items[token] = item
	return nil
}

func getStats(items map[string]LocURLItem, token string) (URLStats, error) {
	item, found := items[token]
	if !found {
		return URLStats{}, ErrURLNotFound
	}
	return URLStats{Token: token, LongURL: item.LongURL, Hits: item.Hits, CreatedAt: item.CreatedAt}, nil
}
