package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"sync"

	"github.com/gofrs/flock"
)

type FileURLStorerBackend struct {
	filename string
	cache    map[string]LocURLItem
	lock     *flock.Flock
	mu       sync.RWMutex
}

func NewFileURLStorerBackend(filename string) (*FileURLStorerBackend, error) {
	// Файл переписывается целиком при закрытии, поэтому два процесса с одним файлом
	// затерли бы записи друг друга. Держим блокировку все время жизни бэкенда
	lock := flock.New(filename + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		log.Printf("unable to lock %s due to %s\n", filename, err)
		return nil, err
	}
	if !locked {
		return nil, ErrStorageLocked
	}

	cache, err := loadCache(filename)
	if err != nil {
		lock.Close() // nolint: errcheck
		return nil, err
	}
	backend := FileURLStorerBackend{
		filename: filename,
		cache:    cache,
		lock:     lock,
	}
	return &backend, nil
}

// loadCache считывает с диска записи, сохраненные ранее, и заполняет ими кэш,
// с которым мы и будем работать до завершения программы
func loadCache(filename string) (map[string]LocURLItem, error) {
	cache := make(map[string]LocURLItem)
	file, err := os.OpenFile(filename, os.O_RDONLY, 0777)
	if err != nil {
		// Если файл не найден, то ничего страшного - это ожидаемое поведение при первом запуске сервиса
		if os.IsNotExist(err) {
			log.Printf("file %s not found; will start with empty Storage\n", filename)
			return cache, nil
		}
		log.Printf("error opening %s: %s\n", filename, err)
		return nil, err
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(&cache); err != nil {
		// Файл пустой - ожидаемое поведение
		if errors.Is(err, io.EOF) {
			log.Printf("file is empty %s; will start with empty Storage\n", filename)
			return make(map[string]LocURLItem), nil
		}
		log.Printf("unable to populate Storage from %s due to %s\n", filename, err)
		return nil, err
	}
	return cache, nil
}

func (backend *FileURLStorerBackend) Set(ctx context.Context, token, longURL string) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return setItem(backend.cache, token, longURL)
}

func (backend *FileURLStorerBackend) Get(ctx context.Context, token string) (string, error) {
	backend.mu.RLock()
	defer backend.mu.RUnlock()
	item, found := backend.cache[token]
	if !found {
		return "", ErrURLNotFound
	}
	return item.LongURL, nil
}

func (backend *FileURLStorerBackend) SaveBatch(ctx context.Context, items []BatchItem) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return saveItems(backend.cache, items)
}

func (backend *FileURLStorerBackend) RecordHit(ctx context.Context, token string) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return recordHit(backend.cache, token)
}

func (backend *FileURLStorerBackend) GetStats(ctx context.Context, token string) (URLStats, error) {
	backend.mu.RLock()
	defer backend.mu.RUnlock()
	return getStats(backend.cache, token)
}

func (backend *FileURLStorerBackend) Ping(ctx context.Context) error {
	return nil
}

func (backend *FileURLStorerBackend) Cleanup() {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	backend.cache = make(map[string]LocURLItem)
	if err := os.Remove(backend.filename); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			panic(err)
		}
	}
}

func (backend *FileURLStorerBackend) Close() error {
	backend.mu.RLock()
	defer backend.mu.RUnlock()
	defer func() {
		if err := backend.lock.Close(); err != nil {
			log.Printf("unable to release lock on %s due to %s\n", backend.filename, err)
		}
	}()
	// Сохраняем на диск рабочий кэш со ссылками,
	// который будет использован при следующем старте программы
	file, err := os.OpenFile(backend.filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0777)
	if err != nil {
		log.Printf("unable to open file %s for dumping Storage due to %s\n", backend.filename, err)
		return err
	}
	defer file.Close()
	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(&backend.cache); err != nil {
		log.Printf("unable to dump Storage to %s due to %s\n", backend.filename, err)
		return err
	}
	return nil
}
