package allocator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const fileLockRetryDelay = 10 * time.Millisecond

// FileAllocatorBackend хранит счетчик в текстовом файле на диске.
// Каждая выдача идентификатора выполняется под эксклюзивной файловой блокировкой,
// поэтому один и тот же файл могут разделять несколько процессов на одной машине
type FileAllocatorBackend struct {
	filename string
	lock     *flock.Flock
	mu       sync.Mutex
}

func NewFileAllocatorBackend(filename string) (*FileAllocatorBackend, error) {
	backend := &FileAllocatorBackend{
		filename: filename,
		lock:     flock.New(filename + ".lock"),
	}
	// проверяем, что файл со счетчиком читается, чтобы не узнать об этом на первом запросе
	current, err := backend.read()
	if err != nil {
		log.Printf("unable to read counter from %s due to %s\n", filename, err)
		return nil, err
	}
	log.Printf("counter file %s is at %d\n", filename, current)
	return backend, nil
}

func (backend *FileAllocatorBackend) Allocate(ctx context.Context) (uint64, error) {
	// flock не различает блокировки внутри одного процесса, поэтому горутины упорядочиваем сами
	backend.mu.Lock()
	defer backend.mu.Unlock()

	locked, err := backend.lock.TryLockContext(ctx, fileLockRetryDelay)
	if err != nil {
		return 0, err
	}
	if !locked {
		return 0, ErrCounterBusy
	}
	defer func() {
		if err := backend.lock.Unlock(); err != nil {
			log.Printf("failed to unlock counter %s due to %s\n", backend.filename, err)
		}
	}()

	current, err := backend.read()
	if err != nil {
		return 0, err
	}
	if current == math.MaxUint64 {
		return 0, ErrCounterExhausted
	}
	next := current + 1
	if err := backend.write(next); err != nil {
		return 0, err
	}
	return next, nil
}

func (backend *FileAllocatorBackend) Close() error {
	return backend.lock.Close()
}

func (backend *FileAllocatorBackend) read() (uint64, error) {
	data, err := os.ReadFile(backend.filename)
	if err != nil {
		// Файла нет - счетчик еще ни разу не использовался
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrCounterCorrupt, err)
	}
	return value, nil
}

// write подменяет файл целиком через rename, чтобы упавший посреди записи процесс
// не оставил после себя наполовину записанное значение.
// Данные сбрасываются на диск до rename, иначе после сбоя счетчик может откатиться назад
func (backend *FileAllocatorBackend) write(value uint64) error {
	tmpName := backend.filename + ".tmp"
	f, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(strconv.FormatUint(value, 10) + "\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, backend.filename); err != nil {
		return err
	}
	return syncDir(filepath.Dir(backend.filename))
}

// syncDir фиксирует на диске саму запись о переименовании
func syncDir(dirname string) error {
	dir, err := os.Open(dirname)
	if err != nil {
		return err
	}
	defer dir.Close()
	return dir.Sync()
}
