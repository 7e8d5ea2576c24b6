package allocator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
)

const DefaultSequenceName = "url_id"

// DatabaseAllocatorBackend выдает идентификаторы из последовательности PostgreSQL.
// nextval атомарен и никогда не повторяет значения, поэтому бэкенд годится
// для нескольких инстансов сервиса, работающих с одной базой
type DatabaseAllocatorBackend struct {
	DB       *pgxpool.Pool
	sequence string
	timeout  time.Duration
}

func NewDatabaseAllocatorBackend(db *pgxpool.Pool, sequence string, timeout time.Duration) (*DatabaseAllocatorBackend, error) {
	if sequence == "" {
		sequence = DefaultSequenceName
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	// имя последовательности приходит из настроек, поэтому экранируем его как идентификатор
	quoted := pq.QuoteIdentifier(sequence)
	initSQL := fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s AS BIGINT MINVALUE 1 START WITH 1 NO CYCLE", quoted)
	if _, err := db.Exec(ctx, initSQL); err != nil {
		return nil, err
	}
	return &DatabaseAllocatorBackend{DB: db, sequence: quoted, timeout: timeout}, nil
}

func (backend *DatabaseAllocatorBackend) Allocate(ctx context.Context) (uint64, error) {
	var id int64
	ctx, cancel := context.WithTimeout(ctx, backend.timeout)
	defer cancel()
	if err := backend.DB.QueryRow(ctx, "SELECT nextval($1::regclass)", backend.sequence).Scan(&id); err != nil {
		return 0, err
	}
	if id < 1 {
		return 0, fmt.Errorf("sequence %s returned invalid value %d", backend.sequence, id)
	}
	return uint64(id), nil
}

// Reset возвращает последовательность в начальное состояние
// Метод предназначен только для вызовов в тестах
func (backend *DatabaseAllocatorBackend) Reset() {
	ctx, cancel := context.WithTimeout(context.Background(), backend.timeout)
	defer cancel()
	if _, err := backend.DB.Exec(ctx, fmt.Sprintf("ALTER SEQUENCE %s RESTART WITH 1", backend.sequence)); err != nil {
		panic(err)
	}
}

func (backend *DatabaseAllocatorBackend) Close() error {
	// соединение к бд закрывается на уровне приложения
	return nil
}
