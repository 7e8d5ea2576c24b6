package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type DatabaseURLStorerBackend struct {
	DB      *pgxpool.Pool
	timeout time.Duration
}

const initDatabaseSQL = `
CREATE TABLE IF NOT EXISTS urls (
    token TEXT PRIMARY KEY,
    long_url TEXT NOT NULL,
    hits BIGINT NOT NULL DEFAULT 0,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    CHECK (token <> '')
);
`

const insertURLSQL = "INSERT INTO urls (token, long_url) VALUES($1, $2) ON CONFLICT DO NOTHING RETURNING token"

func NewDatabaseURLStorerBackend(db *pgxpool.Pool, timeout time.Duration) (*DatabaseURLStorerBackend, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	// при инициализации бэкенда создаем по необходимости нужные нам сущности в бд
	if _, err := db.Exec(ctx, initDatabaseSQL); err != nil {
		return nil, err
	}
	return &DatabaseURLStorerBackend{db, timeout}, nil
}

func (backend DatabaseURLStorerBackend) Set(ctx context.Context, token, longURL string) error {
	var inserted string
	ctx, cancel := context.WithTimeout(ctx, backend.timeout)
	defer cancel()
	err := backend.DB.QueryRow(ctx, insertURLSQL, token, longURL).Scan(&inserted)
	if err != nil {
		// строка не записалась из-за конфликта - такой токен уже выдан
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTokenAlreadyExists
		}
		return err
	}
	return nil
}

func (backend DatabaseURLStorerBackend) Get(ctx context.Context, token string) (string, error) {
	var longURL string

	ctx, cancel := context.WithTimeout(ctx, backend.timeout)
	defer cancel()

	err := backend.DB.QueryRow(ctx, "SELECT long_url FROM urls WHERE token = $1", token).Scan(&longURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrURLNotFound
		}
		return "", err
	}

	return longURL, nil
}

func (backend DatabaseURLStorerBackend) SaveBatch(ctx context.Context, items []BatchItem) error {
	var inserted string

	ctx, cancel := context.WithTimeout(ctx, backend.timeout)
	defer cancel()

	tx, err := backend.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func(ctx context.Context) {
		err := tx.Rollback(ctx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Printf("failed to rollback transaction due to %v", err)
		}
	}(ctx)

	if _, err := tx.Prepare(ctx, "batch", insertURLSQL); err != nil {
		return err
	}
	for _, item := range items {
		err = tx.QueryRow(ctx, "batch", item.Token, item.LongURL).Scan(&inserted)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTokenAlreadyExists
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func (backend DatabaseURLStorerBackend) RecordHit(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, backend.timeout)
	defer cancel()
	tag, err := backend.DB.Exec(ctx, "UPDATE urls SET hits = hits + 1 WHERE token = $1", token)
	if err != nil {
		log.Printf("failed to record hit for %s due to %v\n", token, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrURLNotFound
	}
	return nil
}

func (backend DatabaseURLStorerBackend) GetStats(ctx context.Context, token string) (URLStats, error) {
	stats := URLStats{Token: token}

	ctx, cancel := context.WithTimeout(ctx, backend.timeout)
	defer cancel()

	err := backend.DB.QueryRow(
		ctx, "SELECT long_url, hits, created_at FROM urls WHERE token = $1", token,
	).Scan(&stats.LongURL, &stats.Hits, &stats.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return URLStats{}, ErrURLNotFound
		}
		return URLStats{}, err
	}
	return stats, nil
}

func (backend DatabaseURLStorerBackend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, backend.timeout)
	defer cancel()
	if err := backend.DB.Ping(ctx); err != nil {
		log.Printf("failed to ping database because of %s\n", err)
		return err
	}
	return nil
}

// Cleanup отчищает таблицу с сокращенными урлами с помощью вызова TRUNCATE
// Метод предназначен только для вызовов в тестах
func (backend DatabaseURLStorerBackend) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), backend.timeout)
	defer cancel()
	if _, err := backend.DB.Exec(ctx, "TRUNCATE TABLE urls"); err != nil {
		panic(err)
	}
}

func (backend DatabaseURLStorerBackend) Close() error {
	// соединение к бд закрывается на уровне приложения
	return nil
}
