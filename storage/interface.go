package storage

import (
	"context"
	"time"
)

type BatchItem struct {
	Token   string
	LongURL string
}

type URLStats struct {
	Token     string
	LongURL   string
	Hits      int64
	CreatedAt time.Time
}

type URLStorer interface {
	Set(context.Context, string, string) error
	Get(context.Context, string) (string, error)
	SaveBatch(context.Context, []BatchItem) error
	RecordHit(context.Context, string) error
	GetStats(context.Context, string) (URLStats, error)
	Ping(context.Context) error
	Cleanup()
	Close() error
}
