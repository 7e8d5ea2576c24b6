package jobs

import (
	"context"

	"github.com/sergeii/go-url-shortener/pkg/background"
	"github.com/sergeii/go-url-shortener/storage"
)

// RecordHit увеличивает счетчик переходов по короткой ссылке.
// Выполняется в фоне, чтобы не задерживать редирект
func RecordHit(store storage.URLStorer, token string) background.Job {
	return background.NewJob("record hit", func(ctx context.Context) error {
		return store.RecordHit(ctx, token)
	})
}
