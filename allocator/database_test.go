package allocator_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sergeii/go-url-shortener/allocator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getDatabaseAllocator(t *testing.T) *allocator.DatabaseAllocatorBackend {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		t.Skip("Skipping test because DB is not configured")
	}
	db, err := pgxpool.Connect(context.Background(), dsn)
	if err != nil {
		panic(err)
	}
	backend, err := allocator.NewDatabaseAllocatorBackend(db, "url_id_test", time.Second*5)
	if err != nil {
		panic(err)
	}
	backend.Reset()
	t.Cleanup(func() {
		backend.Reset()
		db.Close()
	})
	return backend
}

func TestDatabaseAllocatorIssuesIncreasingIDs(t *testing.T) {
	ctx := context.TODO()
	backend := getDatabaseAllocator(t)
	var prev uint64
	for i := 0; i < 10; i++ {
		id, err := backend.Allocate(ctx)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestDatabaseAllocatorStartsWithOne(t *testing.T) {
	backend := getDatabaseAllocator(t)
	id, err := backend.Allocate(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}
