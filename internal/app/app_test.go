package app_test

import (
	"context"
	"os"
	"path"
	"testing"

	"github.com/sergeii/go-url-shortener/allocator"
	"github.com/sergeii/go-url-shortener/internal/app"
	"github.com/sergeii/go-url-shortener/pkg/url/alphabet"
	"github.com/sergeii/go-url-shortener/pkg/url/codec"
	"github.com/sergeii/go-url-shortener/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withLocalConfig(secretKey string) app.Override {
	return func(cfg *app.Config) error {
		cfg.SecretKey = secretKey
		cfg.DatabaseDSN = ""
		cfg.FileStoragePath = ""
		cfg.CounterFilePath = ""
		return nil
	}
}

func TestNewAppWithDefaults(t *testing.T) {
	theApp, err := app.New(withLocalConfig("default_secret"))
	require.NoError(t, err)
	defer theApp.Close()

	assert.IsType(t, &storage.LocmemURLStorerBackend{}, theApp.Storage)
	assert.IsType(t, &allocator.LocmemAllocatorBackend{}, theApp.Allocator)
	assert.Equal(t, uint64(14000000), theApp.Shortener.Offset())
	assert.Equal(t, len(alphabet.Base62), theApp.Shortener.Alphabet().Len())
	assert.NotEqual(t, alphabet.Base62, theApp.Shortener.Alphabet().String())

	token, err := theApp.Shortener.Next(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, codec.Encode(14000001, theApp.Shortener.Alphabet()), token)
}

func TestNewAppSameKeySameAlphabet(t *testing.T) {
	first, err := app.New(withLocalConfig("shared"))
	require.NoError(t, err)
	defer first.Close()
	second, err := app.New(withLocalConfig("shared"))
	require.NoError(t, err)
	defer second.Close()
	other, err := app.New(withLocalConfig("not shared"))
	require.NoError(t, err)
	defer other.Close()

	assert.True(t, first.Shortener.Alphabet().Equal(second.Shortener.Alphabet()))
	assert.False(t, first.Shortener.Alphabet().Equal(other.Shortener.Alphabet()))
}

func TestNewAppRequiresValidTokenSettings(t *testing.T) {
	tests := []struct {
		name     string
		override app.Override
		wantErr  error
	}{
		{
			name: "empty secret key",
			override: func(cfg *app.Config) error {
				cfg.SecretKey = ""
				return nil
			},
			wantErr: alphabet.ErrEmptySecretKey,
		},
		{
			name: "duplicate symbols",
			override: func(cfg *app.Config) error {
				cfg.TokenAlphabet = "abcabc"
				return nil
			},
			wantErr: alphabet.ErrInvalidAlphabet,
		},
		{
			name: "alphabet too short",
			override: func(cfg *app.Config) error {
				cfg.TokenAlphabet = "a"
				return nil
			},
			wantErr: alphabet.ErrInvalidAlphabet,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theApp, err := app.New(withLocalConfig("default_secret"), tt.override)
			assert.Nil(t, theApp)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewAppMinTokenLength(t *testing.T) {
	theApp, err := app.New(withLocalConfig("default_secret"), func(cfg *app.Config) error {
		cfg.TokenOffset = 0
		cfg.MinTokenLength = 6
		return nil
	})
	require.NoError(t, err)
	defer theApp.Close()

	token, err := theApp.Shortener.Next(context.TODO())
	require.NoError(t, err)
	assert.Len(t, token, 6)
}

func TestNewAppWithFileStorageKeepsCounterNearby(t *testing.T) {
	ctx := context.TODO()
	filename := path.Join(t.TempDir(), "urls.json")
	withFile := func(cfg *app.Config) error {
		cfg.FileStoragePath = filename
		return nil
	}

	theApp, err := app.New(withLocalConfig("default_secret"), withFile)
	require.NoError(t, err)
	assert.IsType(t, &storage.FileURLStorerBackend{}, theApp.Storage)
	assert.IsType(t, &allocator.FileAllocatorBackend{}, theApp.Allocator)
	first, err := theApp.Shortener.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, theApp.Storage.Set(ctx, first, "https://go.dev/"))
	theApp.Close()

	_, err = os.Stat(filename + ".counter")
	assert.NoError(t, err)

	// после перезапуска счетчик продолжает с того же места
	theApp, err = app.New(withLocalConfig("default_secret"), withFile)
	require.NoError(t, err)
	defer theApp.Close()
	second, err := theApp.Shortener.Next(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	require.NoError(t, theApp.Storage.Set(ctx, second, "https://go.dev/"))
	URL, err := theApp.Storage.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "https://go.dev/", URL)
}

func TestNewAppFailsOnLockedFileStorage(t *testing.T) {
	filename := path.Join(t.TempDir(), "urls.json")
	withFile := func(cfg *app.Config) error {
		cfg.FileStoragePath = filename
		return nil
	}
	theApp, err := app.New(withLocalConfig("default_secret"), withFile)
	require.NoError(t, err)
	defer theApp.Close()

	other, err := app.New(withLocalConfig("default_secret"), withFile)
	assert.Nil(t, other)
	assert.ErrorIs(t, err, storage.ErrStorageLocked)
}
