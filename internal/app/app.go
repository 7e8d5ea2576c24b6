package app

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/sergeii/go-url-shortener/allocator"
	"github.com/sergeii/go-url-shortener/pkg/background"
	"github.com/sergeii/go-url-shortener/pkg/url/alphabet"
	"github.com/sergeii/go-url-shortener/pkg/url/shortener"
	"github.com/sergeii/go-url-shortener/storage"
)

type Config struct {
	BaseURL               *url.URL      `env:"BASE_URL"`
	ServerAddress         string        `env:"SERVER_ADDRESS" envDefault:"localhost:8080"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	FileStoragePath       string        `env:"FILE_STORAGE_PATH"`
	CounterFilePath       string        `env:"COUNTER_FILE_PATH"`
	DatabaseDSN           string        `env:"DATABASE_DSN"`
	DatabaseQueryTimeout  time.Duration `env:"DATABASE_QUERY_TIMEOUT" envDefault:"5s"`
	CounterSequence       string        `env:"COUNTER_SEQUENCE" envDefault:"url_id"`
	SecretKey             string        `env:"SECRET_KEY"`
	TokenAlphabet         string        `env:"TOKEN_ALPHABET" envDefault:"0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"` // nolint:lll
	TokenOffset           uint64        `env:"TOKEN_OFFSET" envDefault:"14000000"`
	MinTokenLength        int           `env:"MIN_TOKEN_LENGTH"`
	HitWorkers            int           `env:"HIT_WORKERS" envDefault:"4"`
	HitJobTimeout         time.Duration `env:"HIT_JOB_TIMEOUT" envDefault:"5s"`
	HitEnqueueTimeout     time.Duration `env:"HIT_ENQUEUE_TIMEOUT" envDefault:"100ms"`
}

type App struct {
	Config    *Config
	Storage   storage.URLStorer
	Allocator allocator.IDAllocator
	Shortener *shortener.Generator
	Pool      *background.Pool
	DB        *pgxpool.Pool
	closeOnce sync.Once
}

type Override func(*Config) error

func New(overrides ...Override) (*App, error) {
	var cfg Config
	// Получаем настройки приложения из environment-переменных
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	// даем возможность переопределить настройки, например в тестах или при использовании флагов
	for _, override := range overrides {
		if err := override(&cfg); err != nil {
			return nil, err
		}
	}

	// Алфавит считаем первым: без секретного ключа запускаться нет смысла
	tokenAlphabet, err := configureAlphabet(&cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to configure token alphabet due to %w", err)
	}

	app := &App{Config: &cfg}
	if err := app.configure(tokenAlphabet); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) configure(tokenAlphabet *alphabet.Alphabet) error {
	var err error
	cfg := app.Config

	if app.DB, err = configureDatabase(cfg); err != nil {
		return fmt.Errorf("unable to configure database due to %w", err)
	}
	// присваиваем только при успехе, иначе Close получит интерфейс с nil-указателем внутри
	store, err := configureStorage(cfg, app.DB)
	if err != nil {
		return fmt.Errorf("unable to configure storage due to %w", err)
	}
	app.Storage = store
	idAllocator, err := configureAllocator(cfg, app.DB)
	if err != nil {
		return fmt.Errorf("unable to configure identifier allocator due to %w", err)
	}
	app.Allocator = idAllocator
	app.Shortener, err = shortener.New(
		app.Allocator, tokenAlphabet,
		shortener.WithOffset(cfg.TokenOffset),
		shortener.WithMinLength(cfg.MinTokenLength),
	)
	if err != nil {
		return fmt.Errorf("unable to configure token generator due to %w", err)
	}
	app.Pool = background.NewPool(background.PoolConfig{
		Concurrency:   cfg.HitWorkers,
		DoJobTimeout:  cfg.HitJobTimeout,
		AddJobTimeout: cfg.HitEnqueueTimeout,
	})
	return nil
}

// Close освобождает ресурсы приложения. Повторные вызовы ничего не делают
func (app *App) Close() {
	app.closeOnce.Do(app.close)
}

func (app *App) close() {
	if app.Pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), app.Config.ServerShutdownTimeout)
		defer cancel()
		if err := app.Pool.Close(ctx); err != nil {
			log.Printf("failed to finish background jobs due to %s; some hits are lost", err)
		}
	}
	if app.Storage != nil {
		if err := app.Storage.Close(); err != nil {
			log.Printf("failed to close storage %T due to %s; possible data loss", app.Storage, err)
		}
	}
	if app.Allocator != nil {
		if err := app.Allocator.Close(); err != nil {
			log.Printf("failed to close allocator %T due to %s", app.Allocator, err)
		}
	}
	if app.DB != nil {
		app.DB.Close()
	}
}

// configureAlphabet проверяет заданный в настройках алфавит
// и перемешивает его с помощью секретного ключа сервиса.
// Ключ берется как есть, в виде байт строки; все инстансы сервиса должны использовать один и тот же ключ
func configureAlphabet(cfg *Config) (*alphabet.Alphabet, error) {
	canonical, err := alphabet.New(cfg.TokenAlphabet)
	if err != nil {
		return nil, err
	}
	return alphabet.Permute([]byte(cfg.SecretKey), canonical)
}

func configureDatabase(cfg *Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseDSN == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DatabaseQueryTimeout)
	defer cancel()
	return pgxpool.Connect(ctx, cfg.DatabaseDSN)
}

// configureStorage инициализирует тип хранилища
// в зависимости от настроек сервиса, заданных переменными окружения
func configureStorage(cfg *Config, db *pgxpool.Pool) (storage.URLStorer, error) {
	if db != nil {
		return storage.NewDatabaseURLStorerBackend(db, cfg.DatabaseQueryTimeout)
	}
	if cfg.FileStoragePath != "" {
		return storage.NewFileURLStorerBackend(cfg.FileStoragePath)
	}
	return storage.NewLocmemURLStorerBackend(), nil
}

// configureAllocator выбирает источник идентификаторов.
// Счетчик обязан переживать перезапуск, если его переживают сами ссылки,
// иначе новые токены совпадут с уже выданными. Поэтому для файлового хранилища
// счетчик по умолчанию лежит рядом с ним
func configureAllocator(cfg *Config, db *pgxpool.Pool) (allocator.IDAllocator, error) {
	if db != nil {
		return allocator.NewDatabaseAllocatorBackend(db, cfg.CounterSequence, cfg.DatabaseQueryTimeout)
	}
	counterPath := cfg.CounterFilePath
	if counterPath == "" && cfg.FileStoragePath != "" {
		counterPath = cfg.FileStoragePath + ".counter"
	}
	if counterPath != "" {
		return allocator.NewFileAllocatorBackend(counterPath)
	}
	return allocator.NewLocmemAllocatorBackend(0), nil
}
