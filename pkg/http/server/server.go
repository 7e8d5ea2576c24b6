package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 10 // seconds

type serverConfig struct {
	shutdownTimeout time.Duration
	onShutdown      []func()
}

type Option func(*serverConfig)

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(c *serverConfig) {
		c.shutdownTimeout = timeout
	}
}

// WithShutdownHook регистрирует функцию, которая вызывается после остановки сервера,
// когда все запросы уже обработаны
func WithShutdownHook(hook func()) Option {
	return func(c *serverConfig) {
		c.onShutdown = append(c.onShutdown, hook)
	}
}

// Start запускает сервер и блокируется до получения SIGINT/SIGTERM либо отмены ctx,
// после чего останавливает сервер, давая активным запросам shutdownTimeout на завершение
func Start(ctx context.Context, server *http.Server, opts ...Option) error {
	cfg := serverConfig{
		shutdownTimeout: time.Second * defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	failure := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failure <- err
		}
	}()
	log.Printf("server started at %s with shutdown timeout %s", server.Addr, cfg.shutdownTimeout)

	select {
	case err := <-failure:
		return fmt.Errorf("failed to listen and serve due to: %w", err)
	case <-ctx.Done():
		return stopGracefully(server, &cfg)
	}
}

func stopGracefully(server *http.Server, cfg *serverConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()

	log.Print("stopping the server...")
	err := server.Shutdown(ctx)
	for _, hook := range cfg.onShutdown {
		hook()
	}
	if err != nil {
		return fmt.Errorf("server shutdown failed due to: %w", err)
	}
	log.Print("stopped the server successfully")
	return nil
}
