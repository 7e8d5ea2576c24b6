package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/sergeii/go-url-shortener/internal/app"
	"github.com/sergeii/go-url-shortener/internal/router"
	"github.com/sergeii/go-url-shortener/pkg/http/server"
)

func main() {
	// .env не обязателен; переменные окружения процесса имеют приоритет
	_ = godotenv.Load()

	shortener, err := app.New(withFlags(os.Args[1:]))
	if err != nil {
		log.Fatalf("failed to configure the app due to %s", err)
	}

	srv := &http.Server{
		Addr:    shortener.Config.ServerAddress,
		Handler: router.New(shortener),
	}
	err = server.Start(
		context.Background(), srv,
		server.WithShutdownTimeout(shortener.Config.ServerShutdownTimeout),
		server.WithShutdownHook(shortener.Close),
	)
	if err != nil {
		shortener.Close()
		log.Fatal(err)
	}
}
