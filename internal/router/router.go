package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sergeii/go-url-shortener/internal/app"
	"github.com/sergeii/go-url-shortener/internal/handlers"
	"github.com/sergeii/go-url-shortener/internal/middleware"
)

func New(theApp *app.App) chi.Router {
	handler := &handlers.Handler{
		App: theApp,
	}
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.GzipSupport)
	router.Route("/", func(r chi.Router) {
		r.Post("/", handler.ShortenURL)
		r.Get("/ping", handler.Ping)
		r.Get("/{token}", handler.ExpandURL)
	})
	router.Route("/api", func(r chi.Router) {
		r.Post("/shorten", handler.APIShortenURL)
		r.Post("/shorten/batch", handler.APIShortenBatch)
		r.Get("/urls/{token}", handler.GetURLStats)
	})
	return router
}
