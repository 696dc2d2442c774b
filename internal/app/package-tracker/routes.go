// Package packagetracker собирает HTTP API учёта клиентов и их пакетов.
package packagetracker

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/package-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/package-tracker/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/package-tracker/internal/http/handlers/client/create"
	"github.com/magabrotheeeer/package-tracker/internal/http/handlers/client/document"
	"github.com/magabrotheeeer/package-tracker/internal/http/handlers/client/list"
	"github.com/magabrotheeeer/package-tracker/internal/http/handlers/client/read"
	"github.com/magabrotheeeer/package-tracker/internal/http/handlers/client/remove"
	"github.com/magabrotheeeer/package-tracker/internal/http/handlers/client/update"
	"github.com/magabrotheeeer/package-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/package-tracker/internal/http/middlewarectx"
)

// ClientService операции над клиентами, доступные через API.
type ClientService interface {
	create.Service
	list.Service
	read.Service
	update.Service
	remove.Service
	document.Service
}

// AuthService регистрация и вход аккаунтов.
type AuthService interface {
	register.Service
	login.Service
}

// Deps зависимости маршрутов.
type Deps struct {
	Clients   ClientService
	Auth      AuthService
	Tokens    middlewarectx.TokenParser
	DB        health.Pinger // может быть nil
	Metrics   http.Handler  // может быть nil
	RateLimit float64
	RateBurst int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, deps.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, deps.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, deps.RateLimit, deps.RateBurst))
			r.Post("/clients", create.New(logger, deps.Clients).ServeHTTP)
			r.Get("/clients", list.New(logger, deps.Clients).ServeHTTP)
			r.Get("/clients/{id}", read.New(logger, deps.Clients).ServeHTTP)
			r.Put("/clients/{id}", update.New(logger, deps.Clients).ServeHTTP)
			r.Delete("/clients/{id}", remove.New(logger, deps.Clients).ServeHTTP)
			r.Get("/clients/{id}/document", document.New(logger, deps.Clients).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, deps.DB).ServeHTTP)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}
}
