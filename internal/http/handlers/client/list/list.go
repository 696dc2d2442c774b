// Package list реализует HTTP-обработчик получения клиентов владельца.
//
// Параметр status=active|expired ограничивает выборку по свежему статусу пакета.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/package-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/package-tracker/internal/http/response"
	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/package-tracker/internal/models"
)

// Service описывает выборку клиентов владельца.
type Service interface {
	ListByStatus(ctx context.Context, ownerID string, filter models.StatusFilter) ([]*models.Client, error)
}

// Handler обрабатывает GET /clients.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func parseFilter(raw string) (models.StatusFilter, bool) {
	switch f := models.StatusFilter(raw); f {
	case models.StatusAll, models.StatusActive, models.StatusExpired:
		return f, true
	default:
		return "", false
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ownerID, ok := middlewarectx.OwnerID(r.Context())
	if !ok {
		log.Error("owner id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	filter, ok := parseFilter(r.URL.Query().Get("status"))
	if !ok {
		log.Warn("invalid status filter", slog.String("status", r.URL.Query().Get("status")))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("status must be one of: active, expired"))
		return
	}

	res, err := h.service.ListByStatus(r.Context(), ownerID, filter)
	if err != nil {
		log.Error("failed to list clients", sl.Err(err))
		response.WriteError(w, r, err, "could not list clients")
		return
	}
	if res == nil {
		res = []*models.Client{}
	}

	log.Info("success to list clients", slog.Int("count", len(res)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"clients": res,
	}))
}
