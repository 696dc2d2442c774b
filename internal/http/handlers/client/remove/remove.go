// Package remove реализует HTTP-обработчик удаления клиента.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/package-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/package-tracker/internal/http/response"
	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
)

// Service описывает удаление клиента.
type Service interface {
	Delete(ctx context.Context, ownerID, id string) error
}

// Handler обрабатывает DELETE /clients/{id}.
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

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.remove"

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

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Error("empty id in url")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	if err := h.service.Delete(r.Context(), ownerID, id); err != nil {
		log.Error("failed to remove client", sl.Err(err))
		response.WriteError(w, r, err, "could not remove client")
		return
	}

	log.Info("client removed", slog.String("client_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted": id,
	}))
}
