// Package read реализует HTTP-обработчик получения клиента по ID.
//
// Перед ответом статус пакета пересчитывается, поэтому клиент
// никогда не возвращается с устаревшим статусом.
package read

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
	"github.com/magabrotheeeer/package-tracker/internal/models"
)

// Service описывает чтение клиента.
type Service interface {
	Get(ctx context.Context, ownerID, id string) (*models.Client, error)
}

// Handler обрабатывает GET /clients/{id}.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики для получения клиента по ID
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.read"

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

	res, err := h.service.Get(r.Context(), ownerID, id)
	if err != nil {
		log.Error("failed to read client", sl.Err(err))
		response.WriteError(w, r, err, "could not read client")
		return
	}

	log.Info("success to read client", slog.String("client_id", res.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"client": res,
	}))
}
