// Package create реализует HTTP-обработчик создания клиента.
//
// Handler декодирует JSON, валидирует поля и передаёт запрос сервису.
// Запись клиента считается успешной независимо от результата генерации
// документа и отправки уведомления: их итог возвращается в side_effects.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/package-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/package-tracker/internal/http/response"
	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/package-tracker/internal/models"
	services "github.com/magabrotheeeer/package-tracker/internal/services/clients"
)

// Service описывает создание клиента.
type Service interface {
	Create(ctx context.Context, ownerID string, req models.DummyClient) (*services.Result, error)
}

// Handler обрабатывает POST /clients.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.create"

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

	var req models.DummyClient
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	res, err := h.service.Create(r.Context(), ownerID, req)
	if err != nil {
		log.Error("failed to create client", sl.Err(err))
		response.WriteError(w, r, err, "could not create client")
		return
	}

	log.Info("client created", slog.String("client_id", res.Client.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}
