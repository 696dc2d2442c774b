// Package document реализует HTTP-обработчик выдачи последнего PDF-документа клиента.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/package-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/package-tracker/internal/http/response"
	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/package-tracker/internal/models"
)

// Service описывает поиск документа клиента.
type Service interface {
	Document(ctx context.Context, ownerID, id string) (*models.DocumentRecord, error)
}

// Handler обрабатывает GET /clients/{id}/document.
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
	const op = "handlers.client.document"

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

	doc, err := h.service.Document(r.Context(), ownerID, id)
	if err != nil {
		log.Error("failed to find document", sl.Err(err))
		response.WriteError(w, r, err, "could not load document")
		return
	}

	f, err := os.Open(doc.Path)
	if err != nil {
		log.Error("failed to open document", sl.Err(err), slog.String("path", doc.Path))
		if errors.Is(err, fs.ErrNotExist) {
			err = models.ErrNotFound
		}
		response.WriteError(w, r, err, "could not load document")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	if st, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(st.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		log.Error("failed to stream document", sl.Err(err))
		return
	}
	log.Info("document sent", slog.String("client_id", id), slog.String("file", doc.FileName))
}
