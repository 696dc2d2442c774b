// Package services реализует побочные действия после создания или изменения
// пакета клиента: генерацию документа и отправку его клиенту по почте.
//
// Оба шага выполняются по принципу best effort: их результат описывается
// значением StepResult и никогда не превращается в ошибку вызывающей операции.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/package-tracker/internal/models"
)

const (
	stepDocument     = "document"
	stepNotification = "notification"
)

// ErrStepTimeout шаг не уложился в отведённое время.
var ErrStepTimeout = errors.New("step timed out")

// Artifact сгенерированный файл документа.
type Artifact struct {
	Path     string // Путь к файлу на диске
	FileName string // Имя файла для пользователя
}

// Renderer генерирует документ по снимку клиента.
type Renderer interface {
	Render(ctx context.Context, client *models.Client) (Artifact, error)
}

// Notifier доставляет письмо клиенту.
type Notifier interface {
	Send(ctx context.Context, n models.Notification) error
}

// DocumentStore заменяет ссылку на документ клиента.
type DocumentStore interface {
	SetDocument(ctx context.Context, id string, doc models.DocumentRecord) error
}

// Metrics фиксирует исходы шагов.
type Metrics interface {
	IncSideEffect(step string, ok bool)
}

// StepResult результат одного шага.
type StepResult struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func success() StepResult {
	return StepResult{OK: true}
}

func failure(err error) StepResult {
	return StepResult{Reason: err.Error()}
}

func skipped(reason string) StepResult {
	return StepResult{Skipped: true, Reason: reason}
}

// Outcome итог выполнения побочных действий.
type Outcome struct {
	Document     StepResult             `json:"document"`
	Notification StepResult             `json:"notification"`
	Artifact     *models.DocumentRecord `json:"artifact,omitempty"`
}

// Config таймауты шагов.
type Config struct {
	DocumentTimeout     time.Duration
	NotificationTimeout time.Duration
}

// Pipeline выполняет генерацию документа и уведомление строго последовательно.
type Pipeline struct {
	renderer Renderer
	notifier Notifier
	store    DocumentStore
	metrics  Metrics
	cfg      Config
	now      func() time.Time
	log      *slog.Logger
}

// New создает новый экземпляр Pipeline. Зависимости передаются явно при старте процесса.
func New(renderer Renderer, notifier Notifier, store DocumentStore, metrics Metrics, cfg Config, log *slog.Logger) *Pipeline {
	return &Pipeline{
		renderer: renderer,
		notifier: notifier,
		store:    store,
		metrics:  metrics,
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

// Run генерирует документ и, только если это удалось, отправляет его клиенту.
// Уведомление использует документ, созданный в этом же вызове.
func (p *Pipeline) Run(ctx context.Context, client *models.Client) Outcome {
	const op = "services.pipeline.Run"
	log := p.log.With(slog.String("op", op), slog.String("client_id", client.ID))

	artifact, err := withTimeout(ctx, p.cfg.DocumentTimeout, func(ctx context.Context) (Artifact, error) {
		return p.renderer.Render(ctx, client)
	})
	if err != nil {
		log.Warn("document generation failed", sl.Err(err))
		p.observe(stepDocument, false)
		return Outcome{
			Document:     failure(err),
			Notification: skipped("document unavailable"),
		}
	}

	record := models.DocumentRecord{
		Path:        artifact.Path,
		FileName:    artifact.FileName,
		GeneratedAt: p.now().UTC(),
	}
	if err := p.store.SetDocument(ctx, client.ID, record); err != nil {
		log.Warn("failed to save document reference", sl.Err(err))
		p.observe(stepDocument, false)
		return Outcome{
			Document:     failure(fmt.Errorf("save document reference: %w", err)),
			Notification: skipped("document unavailable"),
		}
	}
	p.observe(stepDocument, true)
	log.Info("document generated", slog.String("file", artifact.FileName))

	out := Outcome{
		Document: success(),
		Artifact: &record,
	}

	_, err = withTimeout(ctx, p.cfg.NotificationTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.notifier.Send(ctx, buildNotification(client, artifact))
	})
	if err != nil {
		log.Warn("notification failed", sl.Err(err))
		p.observe(stepNotification, false)
		out.Notification = failure(err)
		return out
	}
	p.observe(stepNotification, true)
	log.Info("notification sent", slog.String("to", client.Email))
	out.Notification = success()
	return out
}

func (p *Pipeline) observe(step string, ok bool) {
	if p.metrics != nil {
		p.metrics.IncSideEffect(step, ok)
	}
}

func buildNotification(c *models.Client, a Artifact) models.Notification {
	body := fmt.Sprintf("Hello, %s!\n\n"+
		"Your package \"%s\" for %d days has been registered.\n"+
		"Please find your registration document attached.\n",
		c.Name, c.PackageName, c.PackageDuration)
	if c.PackageStatus != nil {
		body += fmt.Sprintf("Valid until: %s\n", c.PackageStatus.ExpiryDate.Format("January 2, 2006"))
	}

	return models.Notification{
		ClientID:       c.ID,
		To:             c.Email,
		Subject:        "Your package registration: " + c.PackageName,
		Body:           body,
		AttachmentPath: a.Path,
		AttachmentName: a.FileName,
		ContentType:    "application/pdf",
	}
}

// withTimeout выполняет fn с ограничением по времени. Если fn не уважает
// отмену контекста, результат после таймаута отбрасывается.
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := fn(ctx)
		done <- result{val: val, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrStepTimeout, ctx.Err())
	}
}
