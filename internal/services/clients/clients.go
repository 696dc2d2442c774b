// Package services реализует операции над клиентами аккаунта: создание,
// изменение, чтение с пересчётом статуса и удаление.
//
// Запись клиента и запись в списке аккаунта не атомарны. Клиент сохраняется
// первым, а расхождение со списком аккаунта исправляется при следующем List.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/package-tracker/internal/lib/packagestatus"
	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/package-tracker/internal/models"
	lifecycle "github.com/magabrotheeeer/package-tracker/internal/services/lifecycle"
	pipeline "github.com/magabrotheeeer/package-tracker/internal/services/pipeline"
)

// ClientRepository хранилище клиентов и списков клиентов аккаунтов.
type ClientRepository interface {
	CreateClient(ctx context.Context, c models.Client) (*models.Client, error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
	FindClientByEmail(ctx context.Context, ownerID, email string) (*models.Client, error)
	ListClientsByOwner(ctx context.Context, ownerID string) ([]*models.Client, error)
	UpdateClient(ctx context.Context, c models.Client) (*models.Client, error)
	DeleteClient(ctx context.Context, id string) error
	AttachClient(ctx context.Context, accountID, clientID string) error
	DetachClient(ctx context.Context, accountID, clientID string) error
	ListMembership(ctx context.Context, accountID string) ([]string, error)
}

// Reconciler пересчитывает статусы пакетов.
type Reconciler interface {
	Now() time.Time
	Reconcile(ctx context.Context, c *models.Client) (*models.Client, bool, error)
	ReconcileAll(ctx context.Context, clients []*models.Client, limit int) ([]*models.Client, lifecycle.SweepResult)
}

// Pipeline генерирует документ и уведомляет клиента.
type Pipeline interface {
	Run(ctx context.Context, client *models.Client) pipeline.Outcome
}

// Cache описывает методы для кэширования снимков клиентов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Metrics счётчики контроллера.
type Metrics interface {
	IncClientCreated()
}

// Result итог записи клиента. Побочные действия и список аккаунта
// не влияют на успех операции и возвращаются как справочные поля.
type Result struct {
	Client            *models.Client    `json:"client"`
	SideEffects       *pipeline.Outcome `json:"side_effects,omitempty"`
	MembershipPending bool              `json:"membership_pending,omitempty"`
}

// Config параметры контроллера.
type Config struct {
	CacheTTL    time.Duration
	Concurrency int
}

// ClientService контроллер жизненного цикла клиентов.
type ClientService struct {
	repo       ClientRepository
	reconciler Reconciler
	pipeline   Pipeline
	cache      Cache
	metrics    Metrics
	cfg        Config
	log        *slog.Logger
}

// NewClientService создает новый экземпляр ClientService. cache и metrics могут быть nil.
func NewClientService(repo ClientRepository, reconciler Reconciler, sideEffects Pipeline,
	cache Cache, metrics Metrics, cfg Config, log *slog.Logger) *ClientService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &ClientService{
		repo:       repo,
		reconciler: reconciler,
		pipeline:   sideEffects,
		cache:      cache,
		metrics:    metrics,
		cfg:        cfg,
		log:        log,
	}
}

func cacheKey(id string) string {
	return "client:" + id
}

func validatePackage(name string, duration int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: package name is required", models.ErrInvalidPackage)
	}
	if duration <= 0 {
		return fmt.Errorf("%w: package duration must be a positive number of days", models.ErrInvalidPackage)
	}
	return nil
}

// Create создает клиента владельца ownerID, добавляет его в список аккаунта
// и запускает генерацию документа с уведомлением.
func (s *ClientService) Create(ctx context.Context, ownerID string, req models.DummyClient) (*Result, error) {
	const op = "services.clients.Create"
	log := s.log.With(slog.String("op", op), slog.String("owner_id", ownerID))

	if err := validatePackage(req.PackageName, req.PackageDuration); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.ensureEmailFree(ctx, ownerID, req.Email, ""); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.reconciler.Now().UTC()
	status := packagestatus.Compute(now, req.PackageDuration, now)
	client := models.Client{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		PackageName:     strings.TrimSpace(req.PackageName),
		PackageDuration: req.PackageDuration,
		PackageStart:    now,
		PackageStatus:   &status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.repo.CreateClient(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.metrics != nil {
		s.metrics.IncClientCreated()
	}
	log.Info("client created", slog.String("client_id", created.ID))

	res := &Result{Client: created}
	if err := s.repo.AttachClient(ctx, ownerID, created.ID); err != nil {
		log.Warn("failed to attach client to account, will retry on next list",
			slog.String("client_id", created.ID), sl.Err(err))
		res.MembershipPending = true
	}

	s.runSideEffects(ctx, res)
	return res, nil
}

// Update изменяет профиль и пакет клиента. При изменении длительности
// отсчёт срока начинается заново от момента изменения.
func (s *ClientService) Update(ctx context.Context, ownerID, id string, req models.DummyClientUpdate) (*Result, error) {
	const op = "services.clients.Update"
	log := s.log.With(slog.String("op", op), slog.String("client_id", id))

	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next := *current
	if req.Name != nil {
		next.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		next.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		next.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.PackageName != nil {
		next.PackageName = strings.TrimSpace(*req.PackageName)
	}
	if req.PackageDuration != nil {
		next.PackageDuration = *req.PackageDuration
	}
	if err := validatePackage(next.PackageName, next.PackageDuration); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !strings.EqualFold(next.Email, current.Email) {
		if err := s.ensureEmailFree(ctx, ownerID, next.Email, id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	now := s.reconciler.Now().UTC()
	durationChanged := next.PackageDuration != current.PackageDuration
	packageChanged := durationChanged || next.PackageName != current.PackageName
	if durationChanged {
		next.PackageStart = now
	}
	if packageChanged {
		// документ прежнего пакета не отдаётся, пока не готов новый
		next.Document = nil
	}
	status := packagestatus.Compute(next.PackageStart, next.PackageDuration, now)
	next.PackageStatus = &status
	next.UpdatedAt = now

	updated, err := s.repo.UpdateClient(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)
	log.Info("client updated", slog.Bool("package_changed", packageChanged))

	res := &Result{Client: updated}
	if packageChanged {
		s.runSideEffects(ctx, res)
	}
	return res, nil
}

// Get возвращает клиента владельца с актуальным статусом.
func (s *ClientService) Get(ctx context.Context, ownerID, id string) (*models.Client, error) {
	const op = "services.clients.Get"

	var client *models.Client
	cached := false
	if s.cache != nil {
		var c models.Client
		found, err := s.cache.Get(ctx, cacheKey(id), &c)
		if err != nil {
			s.log.Warn("cache get failed", slog.String("op", op), sl.Err(err))
		}
		if found {
			client, cached = &c, true
		}
	}
	if cached && client.PackageStatus != nil {
		// статус мог быть сохранён в обход кэша, перед записью сверяемся с хранилищем
		status := packagestatus.Compute(client.PackageStart, client.PackageDuration, s.reconciler.Now())
		if !client.PackageStatus.Equal(status) {
			client, cached = nil, false
		}
	}
	if client == nil {
		c, err := s.repo.GetClient(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		client = c
	}
	if client.OwnerID != ownerID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	fresh, changed, err := s.reconciler.Reconcile(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil && (changed || !cached) {
		if err := s.cache.Set(ctx, cacheKey(id), fresh, s.cfg.CacheTTL); err != nil {
			s.log.Warn("cache set failed", slog.String("op", op), sl.Err(err))
		}
	}
	return fresh, nil
}

// List возвращает клиентов владельца, пересчитав их статусы.
func (s *ClientService) List(ctx context.Context, ownerID string) ([]*models.Client, error) {
	return s.ListByStatus(ctx, ownerID, models.StatusAll)
}

// ListByStatus возвращает клиентов владельца, отфильтрованных по статусу
// после пересчёта. Попутно восстанавливает список клиентов аккаунта.
func (s *ClientService) ListByStatus(ctx context.Context, ownerID string, filter models.StatusFilter) ([]*models.Client, error) {
	const op = "services.clients.ListByStatus"
	log := s.log.With(slog.String("op", op), slog.String("owner_id", ownerID))

	clients, err := s.repo.ListClientsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.repairMembership(ctx, ownerID, clients)

	fresh, res := s.reconciler.ReconcileAll(ctx, clients, s.cfg.Concurrency)
	if res.Failed > 0 {
		log.Warn("some statuses were not saved", slog.Int("failed", res.Failed), sl.Err(res.Err()))
	}
	for i, c := range fresh {
		if c != clients[i] {
			s.invalidate(ctx, c.ID)
		}
	}

	now := s.reconciler.Now()
	out := make([]*models.Client, 0, len(fresh))
	for _, c := range fresh {
		// запись не удалась, вызывающий всё равно видит актуальный статус
		status := packagestatus.Compute(c.PackageStart, c.PackageDuration, now)
		if c.PackageStatus == nil || !c.PackageStatus.Equal(status) {
			copied := *c
			copied.PackageStatus = &status
			c = &copied
		}
		if filter.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Delete удаляет клиента владельца. Сначала клиент убирается из списка
// аккаунта, затем удаляется запись; если удаление не удалось, следующий
// List вернёт клиента в список.
func (s *ClientService) Delete(ctx context.Context, ownerID, id string) error {
	const op = "services.clients.Delete"

	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DetachClient(ctx, ownerID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)
	s.log.Info("client deleted", slog.String("op", op), slog.String("client_id", id))
	return nil
}

// Document возвращает последний документ клиента, если файл существует.
func (s *ClientService) Document(ctx context.Context, ownerID, id string) (*models.DocumentRecord, error) {
	const op = "services.clients.Document"

	client, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if client.Document == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if _, err := os.Stat(client.Document.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client.Document, nil
}

// owned загружает клиента и проверяет, что он принадлежит ownerID.
func (s *ClientService) owned(ctx context.Context, ownerID, id string) (*models.Client, error) {
	c, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, models.ErrForbidden
	}
	return c, nil
}

// ensureEmailFree проверяет, что у владельца нет другого клиента с таким email.
func (s *ClientService) ensureEmailFree(ctx context.Context, ownerID, email, selfID string) error {
	existing, err := s.repo.FindClientByEmail(ctx, ownerID, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return models.ErrDuplicateEmail
	}
	return nil
}

func (s *ClientService) runSideEffects(ctx context.Context, res *Result) {
	if s.pipeline == nil {
		return
	}
	outcome := s.pipeline.Run(ctx, res.Client)
	res.SideEffects = &outcome
	if outcome.Artifact != nil {
		res.Client.Document = outcome.Artifact
	}
	s.invalidate(ctx, res.Client.ID)
}

// repairMembership приводит список аккаунта в соответствие с его клиентами.
// Ошибки только логируются, исправление повторится при следующем чтении.
func (s *ClientService) repairMembership(ctx context.Context, ownerID string, clients []*models.Client) {
	const op = "services.clients.repairMembership"
	log := s.log.With(slog.String("op", op), slog.String("owner_id", ownerID))

	members, err := s.repo.ListMembership(ctx, ownerID)
	if err != nil {
		log.Warn("failed to load account membership", sl.Err(err))
		return
	}
	listed := make(map[string]struct{}, len(members))
	for _, id := range members {
		listed[id] = struct{}{}
	}

	owned := make(map[string]struct{}, len(clients))
	for _, c := range clients {
		owned[c.ID] = struct{}{}
		if _, ok := listed[c.ID]; ok {
			continue
		}
		if err := s.repo.AttachClient(ctx, ownerID, c.ID); err != nil {
			log.Warn("failed to attach client", slog.String("client_id", c.ID), sl.Err(err))
			continue
		}
		log.Info("client re-attached to account", slog.String("client_id", c.ID))
	}

	for _, id := range members {
		if _, ok := owned[id]; ok {
			continue
		}
		if err := s.repo.DetachClient(ctx, ownerID, id); err != nil {
			log.Warn("failed to detach missing client", slog.String("client_id", id), sl.Err(err))
			continue
		}
		log.Info("missing client detached from account", slog.String("client_id", id))
	}
}

func (s *ClientService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("cache invalidate failed", slog.String("client_id", id), sl.Err(err))
	}
}
