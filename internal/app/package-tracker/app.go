package packagetracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/package-tracker/internal/cache"
	"github.com/magabrotheeeer/package-tracker/internal/config"
	"github.com/magabrotheeeer/package-tracker/internal/lib/document"
	"github.com/magabrotheeeer/package-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/package-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/package-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/package-tracker/internal/migrations"
	"github.com/magabrotheeeer/package-tracker/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/package-tracker/internal/services/auth"
	clientsservice "github.com/magabrotheeeer/package-tracker/internal/services/clients"
	lifecycle "github.com/magabrotheeeer/package-tracker/internal/services/lifecycle"
	pipeline "github.com/magabrotheeeer/package-tracker/internal/services/pipeline"
	schedulerservice "github.com/magabrotheeeer/package-tracker/internal/services/scheduler"
	senderservice "github.com/magabrotheeeer/package-tracker/internal/services/sender"
	"github.com/magabrotheeeer/package-tracker/internal/storage/repository"
)

const (
	// ModeSMTP отправка писем напрямую из процесса API.
	ModeSMTP = "smtp"
	// ModeQueue публикация писем в RabbitMQ для notification-sender.
	ModeQueue = "queue"

	documentTitle   = "V TRACKER"
	shutdownTimeout = 15 * time.Second
)

// App процесс HTTP API с необязательным встроенным обходом статусов.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	scheduler *schedulerservice.SchedulerService
	closers   []func() error
}

// New создает приложение: подключает хранилище, применяет миграции и собирает сервисы.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.packagetracker.New"

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("%s: jwt secret is not set", op)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger: logger,
		db:     db,
	}

	// Кэш необязателен: без Redis чтение идёт напрямую в хранилище.
	var clientCache clientsservice.Cache
	if cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis is unavailable, cache disabled", sl.Err(err))
		} else {
			app.cache = c
			clientCache = c
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	notifier, closeNotifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if closeNotifier != nil {
		app.closers = append(app.closers, closeNotifier)
	}

	reconciler := lifecycle.NewReconciler(db, logger, lifecycle.WithMetrics(m))
	renderer := document.NewRenderer(cfg.OutputDir, cfg.LogoPath, documentTitle)
	sideEffects := pipeline.New(renderer, notifier, db, m, pipeline.Config{
		DocumentTimeout:     cfg.DocumentTimeout,
		NotificationTimeout: cfg.NotificationTimeout,
	}, logger)

	clientService := clientsservice.NewClientService(db, reconciler, sideEffects, clientCache, m,
		clientsservice.Config{CacheTTL: cfg.CacheTTL, Concurrency: cfg.Sweep.Concurrency}, logger)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker)

	if cfg.Sweep.Embedded {
		app.scheduler = schedulerservice.NewSchedulerService(db, reconciler, m,
			cfg.Sweep.Schedule, cfg.Sweep.Concurrency, logger)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Clients:   clientService,
		Auth:      authService,
		Tokens:    jwtMaker,
		DB:        db,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// newNotifier выбирает способ доставки писем по notification.mode.
// Возвращённая функция освобождает соединения и может быть nil.
func newNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Notifier, func() error, error) {
	switch cfg.Mode {
	case ModeSMTP, "":
		transport := smtp.NewTransport(cfg.SMTP, logger)
		return senderservice.NewSenderService(transport, logger), nil, nil
	case ModeQueue:
		conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			return nil, nil, err
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return rabbitmq.NewQueueNotifier(ch), closeAMQP(ch, conn), nil
	default:
		return nil, nil, fmt.Errorf("unknown notification mode %q", cfg.Mode)
	}
}

func closeAMQP(ch *amqp.Channel, conn *amqp.Connection) func() error {
	return func() error {
		return errors.Join(ch.Close(), conn.Close())
	}
}

// Run запускает HTTP-сервер и ждёт отмены ctx, после чего корректно завершает работу.
func (a *App) Run(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			a.close()
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
	}
	a.close()
	return err
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
