// Package sender собирает процесс, который забирает письма из RabbitMQ и отправляет их по SMTP.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/package-tracker/internal/config"
	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/package-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/package-tracker/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/package-tracker/internal/services/sender"
)

// App процесс отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет очереди.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewSenderService(transport, logger),
		logger:        logger,
	}, nil
}

// Run потребляет очередь писем до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	queue := rabbitmq.PackageQueue.QueueName
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, queue, a.senderService.HandleMessage, a.logger); err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", queue), sl.Err(err))
		return err
	}
	a.logger.Info("consuming notifications", slog.String("queue", queue))

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
