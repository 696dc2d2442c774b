package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
)

const maxInFlight = 10

// ConsumerMessage создает потребителя сообщений из очереди RabbitMQ.
// Сообщение с ошибкой обработки возвращается в очередь один раз, повторная
// ошибка отбрасывает его.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string,
	handler func(context.Context, []byte) error, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				if !acquire(ctx, sem) {
					// сообщение вернётся в очередь для следующего потребителя
					_ = d.Nack(false, true)
					return
				}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					settle(ctx, d, d.Body, d.Redelivered, handler, log)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// acquire занимает слот обработки, false означает отмену ctx.
func acquire(ctx context.Context, sem chan struct{}) bool {
	select {
	case sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Acknowledger подтверждает или отклоняет доставку. amqp.Delivery удовлетворяет интерфейсу.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, ack Acknowledger, body []byte, redelivered bool,
	handler func(context.Context, []byte) error, log *slog.Logger) {
	if err := handler(ctx, body); err != nil {
		log.Warn("failed to handle message", slog.Bool("redelivered", redelivered), sl.Err(err))
		if nackErr := ack.Nack(false, !redelivered); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
