package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/package-tracker/internal/models"
)

// Publisher канал, в который публикуются сообщения. *amqp.Channel удовлетворяет интерфейсу.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage сериализует message в JSON и публикует его.
func PublishMessage(ch Publisher, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// QueueNotifier передаёт уведомления отдельному процессу отправки через очередь.
// Успешная публикация считается успешным уведомлением.
type QueueNotifier struct {
	ch         Publisher
	routingKey string
}

// NewQueueNotifier создает новый экземпляр QueueNotifier.
func NewQueueNotifier(ch Publisher) *QueueNotifier {
	return &QueueNotifier{ch: ch, routingKey: PackageQueue.RoutingKey}
}

// Send публикует уведомление в обменник notifications.
func (n *QueueNotifier) Send(ctx context.Context, msg models.Notification) error {
	const op = "rabbitmq.QueueNotifier.Send"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := PublishMessage(n.ch, ExchangeName, n.routingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
