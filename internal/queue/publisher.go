// Package queue публикует задачи доставки в RabbitMQ.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Publisher сериализует публикации в один канал AMQP.
type Publisher struct {
	mu sync.Mutex
	ch rabbitmq.Channel
}

// NewPublisher создает публикатор поверх канала.
func NewPublisher(ch rabbitmq.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish ставит задачу в очередь доставки.
func (p *Publisher) Publish(ctx context.Context, task models.DeliveryTask) error {
	const op = "queue.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := rabbitmq.PublishMessage(p.ch, rabbitmq.Exchange, rabbitmq.DeliveryRoutingKey, task); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
