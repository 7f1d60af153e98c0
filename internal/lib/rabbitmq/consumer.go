package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
)

// ErrDeliveriesClosed канал доставок закрыт брокером.
var ErrDeliveriesClosed = errors.New("deliveries channel closed")

// Consumer часть *amqp.Channel, нужная для чтения очереди.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Handler обрабатывает тело сообщения. Ошибка означает, что сообщение стоит повторить.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage читает очередь queueName и обрабатывает сообщения пулом из workers горутин.
//
// Успешно обработанные сообщения подтверждаются. Сообщение с ошибкой возвращается
// в очередь один раз, повторная ошибка отбрасывает его. Функция блокируется до отмены ctx
// или закрытия канала брокером и дожидается завершения начатых обработчиков.
// Обработчики получают контекст без отмены: начатая доставка не прерывается.
func ConsumerMessage(ctx context.Context, ch Consumer, queueName string, workers int, log *slog.Logger, handler Handler) error {
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

	if workers < 1 {
		workers = 1
	}
	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	handlerCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, workers)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return fmt.Errorf("%s: %w", op, ErrDeliveriesClosed)
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				if err := d.Nack(false, true); err != nil {
					log.Error("failed to nack message", sl.Err(err))
				}
				return nil
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				process(handlerCtx, log, d, handler)
			}(d)
		case <-ctx.Done():
			log.Info("consumer stopped")
			return nil
		}
	}
}

func process(ctx context.Context, log *slog.Logger, d amqp.Delivery, handler Handler) {
	if err := handler(ctx, d.Body); err != nil {
		requeue := !d.Redelivered
		log.Warn("message handling failed",
			sl.Err(err),
			slog.Bool("requeue", requeue),
			slog.Uint64("delivery_tag", d.DeliveryTag),
		)
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
