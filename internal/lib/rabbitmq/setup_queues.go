package rabbitmq

// Exchange обменник, через который проходят задачи доставки.
const Exchange = "newsbot"

// Очередь задач доставки новостей.
const (
	DeliveryQueue      = "news.delivery"
	DeliveryRoutingKey = "delivery"
)

// QueueConfig очередь и ключ маршрутизации для привязки к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetDeliveryQueues возвращает очереди, которые объявляют планировщик, API и воркер.
func GetDeliveryQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: DeliveryQueue, RoutingKey: DeliveryRoutingKey},
	}
}
