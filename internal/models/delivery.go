package models

import "time"

// Статусы доставки.
const (
	DeliveryStatusSuccess = "success"
	DeliveryStatusFailed  = "failed"
)

// Источники задачи доставки.
const (
	TaskSourceHourly = "hourly"
	TaskSourceDaily  = "daily"
	TaskSourceManual = "manual"
)

// NewsDelivery неизменяемая запись журнала об одной попытке доставки.
type NewsDelivery struct {
	ID          string    `json:"id"`
	ScheduleID  string    `json:"schedule_id"`
	DeliveredAt time.Time `json:"delivered_at"`
	Status      string    `json:"status"`
	MessageSID  *string   `json:"message_sid,omitempty"`
	Content     string    `json:"content"`
}

// DeliveryTask сообщение очереди, по которому воркер запускает доставку.
type DeliveryTask struct {
	TaskID     string    `json:"task_id"`
	ScheduleID string    `json:"schedule_id"`
	Source     string    `json:"source"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// DeliveryResult итог выполнения доставки по расписанию.
type DeliveryResult struct {
	ScheduleID string  `json:"schedule_id"`
	TopicID    string  `json:"topic_id"`
	Status     string  `json:"status"`
	MessageSID *string `json:"message_sid,omitempty"`
}

// Article статья из поисковика новостей.
type Article struct {
	Title       string `json:"title"`
	SourceID    string `json:"source_id"`
	PubDate     string `json:"pubDate"`
	Link        string `json:"link"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// NewsQuery параметры поиска новостей по теме.
type NewsQuery struct {
	Keywords    string
	CountryCode string
	Language    string
}
