package models

import "time"

// Частоты расписания.
const (
	FrequencyHourly = "hourly"
	FrequencyDaily  = "daily"
)

// Schedule периодический запуск доставки для одной темы.
type Schedule struct {
	ID        string     `json:"id"`
	TopicID   string     `json:"topic_id"`
	Frequency string     `json:"frequency"`
	TimeOfDay *string    `json:"time_of_day,omitempty"`
	Active    bool       `json:"active"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ScheduleInput данные для создания расписания. TimeOfDay задается в формате HH:MM.
type ScheduleInput struct {
	TopicID   string  `json:"topic_id" validate:"required"`
	Frequency string  `json:"frequency" validate:"required,oneof=hourly daily"`
	TimeOfDay *string `json:"time_of_day,omitempty"`
}
