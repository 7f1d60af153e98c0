package models

import "time"

// Значения по умолчанию для фильтров темы.
const (
	DefaultCountryCode = "us"
	DefaultLanguage    = "en"
)

// Topic пользовательский фильтр поиска новостей.
type Topic struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Keywords    string    `json:"keywords"`
	CountryCode string    `json:"country_code"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
}

// TopicInput данные для создания темы.
type TopicInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Keywords    string `json:"keywords" validate:"required,max=255"`
	CountryCode string `json:"country_code,omitempty" validate:"omitempty,len=2"`
	Language    string `json:"language,omitempty" validate:"omitempty,len=2"`
}
