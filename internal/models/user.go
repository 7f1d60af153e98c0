// Package models содержит доменные сущности бота новостей: пользователей,
// номера WhatsApp, темы, расписания и журнал доставок.
package models

import "time"

// Тарифы пользователя.
const (
	TierFree = "free"
	TierPaid = "paid"
)

// User представляет зарегистрированного пользователя.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	SubscriptionTier string    `json:"subscription_tier"`
	CreatedAt        time.Time `json:"created_at"`
}

// IsFree сообщает, действуют ли для пользователя ограничения бесплатного тарифа.
func (u *User) IsFree() bool {
	return u.SubscriptionTier != TierPaid
}

// WhatsAppNumber номер получателя рассылки. Рассылка идет только на подтвержденные номера.
type WhatsAppNumber struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	PhoneNumber      string     `json:"phone_number"`
	Verified         bool       `json:"verified"`
	VerificationCode string     `json:"-"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
