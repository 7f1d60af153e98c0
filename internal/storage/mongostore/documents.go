package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

type userDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Email            string             `bson:"email"`
	PasswordHash     string             `bson:"password_hash"`
	SubscriptionTier string             `bson:"subscription_tier"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID:               d.ID.Hex(),
		Email:            d.Email,
		PasswordHash:     d.PasswordHash,
		SubscriptionTier: d.SubscriptionTier,
		CreatedAt:        d.CreatedAt,
	}
}

type numberDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	UserID           string             `bson:"user_id"`
	PhoneNumber      string             `bson:"phone_number"`
	Verified         bool               `bson:"verified"`
	VerificationCode string             `bson:"verification_code,omitempty"`
	VerifiedAt       *time.Time         `bson:"verified_at,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
}

func (d numberDoc) model() *models.WhatsAppNumber {
	return &models.WhatsAppNumber{
		ID:               d.ID.Hex(),
		UserID:           d.UserID,
		PhoneNumber:      d.PhoneNumber,
		Verified:         d.Verified,
		VerificationCode: d.VerificationCode,
		VerifiedAt:       d.VerifiedAt,
		CreatedAt:        d.CreatedAt,
	}
}

type topicDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	Name        string             `bson:"name"`
	Keywords    string             `bson:"keywords"`
	CountryCode string             `bson:"country_code"`
	Language    string             `bson:"language"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (d topicDoc) model() *models.Topic {
	return &models.Topic{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Name:        d.Name,
		Keywords:    d.Keywords,
		CountryCode: d.CountryCode,
		Language:    d.Language,
		CreatedAt:   d.CreatedAt,
	}
}

type scheduleDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TopicID   string             `bson:"topic_id"`
	Frequency string             `bson:"frequency"`
	TimeOfDay *string            `bson:"time_of_day,omitempty"`
	Active    bool               `bson:"active"`
	LastRunAt *time.Time         `bson:"last_run_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d scheduleDoc) model() *models.Schedule {
	return &models.Schedule{
		ID:        d.ID.Hex(),
		TopicID:   d.TopicID,
		Frequency: d.Frequency,
		TimeOfDay: d.TimeOfDay,
		Active:    d.Active,
		LastRunAt: d.LastRunAt,
		CreatedAt: d.CreatedAt,
	}
}

type deliveryDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ScheduleID  string             `bson:"schedule_id"`
	DeliveredAt time.Time          `bson:"delivered_at"`
	Status      string             `bson:"status"`
	MessageSID  *string            `bson:"message_sid,omitempty"`
	Content     string             `bson:"content"`
}

func (d deliveryDoc) model() *models.NewsDelivery {
	return &models.NewsDelivery{
		ID:          d.ID.Hex(),
		ScheduleID:  d.ScheduleID,
		DeliveredAt: d.DeliveredAt,
		Status:      d.Status,
		MessageSID:  d.MessageSID,
		Content:     d.Content,
	}
}
