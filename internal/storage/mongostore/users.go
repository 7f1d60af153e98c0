package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает его ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.mongostore.CreateUser"
	tier := user.SubscriptionTier
	if tier == "" {
		tier = models.TierFree
	}
	now := time.Now().UTC()
	res, err := s.db.Collection(collUsers).InsertOne(ctx, userDoc{
		Email:            user.Email,
		PasswordHash:     user.PasswordHash,
		SubscriptionTier: tier,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return "", mapErr(op, err)
	}
	return insertedID(op, res)
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.mongostore.GetUser"
	oid, err := objectID(op, id)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	if err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapErr(op, err)
	}
	return doc.model(), nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.mongostore.GetUserByEmail"
	var doc userDoc
	if err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return nil, mapErr(op, err)
	}
	return doc.model(), nil
}

// UpdateUserTier меняет тариф пользователя.
func (s *Storage) UpdateUserTier(ctx context.Context, id, tier string) error {
	const op = "storage.mongostore.UpdateUserTier"
	oid, err := objectID(op, id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(collUsers).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"subscription_tier": tier, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return mapErr(op, err)
	}
	return matched(op, res.MatchedCount)
}

// CreateNumber сохраняет неподтвержденный номер.
func (s *Storage) CreateNumber(ctx context.Context, number models.WhatsAppNumber) (string, error) {
	const op = "storage.mongostore.CreateNumber"
	res, err := s.db.Collection(collNumbers).InsertOne(ctx, numberDoc{
		UserID:           number.UserID,
		PhoneNumber:      number.PhoneNumber,
		VerificationCode: number.VerificationCode,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		return "", mapErr(op, err)
	}
	return insertedID(op, res)
}

// GetNumber возвращает номер по ID.
func (s *Storage) GetNumber(ctx context.Context, id string) (*models.WhatsAppNumber, error) {
	const op = "storage.mongostore.GetNumber"
	oid, err := objectID(op, id)
	if err != nil {
		return nil, err
	}
	var doc numberDoc
	if err := s.db.Collection(collNumbers).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapErr(op, err)
	}
	return doc.model(), nil
}

// ListNumbers возвращает номера пользователя.
func (s *Storage) ListNumbers(ctx context.Context, userID string) ([]*models.WhatsAppNumber, error) {
	const op = "storage.mongostore.ListNumbers"
	numbers, err := findAll(ctx, s.db.Collection(collNumbers), bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}), numberDoc.model)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return numbers, nil
}

// CountNumbers считает номера пользователя.
func (s *Storage) CountNumbers(ctx context.Context, userID string) (int, error) {
	const op = "storage.mongostore.CountNumbers"
	n, err := s.db.Collection(collNumbers).CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, mapErr(op, err)
	}
	return int(n), nil
}

// GetVerifiedNumber возвращает первый подтвержденный номер пользователя.
func (s *Storage) GetVerifiedNumber(ctx context.Context, userID string) (*models.WhatsAppNumber, error) {
	const op = "storage.mongostore.GetVerifiedNumber"
	var doc numberDoc
	err := s.db.Collection(collNumbers).FindOne(ctx,
		bson.M{"user_id": userID, "verified": true},
		options.FindOne().SetSort(bson.D{{Key: "verified_at", Value: 1}, {Key: "_id", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return doc.model(), nil
}

// MarkNumberVerified помечает номер подтвержденным.
func (s *Storage) MarkNumberVerified(ctx context.Context, id string, at time.Time) error {
	const op = "storage.mongostore.MarkNumberVerified"
	oid, err := objectID(op, id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(collNumbers).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"verified": true, "verified_at": at}},
	)
	if err != nil {
		return mapErr(op, err)
	}
	return matched(op, res.MatchedCount)
}

// DeleteNumber удаляет номер.
func (s *Storage) DeleteNumber(ctx context.Context, id string) error {
	const op = "storage.mongostore.DeleteNumber"
	oid, err := objectID(op, id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(collNumbers).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapErr(op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
