package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// CreateTopic сохраняет тему и возвращает ее ID.
func (s *Storage) CreateTopic(ctx context.Context, topic models.Topic) (string, error) {
	const op = "storage.mongostore.CreateTopic"
	res, err := s.db.Collection(collTopics).InsertOne(ctx, topicDoc{
		UserID:      topic.UserID,
		Name:        topic.Name,
		Keywords:    topic.Keywords,
		CountryCode: topic.CountryCode,
		Language:    topic.Language,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return "", mapErr(op, err)
	}
	return insertedID(op, res)
}

// GetTopic возвращает тему по ID.
func (s *Storage) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	const op = "storage.mongostore.GetTopic"
	oid, err := objectID(op, id)
	if err != nil {
		return nil, err
	}
	var doc topicDoc
	if err := s.db.Collection(collTopics).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapErr(op, err)
	}
	return doc.model(), nil
}

// ListTopics возвращает страницу тем пользователя.
func (s *Storage) ListTopics(ctx context.Context, userID string, skip, limit int) ([]*models.Topic, error) {
	const op = "storage.mongostore.ListTopics"
	if limit <= 0 {
		return []*models.Topic{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(max(skip, 0))).
		SetLimit(int64(limit))
	topics, err := findAll(ctx, s.db.Collection(collTopics), bson.M{"user_id": userID}, opts, topicDoc.model)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return topics, nil
}

// CountTopics считает темы пользователя.
func (s *Storage) CountTopics(ctx context.Context, userID string) (int, error) {
	const op = "storage.mongostore.CountTopics"
	n, err := s.db.Collection(collTopics).CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, mapErr(op, err)
	}
	return int(n), nil
}

// DeleteTopic удаляет тему, ее расписания и их журнал доставок.
func (s *Storage) DeleteTopic(ctx context.Context, id string) error {
	const op = "storage.mongostore.DeleteTopic"
	oid, err := objectID(op, id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(collTopics).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapErr(op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	schedules, err := findAll(ctx, s.db.Collection(collSchedules), bson.M{"topic_id": id}, nil, scheduleDoc.model)
	if err != nil {
		return mapErr(op, err)
	}
	scheduleIDs := make([]string, 0, len(schedules))
	for _, sc := range schedules {
		scheduleIDs = append(scheduleIDs, sc.ID)
	}
	if len(scheduleIDs) > 0 {
		if _, err := s.db.Collection(collDeliveries).DeleteMany(ctx, bson.M{"schedule_id": bson.M{"$in": scheduleIDs}}); err != nil {
			return mapErr(op, err)
		}
	}
	if _, err := s.db.Collection(collSchedules).DeleteMany(ctx, bson.M{"topic_id": id}); err != nil {
		return mapErr(op, err)
	}
	return nil
}

// userTopicIDs возвращает hex-идентификаторы всех тем пользователя.
func (s *Storage) userTopicIDs(ctx context.Context, userID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.db.Collection(collTopics).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}
