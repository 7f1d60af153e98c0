// Package mongostore реализует то же хранилище, что и repository, поверх MongoDB.
//
// Каждая сущность лежит в своей коллекции, идентификаторы ObjectID отдаются
// наружу hex-строкой, ссылки между документами хранятся строками.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Названия коллекций.
const (
	collUsers      = "users"
	collNumbers    = "whatsapp_numbers"
	collTopics     = "topics"
	collSchedules  = "schedules"
	collDeliveries = "news_deliveries"
)

// Storage хранилище поверх базы MongoDB.
type Storage struct {
	client *mongo.Client
	db     *mongo.Database
}

// New подключается к MongoDB, проверяет соединение и создает индексы.
func New(ctx context.Context, uri, database string) (*Storage, error) {
	const op = "storage.mongostore.New"

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s := &Storage{client: client, db: client.Database(database)}

	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collNumbers: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "verified", Value: 1}}},
		},
		collTopics: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		collSchedules: {
			{Keys: bson.D{{Key: "topic_id", Value: 1}}},
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "frequency", Value: 1}}},
		},
		collDeliveries: {
			{Keys: bson.D{{Key: "schedule_id", Value: 1}, {Key: "delivered_at", Value: -1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Ping проверяет доступность primary-узла.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close закрывает соединение с кластером.
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// objectID разбирает hex-идентификатор. Некорректный id не может существовать, поэтому ErrNotFound.
func objectID(op, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s: id %q: %w", op, id, models.ErrNotFound)
	}
	return oid, nil
}

func insertedID(op string, res *mongo.InsertOneResult) (string, error) {
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%s: unexpected inserted id type %T", op, res.InsertedID)
	}
	return oid.Hex(), nil
}

func mapErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, models.ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func matched(op string, n int64) error {
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

func findAll[D any, M any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions, conv func(D) *M) ([]*M, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*M, 0, len(docs))
	for _, d := range docs {
		out = append(out, conv(d))
	}
	return out, nil
}
