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

var byID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

// CreateSchedule сохраняет расписание. Тема должна существовать.
func (s *Storage) CreateSchedule(ctx context.Context, schedule models.Schedule) (string, error) {
	const op = "storage.mongostore.CreateSchedule"
	if _, err := s.GetTopic(ctx, schedule.TopicID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.db.Collection(collSchedules).InsertOne(ctx, scheduleDoc{
		TopicID:   schedule.TopicID,
		Frequency: schedule.Frequency,
		TimeOfDay: schedule.TimeOfDay,
		Active:    schedule.Active,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", mapErr(op, err)
	}
	return insertedID(op, res)
}

// GetSchedule возвращает расписание по ID.
func (s *Storage) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	const op = "storage.mongostore.GetSchedule"
	oid, err := objectID(op, id)
	if err != nil {
		return nil, err
	}
	var doc scheduleDoc
	if err := s.db.Collection(collSchedules).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapErr(op, err)
	}
	return doc.model(), nil
}

// CountSchedules считает расписания по темам пользователя.
func (s *Storage) CountSchedules(ctx context.Context, userID string) (int, error) {
	const op = "storage.mongostore.CountSchedules"
	topicIDs, err := s.userTopicIDs(ctx, userID)
	if err != nil {
		return 0, mapErr(op, err)
	}
	if len(topicIDs) == 0 {
		return 0, nil
	}
	n, err := s.db.Collection(collSchedules).CountDocuments(ctx, bson.M{"topic_id": bson.M{"$in": topicIDs}})
	if err != nil {
		return 0, mapErr(op, err)
	}
	return int(n), nil
}

// ListSchedules возвращает расписания по темам пользователя.
func (s *Storage) ListSchedules(ctx context.Context, userID string) ([]*models.Schedule, error) {
	const op = "storage.mongostore.ListSchedules"
	topicIDs, err := s.userTopicIDs(ctx, userID)
	if err != nil {
		return nil, mapErr(op, err)
	}
	if len(topicIDs) == 0 {
		return []*models.Schedule{}, nil
	}
	schedules, err := findAll(ctx, s.db.Collection(collSchedules), bson.M{"topic_id": bson.M{"$in": topicIDs}}, byID, scheduleDoc.model)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return schedules, nil
}

// ListActiveSchedules возвращает активные расписания с частотой frequency.
func (s *Storage) ListActiveSchedules(ctx context.Context, frequency string) ([]*models.Schedule, error) {
	const op = "storage.mongostore.ListActiveSchedules"
	schedules, err := findAll(ctx, s.db.Collection(collSchedules), bson.M{"active": true, "frequency": frequency}, byID, scheduleDoc.model)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return schedules, nil
}

// ListDueDailySchedules возвращает активные ежедневные расписания с часом hour в time_of_day.
func (s *Storage) ListDueDailySchedules(ctx context.Context, hour int) ([]*models.Schedule, error) {
	const op = "storage.mongostore.ListDueDailySchedules"
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("%s: hour %d out of range", op, hour)
	}
	filter := bson.M{
		"active":      true,
		"frequency":   models.FrequencyDaily,
		"time_of_day": primitive.Regex{Pattern: fmt.Sprintf("^%02d:", hour)},
	}
	schedules, err := findAll(ctx, s.db.Collection(collSchedules), filter, byID, scheduleDoc.model)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return schedules, nil
}

// UpdateScheduleLastRun записывает время последнего запуска.
func (s *Storage) UpdateScheduleLastRun(ctx context.Context, id string, at time.Time) error {
	return s.setSchedule(ctx, "storage.mongostore.UpdateScheduleLastRun", id, bson.M{"last_run_at": at})
}

// SetScheduleActive включает или выключает расписание.
func (s *Storage) SetScheduleActive(ctx context.Context, id string, active bool) error {
	return s.setSchedule(ctx, "storage.mongostore.SetScheduleActive", id, bson.M{"active": active})
}

func (s *Storage) setSchedule(ctx context.Context, op, id string, fields bson.M) error {
	oid, err := objectID(op, id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(collSchedules).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return mapErr(op, err)
	}
	return matched(op, res.MatchedCount)
}

// CreateDelivery добавляет запись в журнал доставок.
func (s *Storage) CreateDelivery(ctx context.Context, d models.NewsDelivery) (string, error) {
	const op = "storage.mongostore.CreateDelivery"
	deliveredAt := d.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = time.Now().UTC()
	}
	res, err := s.db.Collection(collDeliveries).InsertOne(ctx, deliveryDoc{
		ScheduleID:  d.ScheduleID,
		DeliveredAt: deliveredAt,
		Status:      d.Status,
		MessageSID:  d.MessageSID,
		Content:     d.Content,
	})
	if err != nil {
		return "", mapErr(op, err)
	}
	return insertedID(op, res)
}

// ListDeliveries возвращает последние limit записей журнала по расписанию.
func (s *Storage) ListDeliveries(ctx context.Context, scheduleID string, limit int) ([]*models.NewsDelivery, error) {
	const op = "storage.mongostore.ListDeliveries"
	if limit <= 0 {
		return []*models.NewsDelivery{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "delivered_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	deliveries, err := findAll(ctx, s.db.Collection(collDeliveries), bson.M{"schedule_id": scheduleID}, opts, deliveryDoc.model)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return deliveries, nil
}
