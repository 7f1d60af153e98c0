package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// CreateDelivery добавляет запись в журнал доставок.
func (s *Storage) CreateDelivery(ctx context.Context, d models.NewsDelivery) (string, error) {
	const op = "storage.repository.CreateDelivery"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}
	sid, err := parseID(op, d.ScheduleID)
	if err != nil {
		return "", err
	}

	insert := psql.Insert("news_deliveries").
		Columns("schedule_id", "status", "message_sid", "content")
	values := []any{sid, d.Status, d.MessageSID, d.Content}
	if !d.DeliveredAt.IsZero() {
		insert = insert.Columns("delivered_at")
		values = append(values, d.DeliveredAt)
	}
	query, args, err := insert.Values(values...).Suffix("RETURNING id").ToSql()
	if err != nil {
		return "", mapErr(op, err)
	}

	var newID string
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&newID); err != nil {
		return "", mapErr(op, err)
	}
	return newID, nil
}

// ListDeliveries возвращает последние limit записей журнала по расписанию.
func (s *Storage) ListDeliveries(ctx context.Context, scheduleID string, limit int) ([]*models.NewsDelivery, error) {
	const op = "storage.repository.ListDeliveries"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	sid, err := parseID(op, scheduleID)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select("id", "schedule_id", "delivered_at", "status", "message_sid", "content").
		From("news_deliveries").
		Where(sq.Eq{"schedule_id": sid}).
		OrderBy("delivered_at DESC", "id DESC").
		Limit(uint64(max(limit, 0))).
		ToSql()
	if err != nil {
		return nil, mapErr(op, err)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	deliveries := []*models.NewsDelivery{}
	for rows.Next() {
		d := &models.NewsDelivery{}
		var messageSID sql.NullString
		if err := rows.Scan(&d.ID, &d.ScheduleID, &d.DeliveredAt, &d.Status, &messageSID, &d.Content); err != nil {
			return nil, mapErr(op, err)
		}
		if messageSID.Valid {
			d.MessageSID = &messageSID.String
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(op, err)
	}
	return deliveries, nil
}
