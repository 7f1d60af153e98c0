package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

var topicColumns = []string{"id", "user_id", "name", "keywords", "country_code", "language", "created_at"}

func scanTopic(row scanner) (*models.Topic, error) {
	t := &models.Topic{}
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Keywords, &t.CountryCode, &t.Language, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTopic сохраняет тему и возвращает ее ID.
func (s *Storage) CreateTopic(ctx context.Context, topic models.Topic) (string, error) {
	const op = "storage.repository.CreateTopic"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}
	uid, err := parseID(op, topic.UserID)
	if err != nil {
		return "", err
	}

	query, args, err := psql.Insert("topics").
		Columns("user_id", "name", "keywords", "country_code", "language").
		Values(uid, topic.Name, topic.Keywords, topic.CountryCode, topic.Language).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return "", mapErr(op, err)
	}
	var newID string
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&newID); err != nil {
		return "", mapErr(op, err)
	}
	return newID, nil
}

// GetTopic возвращает тему по ID.
func (s *Storage) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	const op = "storage.repository.GetTopic"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	tid, err := parseID(op, id)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select(topicColumns...).From("topics").Where(sq.Eq{"id": tid}).ToSql()
	if err != nil {
		return nil, mapErr(op, err)
	}
	t, err := scanTopic(s.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return t, nil
}

// ListTopics возвращает страницу тем пользователя в порядке создания.
func (s *Storage) ListTopics(ctx context.Context, userID string, skip, limit int) ([]*models.Topic, error) {
	const op = "storage.repository.ListTopics"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	uid, err := parseID(op, userID)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select(topicColumns...).From("topics").
		Where(sq.Eq{"user_id": uid}).
		OrderBy("id").
		Offset(uint64(max(skip, 0))).
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

	topics := []*models.Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(op, err)
	}
	return topics, nil
}

// CountTopics считает темы пользователя.
func (s *Storage) CountTopics(ctx context.Context, userID string) (int, error) {
	const op = "storage.repository.CountTopics"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	uid, err := parseID(op, userID)
	if err != nil {
		return 0, err
	}
	return s.count(ctx, op, psql.Select("COUNT(*)").From("topics").Where(sq.Eq{"user_id": uid}))
}

// DeleteTopic удаляет тему вместе с ее расписаниями и журналом доставок.
func (s *Storage) DeleteTopic(ctx context.Context, id string) error {
	const op = "storage.repository.DeleteTopic"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	tid, err := parseID(op, id)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM topics WHERE id = $1`, tid)
	if err != nil {
		return mapErr(op, err)
	}
	return rowsAffected(op, res)
}
