package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

var scheduleColumns = []string{"s.id", "s.topic_id", "s.frequency", "s.time_of_day", "s.active", "s.last_run_at", "s.created_at"}

func scanSchedule(row scanner) (*models.Schedule, error) {
	sc := &models.Schedule{}
	var timeOfDay sql.NullString
	var lastRun sql.NullTime
	if err := row.Scan(&sc.ID, &sc.TopicID, &sc.Frequency, &timeOfDay, &sc.Active, &lastRun, &sc.CreatedAt); err != nil {
		return nil, err
	}
	if timeOfDay.Valid {
		sc.TimeOfDay = &timeOfDay.String
	}
	if lastRun.Valid {
		sc.LastRunAt = &lastRun.Time
	}
	return sc, nil
}

func selectSchedules() sq.SelectBuilder {
	return psql.Select(scheduleColumns...).From("schedules s")
}

// CreateSchedule сохраняет активное расписание и возвращает его ID.
func (s *Storage) CreateSchedule(ctx context.Context, schedule models.Schedule) (string, error) {
	const op = "storage.repository.CreateSchedule"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}
	tid, err := parseID(op, schedule.TopicID)
	if err != nil {
		return "", err
	}

	query, args, err := psql.Insert("schedules").
		Columns("topic_id", "frequency", "time_of_day", "active").
		Values(tid, schedule.Frequency, schedule.TimeOfDay, schedule.Active).
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

// GetSchedule возвращает расписание по ID независимо от флага active.
func (s *Storage) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	const op = "storage.repository.GetSchedule"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	sid, err := parseID(op, id)
	if err != nil {
		return nil, err
	}

	query, args, err := selectSchedules().Where(sq.Eq{"s.id": sid}).ToSql()
	if err != nil {
		return nil, mapErr(op, err)
	}
	sc, err := scanSchedule(s.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return sc, nil
}

// CountSchedules считает расписания по всем темам пользователя.
func (s *Storage) CountSchedules(ctx context.Context, userID string) (int, error) {
	const op = "storage.repository.CountSchedules"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	uid, err := parseID(op, userID)
	if err != nil {
		return 0, err
	}
	return s.count(ctx, op, psql.Select("COUNT(*)").
		From("schedules s").
		Join("topics t ON t.id = s.topic_id").
		Where(sq.Eq{"t.user_id": uid}))
}

// ListSchedules возвращает расписания по всем темам пользователя.
func (s *Storage) ListSchedules(ctx context.Context, userID string) ([]*models.Schedule, error) {
	const op = "storage.repository.ListSchedules"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	uid, err := parseID(op, userID)
	if err != nil {
		return nil, err
	}
	return s.listSchedules(ctx, op, selectSchedules().
		Join("topics t ON t.id = s.topic_id").
		Where(sq.Eq{"t.user_id": uid}).
		OrderBy("s.id"))
}

// ListActiveSchedules возвращает активные расписания с частотой frequency.
func (s *Storage) ListActiveSchedules(ctx context.Context, frequency string) ([]*models.Schedule, error) {
	const op = "storage.repository.ListActiveSchedules"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.listSchedules(ctx, op, selectSchedules().
		Where(sq.Eq{"s.active": true, "s.frequency": frequency}).
		OrderBy("s.id"))
}

// ListDueDailySchedules возвращает активные ежедневные расписания, у которых
// часовая часть time_of_day равна hour.
func (s *Storage) ListDueDailySchedules(ctx context.Context, hour int) ([]*models.Schedule, error) {
	const op = "storage.repository.ListDueDailySchedules"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("%s: hour %d out of range", op, hour)
	}
	return s.listSchedules(ctx, op, selectSchedules().
		Where(sq.Eq{"s.active": true, "s.frequency": models.FrequencyDaily}).
		Where(sq.Like{"s.time_of_day": fmt.Sprintf("%02d:%%", hour)}).
		OrderBy("s.id"))
}

func (s *Storage) listSchedules(ctx context.Context, op string, b sq.SelectBuilder) ([]*models.Schedule, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, mapErr(op, err)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	schedules := []*models.Schedule{}
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		schedules = append(schedules, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(op, err)
	}
	return schedules, nil
}

// UpdateScheduleLastRun записывает время последнего запуска.
func (s *Storage) UpdateScheduleLastRun(ctx context.Context, id string, at time.Time) error {
	const op = "storage.repository.UpdateScheduleLastRun"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	sid, err := parseID(op, id)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE schedules SET last_run_at = $1 WHERE id = $2`, at, sid)
	if err != nil {
		return mapErr(op, err)
	}
	return rowsAffected(op, res)
}

// SetScheduleActive включает или выключает расписание.
func (s *Storage) SetScheduleActive(ctx context.Context, id string, active bool) error {
	const op = "storage.repository.SetScheduleActive"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	sid, err := parseID(op, id)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE schedules SET active = $1 WHERE id = $2`, active, sid)
	if err != nil {
		return mapErr(op, err)
	}
	return rowsAffected(op, res)
}
