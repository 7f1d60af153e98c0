package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

var numberColumns = []string{"id", "user_id", "phone_number", "verified", "verification_code", "verified_at", "created_at"}

type scanner interface {
	Scan(dest ...any) error
}

func scanNumber(row scanner) (*models.WhatsAppNumber, error) {
	n := &models.WhatsAppNumber{}
	var code sql.NullString
	var verifiedAt sql.NullTime
	if err := row.Scan(&n.ID, &n.UserID, &n.PhoneNumber, &n.Verified, &code, &verifiedAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.VerificationCode = code.String
	if verifiedAt.Valid {
		n.VerifiedAt = &verifiedAt.Time
	}
	return n, nil
}

// CreateNumber сохраняет неподтвержденный номер вместе с кодом подтверждения.
func (s *Storage) CreateNumber(ctx context.Context, number models.WhatsAppNumber) (string, error) {
	const op = "storage.repository.CreateNumber"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}
	userID, err := parseID(op, number.UserID)
	if err != nil {
		return "", err
	}

	var newID string
	query := `INSERT INTO whatsapp_numbers (user_id, phone_number, verified, verification_code)
			  VALUES ($1, $2, FALSE, $3)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query, userID, number.PhoneNumber, number.VerificationCode).Scan(&newID); err != nil {
		return "", mapErr(op, err)
	}
	return newID, nil
}

// GetNumber возвращает номер по ID.
func (s *Storage) GetNumber(ctx context.Context, id string) (*models.WhatsAppNumber, error) {
	const op = "storage.repository.GetNumber"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	nid, err := parseID(op, id)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select(numberColumns...).From("whatsapp_numbers").Where(sq.Eq{"id": nid}).ToSql()
	if err != nil {
		return nil, mapErr(op, err)
	}
	n, err := scanNumber(s.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return n, nil
}

// ListNumbers возвращает все номера пользователя.
func (s *Storage) ListNumbers(ctx context.Context, userID string) ([]*models.WhatsAppNumber, error) {
	const op = "storage.repository.ListNumbers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	uid, err := parseID(op, userID)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select(numberColumns...).From("whatsapp_numbers").
		Where(sq.Eq{"user_id": uid}).OrderBy("id").ToSql()
	if err != nil {
		return nil, mapErr(op, err)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	numbers := []*models.WhatsAppNumber{}
	for rows.Next() {
		n, err := scanNumber(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(op, err)
	}
	return numbers, nil
}

// CountNumbers считает номера пользователя.
func (s *Storage) CountNumbers(ctx context.Context, userID string) (int, error) {
	const op = "storage.repository.CountNumbers"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	uid, err := parseID(op, userID)
	if err != nil {
		return 0, err
	}
	return s.count(ctx, op, psql.Select("COUNT(*)").From("whatsapp_numbers").Where(sq.Eq{"user_id": uid}))
}

// GetVerifiedNumber возвращает первый подтвержденный номер пользователя.
func (s *Storage) GetVerifiedNumber(ctx context.Context, userID string) (*models.WhatsAppNumber, error) {
	const op = "storage.repository.GetVerifiedNumber"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	uid, err := parseID(op, userID)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select(numberColumns...).From("whatsapp_numbers").
		Where(sq.Eq{"user_id": uid, "verified": true}).
		OrderBy("verified_at", "id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, mapErr(op, err)
	}
	n, err := scanNumber(s.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return n, nil
}

// MarkNumberVerified помечает номер подтвержденным на момент at.
func (s *Storage) MarkNumberVerified(ctx context.Context, id string, at time.Time) error {
	const op = "storage.repository.MarkNumberVerified"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	nid, err := parseID(op, id)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE whatsapp_numbers SET verified = TRUE, verified_at = $1 WHERE id = $2`, at, nid)
	if err != nil {
		return mapErr(op, err)
	}
	return rowsAffected(op, res)
}

// DeleteNumber удаляет номер.
func (s *Storage) DeleteNumber(ctx context.Context, id string) error {
	const op = "storage.repository.DeleteNumber"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	nid, err := parseID(op, id)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM whatsapp_numbers WHERE id = $1`, nid)
	if err != nil {
		return mapErr(op, err)
	}
	return rowsAffected(op, res)
}

func (s *Storage) count(ctx context.Context, op string, b sq.SelectBuilder) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, mapErr(op, err)
	}
	var n int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapErr(op, err)
	}
	return n, nil
}
