package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает его ID.
// Занятый email дает models.ErrAlreadyExists.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.repository.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	tier := user.SubscriptionTier
	if tier == "" {
		tier = models.TierFree
	}
	var newID string
	query := `INSERT INTO users (email, password_hash, subscription_tier)
			  VALUES ($1, $2, $3)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query, user.Email, user.PasswordHash, tier).Scan(&newID); err != nil {
		return "", mapErr(op, err)
	}
	return newID, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.repository.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	uid, err := parseID(op, id)
	if err != nil {
		return nil, err
	}
	return s.getUser(ctx, op, "id", uid)
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.repository.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.getUser(ctx, op, "email", email)
}

func (s *Storage) getUser(ctx context.Context, op, column string, value any) (*models.User, error) {
	query := fmt.Sprintf(`SELECT id, email, password_hash, subscription_tier, created_at
			  FROM users
			  WHERE %s = $1`, column)
	u := &models.User{}
	if err := s.DB.QueryRowContext(ctx, query, value).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.SubscriptionTier, &u.CreatedAt); err != nil {
		return nil, mapErr(op, err)
	}
	return u, nil
}

// UpdateUserTier меняет тариф пользователя.
func (s *Storage) UpdateUserTier(ctx context.Context, id, tier string) error {
	const op = "storage.repository.UpdateUserTier"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	uid, err := parseID(op, id)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET subscription_tier = $1 WHERE id = $2`, tier, uid)
	if err != nil {
		return mapErr(op, err)
	}
	return rowsAffected(op, res)
}
