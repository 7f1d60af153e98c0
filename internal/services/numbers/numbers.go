// Package services управляет номерами WhatsApp пользователя и их подтверждением.
package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

const verificationMessage = "Your WhatsApp News Bot verification code is: %s"

// NumberRepository хранилище пользователей и номеров.
type NumberRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateNumber(ctx context.Context, number models.WhatsAppNumber) (string, error)
	GetNumber(ctx context.Context, id string) (*models.WhatsAppNumber, error)
	ListNumbers(ctx context.Context, userID string) ([]*models.WhatsAppNumber, error)
	CountNumbers(ctx context.Context, userID string) (int, error)
	MarkNumberVerified(ctx context.Context, id string, at time.Time) error
	DeleteNumber(ctx context.Context, id string) error
}

// MessageSender отправляет сообщение в WhatsApp.
type MessageSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// NumberService добавление, подтверждение и удаление номеров.
type NumberService struct {
	log       *slog.Logger
	repo      NumberRepository
	sender    MessageSender
	freeLimit int
	now       func() time.Time
	code      func() (string, error)
}

// NewNumberService создает сервис. freeLimit ограничивает число номеров на бесплатном тарифе.
func NewNumberService(log *slog.Logger, repo NumberRepository, sender MessageSender, freeLimit int) *NumberService {
	return &NumberService{
		log:       log,
		repo:      repo,
		sender:    sender,
		freeLimit: freeLimit,
		now:       time.Now,
		code:      GenerateCode,
	}
}

// GenerateCode возвращает случайный шестизначный код.
func GenerateCode() (string, error) {
	const op = "services.GenerateCode"
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Create регистрирует номер и отправляет на него код подтверждения.
// Ошибка отправки кода не отменяет создание номера.
func (s *NumberService) Create(ctx context.Context, userID, phone string) (*models.WhatsAppNumber, error) {
	const op = "services.NumberService.Create"

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.IsFree() {
		count, err := s.repo.CountNumbers(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if count >= s.freeLimit {
			return nil, fmt.Errorf("%s: %w: free tier limited to %d whatsapp number(s)", op, models.ErrQuotaExceeded, s.freeLimit)
		}
	}

	code, err := s.code()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	number := models.WhatsAppNumber{
		UserID:           userID,
		PhoneNumber:      strings.TrimSpace(phone),
		VerificationCode: code,
	}
	id, err := s.repo.CreateNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.sender.Send(ctx, number.PhoneNumber, fmt.Sprintf(verificationMessage, code)); err != nil {
		s.log.Warn("failed to send verification code", sl.Op(op), slog.String("number_id", id), sl.Err(err))
	}

	created, err := s.repo.GetNumber(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s *NumberService) owned(ctx context.Context, op, userID, id string) (*models.WhatsAppNumber, error) {
	number, err := s.repo.GetNumber(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if number.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return number, nil
}

// Verify подтверждает номер, если code совпадает с выданным.
func (s *NumberService) Verify(ctx context.Context, userID, id, code string) error {
	const op = "services.NumberService.Verify"
	number, err := s.owned(ctx, op, userID, id)
	if err != nil {
		return err
	}
	if number.VerificationCode == "" || number.VerificationCode != code {
		return fmt.Errorf("%s: %w", op, models.ErrInvalidVerification)
	}
	if err := s.repo.MarkNumberVerified(ctx, id, s.now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// List возвращает номера пользователя.
func (s *NumberService) List(ctx context.Context, userID string) ([]*models.WhatsAppNumber, error) {
	const op = "services.NumberService.List"
	numbers, err := s.repo.ListNumbers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return numbers, nil
}

// Remove удаляет номер пользователя.
func (s *NumberService) Remove(ctx context.Context, userID, id string) error {
	const op = "services.NumberService.Remove"
	if _, err := s.owned(ctx, op, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteNumber(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
