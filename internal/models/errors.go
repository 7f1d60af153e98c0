package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound сущность не найдена или принадлежит другому пользователю.
	ErrNotFound = errors.New("not found")
	// ErrQuotaExceeded превышен лимит тарифа.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrHourlyNotAllowed бесплатный тариф не допускает ежечасные расписания.
	ErrHourlyNotAllowed = fmt.Errorf("%w: hourly frequency requires paid tier", ErrQuotaExceeded)
	// ErrInvalidVerification код подтверждения не совпал.
	ErrInvalidVerification = errors.New("invalid verification code")
	// ErrNoVerifiedEndpoint у пользователя нет подтвержденного номера.
	ErrNoVerifiedEndpoint = errors.New("no verified whatsapp number")
	// ErrAlreadyExists нарушено ограничение уникальности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSchedule некорректные параметры расписания.
	ErrInvalidSchedule = errors.New("invalid schedule")
)
