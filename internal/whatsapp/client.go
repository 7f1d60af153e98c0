// Package whatsapp отправляет сообщения WhatsApp через Twilio.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/config"
)

const prefix = "whatsapp:"

// ErrNoSID Twilio принял запрос, но не вернул идентификатор сообщения.
var ErrNoSID = errors.New("whatsapp: empty message sid")

// MessageCreator часть REST API Twilio, через которую создаются сообщения.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Client отправитель сообщений.
type Client struct {
	api     MessageCreator
	from    string
	timeout time.Duration
}

// NewClient создает клиента Twilio из конфигурации.
func NewClient(cfg config.Twilio) *Client {
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return NewWithAPI(rest.Api, cfg.TwilioFromNumber, cfg.TwilioTimeout)
}

// NewWithAPI создает клиента поверх произвольной реализации MessageCreator.
func NewWithAPI(api MessageCreator, from string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{api: api, from: Address(from), timeout: timeout}
}

// Address добавляет к номеру префикс whatsapp:, если его нет.
func Address(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, prefix) {
		return number
	}
	return prefix + number
}

type result struct {
	msg *twilioApi.ApiV2010Message
	err error
}

// Send отправляет body на номер to и возвращает SID сообщения.
func (c *Client) Send(ctx context.Context, to, body string) (string, error) {
	const op = "whatsapp.Send"

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(Address(to))
	params.SetFrom(c.from)
	params.SetBody(body)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// REST клиент Twilio не принимает контекст.
	done := make(chan result, 1)
	go func() {
		msg, err := c.api.CreateMessage(params)
		done <- result{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%s: %w", op, res.err)
		}
		if res.msg == nil || res.msg.Sid == nil || *res.msg.Sid == "" {
			return "", fmt.Errorf("%s: %w", op, ErrNoSID)
		}
		return *res.msg.Sid, nil
	}
}
