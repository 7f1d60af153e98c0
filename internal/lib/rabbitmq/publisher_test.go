package rabbitmq

import (
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestPublishMessage(t *testing.T) {
	type payload struct {
		ScheduleID string `json:"schedule_id"`
	}

	tests := []struct {
		name      string
		message   any
		setupMock func(*MockChannel)
		wantErr   bool
	}{
		{
			name:    "persistent json message",
			message: payload{ScheduleID: "5"},
			setupMock: func(m *MockChannel) {
				m.On("Publish", Exchange, DeliveryRoutingKey, false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
					return p.ContentType == "application/json" &&
						p.DeliveryMode == amqp.Persistent &&
						string(p.Body) == `{"schedule_id":"5"}`
				})).Return(nil)
			},
		},
		{
			name:    "broker error",
			message: payload{ScheduleID: "5"},
			setupMock: func(m *MockChannel) {
				m.On("Publish", Exchange, DeliveryRoutingKey, false, false, mock.Anything).
					Return(errors.New("channel closed"))
			},
			wantErr: true,
		},
		{
			name:      "marshal error",
			message:   struct{ Ch chan int }{Ch: make(chan int)},
			setupMock: func(_ *MockChannel) {},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := new(MockChannel)
			tt.setupMock(ch)

			err := PublishMessage(ch, Exchange, DeliveryRoutingKey, tt.message)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
			} else {
				require.NoError(t, err)
			}
			ch.AssertExpectations(t)
		})
	}
}
