package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/lib/smtp"
	"github.com/magabrotheeeer/servicehub/internal/models"
)

type MockDialer struct{ mock.Mock }

func (m *MockDialer) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockDialer) Sender() string {
	return m.Called().String(0)
}

type MockClient struct{ mock.Mock }

func (m *MockClient) Mail(from string) error { return m.Called(from).Error(0) }
func (m *MockClient) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *MockClient) Quit() error            { return m.Called().Error(0) }
func (m *MockClient) Close() error           { return m.Called().Error(0) }

func (m *MockClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func renewedEvent() models.SubscriptionEvent {
	return models.SubscriptionEvent{
		Type:         models.EventSubscriptionRenewed,
		UserUID:      "u1",
		Email:        "ama@example.com",
		Username:     "ama",
		Category:     models.CategoryHotels,
		BillingCycle: models.CycleMonthly,
		PaidThrough:  time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		PaymentID:    "p1",
		Amount:       50,
	}
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name        string
		event       func() models.SubscriptionEvent
		wantSubject string
		wantBody    string
		wantErr     error
	}{
		{
			name:        "renewed",
			event:       renewedEvent,
			wantSubject: "Receipt: Hotels subscription",
			wantBody:    "active until 15 July 2025",
		},
		{
			name: "cancelled",
			event: func() models.SubscriptionEvent {
				e := renewedEvent()
				e.Type = models.EventSubscriptionCancelled
				return e
			},
			wantSubject: "Your Hotels subscription was cancelled",
			wantBody:    "has been cancelled",
		},
		{
			name: "unknown type",
			event: func() models.SubscriptionEvent {
				e := renewedEvent()
				e.Type = "subscription.paused"
				return e
			},
			wantErr: ErrUnknownEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := Compose(tt.event())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ama@example.com", email.To)
			assert.Equal(t, tt.wantSubject, email.Subject)
			assert.Contains(t, email.Body, tt.wantBody)
		})
	}
}

func TestService_Handle(t *testing.T) {
	body, err := json.Marshal(renewedEvent())
	require.NoError(t, err)

	t.Run("sends receipt", func(t *testing.T) {
		writer := &bufferCloser{}
		client := new(MockClient)
		client.On("Mail", "noreply@servicehub.test").Return(nil)
		client.On("Rcpt", "ama@example.com").Return(nil)
		client.On("Data").Return(writer, nil)
		client.On("Quit").Return(nil)
		client.On("Close").Return(nil)
		dialer := new(MockDialer)
		dialer.On("Sender").Return("noreply@servicehub.test")
		dialer.On("Connect").Return(client, nil)

		require.NoError(t, New(sl.Discard(), dialer).Handle(body))
		assert.True(t, writer.closed)
		assert.Contains(t, writer.String(), "Subject: Receipt: Hotels subscription")
		assert.Contains(t, writer.String(), "To: ama@example.com")
		client.AssertExpectations(t)
	})

	t.Run("smtp failure is returned for redelivery", func(t *testing.T) {
		dialer := new(MockDialer)
		dialer.On("Sender").Return("noreply@servicehub.test")
		dialer.On("Connect").Return(nil, errors.New("connection refused"))

		assert.Error(t, New(sl.Discard(), dialer).Handle(body))
	})

	t.Run("malformed message is dropped", func(t *testing.T) {
		dialer := new(MockDialer)
		assert.NoError(t, New(sl.Discard(), dialer).Handle([]byte("{")))
		dialer.AssertNotCalled(t, "Connect")
	})

	t.Run("event without recipient is dropped", func(t *testing.T) {
		e := renewedEvent()
		e.Email = ""
		raw, _ := json.Marshal(e)
		dialer := new(MockDialer)
		assert.NoError(t, New(sl.Discard(), dialer).Handle(raw))
		dialer.AssertNotCalled(t, "Connect")
	})
}
