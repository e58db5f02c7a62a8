package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/servicehub/internal/config"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/metrics"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/paymentprovider"
	"github.com/magabrotheeeer/servicehub/internal/services/subscriptions"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
	"github.com/magabrotheeeer/servicehub/internal/subscription"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetSubscription(ctx context.Context, userUID string, category models.Category) (*models.CategorySubscription, error) {
	args := m.Called(ctx, userUID, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CategorySubscription), args.Error(1)
}

func (m *RepoMock) CreatePayment(ctx context.Context, p *models.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *RepoMock) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *RepoMock) ListPaymentsByUser(ctx context.Context, userUID string) ([]*models.Payment, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

// SettlePayment возвращает заданный в моке результат. Если в нём есть платёж
// и текущая подписка (третий аргумент Return), применяет apply как хранилище.
func (m *RepoMock) SettlePayment(ctx context.Context, id string, status models.PaymentStatus, now time.Time, apply repository.SettleFunc) (*repository.Settlement, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	res := *args.Get(0).(*repository.Settlement)
	if res.Applied && status == models.PaymentCompleted {
		var current *models.CategorySubscription
		if len(args) > 2 {
			current, _ = args.Get(2).(*models.CategorySubscription)
		}
		next, err := apply(current, res.Payment)
		if err != nil {
			return nil, err
		}
		res.Subscription = &next
	}
	return &res, args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) Initiate(ctx context.Context, in paymentprovider.InitiateRequest) (*paymentprovider.Authorization, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.Authorization), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishSubscriptionEvent(ctx context.Context, event models.SubscriptionEvent) error {
	return m.Called(ctx, event).Error(0)
}

var testNow = time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)

const paymentID = "7b0c6f2e-3d4a-4f1e-9a57-1e2d3c4b5a69"

func newTestService(repo *RepoMock, gw *GatewayMock, pub *PublisherMock) *Service {
	svc := New(sl.Discard(), repo, gw, pub, subscription.NewLedger(7*24*time.Hour), config.Subscription{
		Currency:      "GHS",
		DefaultPrices: config.CyclePrices{Monthly: 50, Biannually: 270, Annual: 480},
	}, metrics.New(prometheus.NewRegistry()))
	svc.now = func() time.Time { return testNow }
	svc.newID = func() string { return paymentID }
	return svc
}

func TestService_Checkout(t *testing.T) {
	cancelledAt := testNow
	tests := []struct {
		name     string
		current  *models.CategorySubscription
		wantKind models.PaymentKind
	}{
		{name: "first purchase", current: nil, wantKind: models.PaymentSubscribe},
		{name: "existing subscription", current: &models.CategorySubscription{PaidThrough: testNow}, wantKind: models.PaymentRenew},
		{name: "after cancellation", current: &models.CategorySubscription{CancelledAt: &cancelledAt}, wantKind: models.PaymentSubscribe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			gw := new(GatewayMock)
			if tt.current == nil {
				repo.On("GetSubscription", mock.Anything, "u1", models.CategoryHotels).
					Return(nil, repository.ErrSubscriptionNotFound).Once()
			} else {
				repo.On("GetSubscription", mock.Anything, "u1", models.CategoryHotels).Return(tt.current, nil).Once()
			}
			repo.On("GetUser", mock.Anything, "u1").Return(&models.User{UID: "u1", Email: "k@example.com"}, nil).Once()
			repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
				return p.ID == paymentID && p.Kind == tt.wantKind && p.Amount == 270 &&
					p.Currency == "GHS" && p.BillingCycle == models.CycleBiannually
			})).Return(nil).Once()
			gw.On("Initiate", mock.Anything, mock.MatchedBy(func(in paymentprovider.InitiateRequest) bool {
				return in.Reference == paymentID && in.Email == "k@example.com" && in.Amount == 270
			})).Return(&paymentprovider.Authorization{AuthorizationURL: "https://pay.example/x"}, nil).Once()

			res, err := newTestService(repo, gw, new(PublisherMock)).
				Checkout(context.Background(), "u1", models.CategoryHotels, models.CycleBiannually)
			require.NoError(t, err)
			assert.Equal(t, "https://pay.example/x", res.AuthorizationURL)
			assert.Equal(t, tt.wantKind, res.Payment.Kind)
			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
		})
	}
}

func TestService_CheckoutGatewayFailure(t *testing.T) {
	repo := new(RepoMock)
	gw := new(GatewayMock)
	repo.On("GetSubscription", mock.Anything, "u1", models.CategoryJobs).Return(nil, repository.ErrSubscriptionNotFound).Once()
	repo.On("GetUser", mock.Anything, "u1").Return(&models.User{UID: "u1"}, nil).Once()
	repo.On("CreatePayment", mock.Anything, mock.Anything).Return(nil).Once()
	gw.On("Initiate", mock.Anything, mock.Anything).Return(nil, errors.New("gateway down")).Once()
	repo.On("SettlePayment", mock.Anything, paymentID, models.PaymentFailed).
		Return(&repository.Settlement{Applied: true, Payment: &models.Payment{ID: paymentID}}, nil).Once()

	_, err := newTestService(repo, gw, new(PublisherMock)).
		Checkout(context.Background(), "u1", models.CategoryJobs, models.CycleMonthly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway down")
	repo.AssertExpectations(t)
}

func TestService_Renew(t *testing.T) {
	cancelledAt := testNow
	tests := []struct {
		name    string
		setup   func(r *RepoMock)
		wantErr error
	}{
		{
			name: "no subscription",
			setup: func(r *RepoMock) {
				r.On("GetSubscription", mock.Anything, "u1", models.CategoryHotels).
					Return(nil, repository.ErrSubscriptionNotFound).Once()
			},
			wantErr: subscriptions.ErrNoSubscription,
		},
		{
			name: "cancelled subscription",
			setup: func(r *RepoMock) {
				r.On("GetSubscription", mock.Anything, "u1", models.CategoryHotels).
					Return(&models.CategorySubscription{CancelledAt: &cancelledAt}, nil).Once()
			},
			wantErr: subscription.ErrCancelled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setup(repo)
			_, err := newTestService(repo, new(GatewayMock), new(PublisherMock)).
				Renew(context.Background(), "u1", models.CategoryHotels, models.CycleMonthly)
			require.ErrorIs(t, err, tt.wantErr)
			repo.AssertExpectations(t)
		})
	}
}

// callback собирает уведомление на 50 GHS, сумму платежа из тестов.
func callback(event, reference string) paymentprovider.WebhookPayload {
	var p paymentprovider.WebhookPayload
	p.Event = event
	p.Data.Reference = reference
	p.Data.Amount = 5000
	p.Data.Currency = "GHS"
	return p
}

func TestService_HandleCallback(t *testing.T) {
	paid := &models.Payment{ID: paymentID, UserUID: "u1", Category: models.CategoryHotels,
		BillingCycle: models.CycleMonthly, Amount: 50, Currency: "GHS", Kind: models.PaymentRenew}
	existing := &models.CategorySubscription{UserUID: "u1", Category: models.CategoryHotels,
		PaidThrough: testNow.AddDate(0, 0, 10), GraceUntil: testNow.AddDate(0, 0, 17)}

	t.Run("completed renews from paid_through and publishes", func(t *testing.T) {
		repo := new(RepoMock)
		pub := new(PublisherMock)
		repo.On("GetPayment", mock.Anything, paymentID).Return(paid, nil).Once()
		repo.On("SettlePayment", mock.Anything, paymentID, models.PaymentCompleted).
			Return(&repository.Settlement{Applied: true, Payment: paid}, nil, existing).Once()
		repo.On("GetUser", mock.Anything, "u1").Return(&models.User{Email: "k@example.com", Username: "kofi"}, nil).Once()
		pub.On("PublishSubscriptionEvent", mock.Anything, mock.MatchedBy(func(e models.SubscriptionEvent) bool {
			return e.Type == models.EventSubscriptionRenewed && e.PaymentID == paymentID && e.Email == "k@example.com"
		})).Return(nil).Once()

		res, err := newTestService(repo, new(GatewayMock), pub).
			HandleCallback(context.Background(), callback(paymentprovider.EventChargeSuccess, paymentID))
		require.NoError(t, err)
		require.NotNil(t, res.Subscription)
		assert.True(t, res.Subscription.PaidThrough.Equal(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)))
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("first payment starts subscription with month clamped", func(t *testing.T) {
		repo := new(RepoMock)
		pub := new(PublisherMock)
		repo.On("GetPayment", mock.Anything, paymentID).Return(paid, nil).Once()
		repo.On("SettlePayment", mock.Anything, paymentID, models.PaymentCompleted).
			Return(&repository.Settlement{Applied: true, Payment: paid}, nil, nil).Once()
		repo.On("GetUser", mock.Anything, "u1").Return(&models.User{}, nil).Once()
		pub.On("PublishSubscriptionEvent", mock.Anything, mock.Anything).Return(nil).Once()

		res, err := newTestService(repo, new(GatewayMock), pub).
			HandleCallback(context.Background(), callback(paymentprovider.EventChargeSuccess, paymentID))
		require.NoError(t, err)
		assert.True(t, res.Subscription.PaidThrough.Equal(time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC)))
		assert.True(t, res.Subscription.GraceUntil.Equal(time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)))
	})

	t.Run("duplicate callback is a no-op", func(t *testing.T) {
		repo := new(RepoMock)
		pub := new(PublisherMock)
		repo.On("GetPayment", mock.Anything, paymentID).Return(paid, nil).Once()
		repo.On("SettlePayment", mock.Anything, paymentID, models.PaymentCompleted).
			Return(&repository.Settlement{Applied: false, Payment: paid}, nil).Once()

		res, err := newTestService(repo, new(GatewayMock), pub).
			HandleCallback(context.Background(), callback(paymentprovider.EventChargeSuccess, paymentID))
		require.NoError(t, err)
		assert.False(t, res.Applied)
		pub.AssertNotCalled(t, "PublishSubscriptionEvent", mock.Anything, mock.Anything)
	})

	t.Run("failed charge", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("SettlePayment", mock.Anything, paymentID, models.PaymentFailed).
			Return(&repository.Settlement{Applied: true, Payment: paid}, nil).Once()

		res, err := newTestService(repo, new(GatewayMock), new(PublisherMock)).
			HandleCallback(context.Background(), callback(paymentprovider.EventChargeFailed, paymentID))
		require.NoError(t, err)
		assert.Nil(t, res.Subscription)
	})

	t.Run("unknown payment", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetPayment", mock.Anything, paymentID).Return(nil, repository.ErrPaymentNotFound).Once()

		_, err := newTestService(repo, new(GatewayMock), new(PublisherMock)).
			HandleCallback(context.Background(), callback(paymentprovider.EventChargeSuccess, paymentID))
		require.ErrorIs(t, err, repository.ErrPaymentNotFound)
		repo.AssertNotCalled(t, "SettlePayment", mock.Anything, mock.Anything, mock.Anything)
	})

	mismatches := []struct {
		name     string
		amount   int64
		currency string
	}{
		{name: "charged amount differs", amount: 100, currency: "GHS"},
		{name: "charged currency differs", amount: 5000, currency: "NGN"},
		{name: "amount missing", amount: 0, currency: "GHS"},
	}
	for _, tt := range mismatches {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			pub := new(PublisherMock)
			repo.On("GetPayment", mock.Anything, paymentID).Return(paid, nil).Once()
			failed := *paid
			failed.Status = models.PaymentFailed
			repo.On("SettlePayment", mock.Anything, paymentID, models.PaymentFailed).
				Return(&repository.Settlement{Applied: true, Payment: &failed}, nil).Once()

			reg := prometheus.NewRegistry()
			svc := newTestService(repo, new(GatewayMock), pub)
			svc.metrics = metrics.New(reg)

			payload := callback(paymentprovider.EventChargeSuccess, paymentID)
			payload.Data.Amount = tt.amount
			payload.Data.Currency = tt.currency

			res, err := svc.HandleCallback(context.Background(), payload)
			require.NoError(t, err)
			assert.True(t, res.Applied)
			assert.Nil(t, res.Subscription)
			assert.Equal(t, models.PaymentFailed, res.Payment.Status)
			pub.AssertNotCalled(t, "PublishSubscriptionEvent", mock.Anything, mock.Anything)
			repo.AssertExpectations(t)

			count, err := testutil.GatherAndCount(reg, "servicehub_payment_callbacks_total")
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}

	t.Run("malformed reference never reaches storage", func(t *testing.T) {
		repo := new(RepoMock)
		_, err := newTestService(repo, new(GatewayMock), new(PublisherMock)).
			HandleCallback(context.Background(), callback(paymentprovider.EventChargeSuccess, "not-a-uuid"))
		require.ErrorIs(t, err, repository.ErrPaymentNotFound)
		repo.AssertNotCalled(t, "SettlePayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ignored event", func(t *testing.T) {
		repo := new(RepoMock)
		res, err := newTestService(repo, new(GatewayMock), new(PublisherMock)).
			HandleCallback(context.Background(), callback("transfer.success", paymentID))
		require.NoError(t, err)
		assert.Nil(t, res)
	})
}
