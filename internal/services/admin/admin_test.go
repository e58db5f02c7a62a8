package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListPayments(ctx context.Context, limit, offset int) ([]*models.Payment, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Payment), args.Int(1), args.Error(2)
}

func (m *RepoMock) SubscriptionStats(ctx context.Context, now time.Time) ([]models.CategoryStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CategoryStats), args.Error(1)
}

func TestService_Payments(t *testing.T) {
	page := []*models.Payment{{ID: "p1"}, {ID: "p2"}}

	tests := []struct {
		name      string
		page      int
		setup     func(m *RepoMock)
		wantPage  int
		wantLast  int
		wantItems int
		wantErr   bool
	}{
		{
			name: "first page",
			page: 1,
			setup: func(m *RepoMock) {
				m.On("ListPayments", mock.Anything, 2, 0).Return(page, 5, nil)
			},
			wantPage:  1,
			wantLast:  3,
			wantItems: 2,
		},
		{
			name: "non-positive page becomes first",
			page: -4,
			setup: func(m *RepoMock) {
				m.On("ListPayments", mock.Anything, 2, 0).Return(page, 5, nil)
			},
			wantPage:  1,
			wantLast:  3,
			wantItems: 2,
		},
		{
			name: "page beyond last is clamped",
			page: 10,
			setup: func(m *RepoMock) {
				m.On("ListPayments", mock.Anything, 2, 18).Return(nil, 5, nil)
				m.On("ListPayments", mock.Anything, 2, 4).Return([]*models.Payment{{ID: "p5"}}, 5, nil)
			},
			wantPage:  3,
			wantLast:  3,
			wantItems: 1,
		},
		{
			name: "empty journal",
			page: 1,
			setup: func(m *RepoMock) {
				m.On("ListPayments", mock.Anything, 2, 0).Return(nil, 0, nil)
			},
			wantPage:  1,
			wantLast:  1,
			wantItems: 0,
		},
		{
			name: "repository error",
			page: 1,
			setup: func(m *RepoMock) {
				m.On("ListPayments", mock.Anything, 2, 0).Return(nil, 0, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setup(repo)
			svc := New(sl.Discard(), repo, 2)

			res, err := svc.Payments(context.Background(), tt.page)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Equal(t, tt.wantLast, res.LastPage)
			assert.Len(t, res.Items, tt.wantItems)
			assert.NotNil(t, res.Items)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Stats(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := new(RepoMock)
	repo.On("SubscriptionStats", mock.Anything, now).
		Return([]models.CategoryStats{{Category: models.CategoryHotels, Active: 3, Grace: 1}}, nil)
	svc := New(sl.Discard(), repo, 0)
	svc.now = func() time.Time { return now }

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].Active)
	assert.Equal(t, DefaultPageSize, svc.pageSize)
}
