package listings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/servicehub/internal/access"
	"github.com/magabrotheeeer/servicehub/internal/cache"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/listing"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateListing(ctx context.Context, l *models.Listing) error {
	return m.Called(ctx, l).Error(0)
}

func (m *RepoMock) UpdateListing(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	args := m.Called(ctx, l)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *RepoMock) HideListing(ctx context.Context, ownerUID string, category models.Category, id string, now time.Time) error {
	return m.Called(ctx, ownerUID, category, id, now).Error(0)
}

func (m *RepoMock) ListOwnListings(ctx context.Context, ownerUID string, category models.Category) ([]*models.Listing, error) {
	args := m.Called(ctx, ownerUID, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Listing), args.Error(1)
}

type GateMock struct{ mock.Mock }

func (m *GateMock) Gate(ctx context.Context, userUID string) (*access.Gate, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Gate), args.Error(1)
}

type countingEngine struct {
	inner listing.Engine
	calls int
}

func (e *countingEngine) Query(ctx context.Context, category models.Category, f listing.FilterState) (*models.ListingPage, error) {
	e.calls++
	return e.inner.Query(ctx, category, f)
}

func hotels(n int) []*models.Listing {
	items := make([]*models.Listing, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, &models.Listing{
			ID:         fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
			Category:   models.CategoryHotels,
			Title:      fmt.Sprintf("Hotel %d", i),
			Location:   "Accra",
			Attributes: map[string]string{"type": "hotel"},
			Rating:     float64(i % 5),
			CreatedAt:  testNow.Add(-time.Duration(i) * time.Hour),
		})
	}
	return items
}

func newCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := &cache.Cache{Db: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func activeGate(categories ...models.Category) *access.Gate {
	subs := make([]models.CategorySubscription, 0, len(categories))
	for _, c := range categories {
		subs = append(subs, models.CategorySubscription{
			UserUID:      "u1",
			Category:     c,
			BillingCycle: models.CycleMonthly,
			PaidThrough:  testNow.AddDate(0, 1, 0),
			GraceUntil:   testNow.AddDate(0, 1, 7),
		})
	}
	return access.New(subs, testNow)
}

func newTestService(engine listing.Engine, repo Repository, c Cache, gates GateLoader) *Service {
	svc := New(sl.Discard(), listing.NewCatalog(12), engine, repo, c, gates, nil, time.Minute, "/api/v1/listings/")
	svc.now = func() time.Time { return testNow }
	svc.newID = func() string { return "11111111-1111-1111-1111-111111111111" }
	return svc
}

func TestService_Search(t *testing.T) {
	catalog := listing.NewCatalog(12)
	engine := listing.NewSliceEngine(catalog, hotels(30))

	tests := []struct {
		name         string
		query        url.Values
		wantPage     int
		wantLast     int
		wantItems    int
		wantPrev     bool
		wantNext     bool
		wantQueryHas string
	}{
		{
			name:      "first page by default",
			query:     url.Values{},
			wantPage:  1,
			wantLast:  3,
			wantItems: 12,
			wantNext:  true,
		},
		{
			name:         "last page",
			query:        url.Values{"page": {"3"}},
			wantPage:     3,
			wantLast:     3,
			wantItems:    6,
			wantPrev:     true,
			wantQueryHas: "page=3",
		},
		{
			name:         "out of range page is clamped",
			query:        url.Values{"page": {"99"}},
			wantPage:     3,
			wantLast:     3,
			wantItems:    6,
			wantPrev:     true,
			wantQueryHas: "page=3",
		},
		{
			name:         "unknown facet value yields nothing",
			query:        url.Values{"type": {"castle"}},
			wantPage:     1,
			wantLast:     1,
			wantItems:    0,
			wantQueryHas: "type=castle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(engine, nil, nil, nil)

			res, err := svc.Search(context.Background(), models.CategoryHotels, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Equal(t, tt.wantLast, res.LastPage)
			assert.Len(t, res.Items, tt.wantItems)
			assert.Equal(t, tt.wantPage, res.Filters.Page)
			assert.Equal(t, tt.wantPrev, res.PrevURL != "")
			assert.Equal(t, tt.wantNext, res.NextURL != "")
			assert.Equal(t, "/api/v1/listings/hotels", res.ClearURL)
			if tt.wantQueryHas != "" {
				assert.Contains(t, res.Query, tt.wantQueryHas)
			}
		})
	}
}

func TestService_Search_UnknownCategory(t *testing.T) {
	svc := newTestService(listing.NewSliceEngine(listing.NewCatalog(12), nil), nil, nil, nil)

	_, err := svc.Search(context.Background(), models.Category("boats"), url.Values{})
	assert.Error(t, err)
}

func TestService_Search_Cache(t *testing.T) {
	c, _ := newCache(t)
	engine := &countingEngine{inner: listing.NewSliceEngine(listing.NewCatalog(12), hotels(5))}
	repo := new(RepoMock)
	gates := new(GateMock)
	svc := newTestService(engine, repo, c, gates)
	ctx := context.Background()

	first, err := svc.Search(ctx, models.CategoryHotels, url.Values{"search": {"hotel"}})
	require.NoError(t, err)
	second, err := svc.Search(ctx, models.CategoryHotels, url.Values{"search": {"hotel"}})
	require.NoError(t, err)

	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Query, second.Query)

	// запись в категорию сбрасывает кеш выдачи
	gates.On("Gate", mock.Anything, "u1").Return(activeGate(models.CategoryHotels), nil)
	repo.On("CreateListing", mock.Anything, mock.AnythingOfType("*models.Listing")).Return(nil)
	_, err = svc.Create(ctx, "u1", models.CategoryHotels, models.ListingInput{Title: "New", Location: "Kumasi"})
	require.NoError(t, err)

	_, err = svc.Search(ctx, models.CategoryHotels, url.Values{"search": {"hotel"}})
	require.NoError(t, err)
	assert.Equal(t, 2, engine.calls)
}

func TestService_Search_CacheUnavailable(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()
	engine := &countingEngine{inner: listing.NewSliceEngine(listing.NewCatalog(12), hotels(3))}
	svc := newTestService(engine, nil, c, nil)

	res, err := svc.Search(context.Background(), models.CategoryHotels, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, engine.calls)
}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name      string
		gate      *access.Gate
		input     models.ListingInput
		repoErr   error
		wantErr   error
		wantPhone string
	}{
		{
			name: "success",
			gate: activeGate(models.CategoryHotels),
			input: models.ListingInput{
				Title:      " Sea View ",
				Location:   "Cape Coast",
				Attributes: map[string]string{"type": "guesthouse"},
				Phone:      "024 123 4567",
			},
			wantPhone: "+233241234567",
		},
		{
			name:    "locked category",
			gate:    activeGate(models.CategoryJobs),
			input:   models.ListingInput{Title: "Sea View", Location: "Cape Coast"},
			wantErr: ErrCategoryLocked,
		},
		{
			name: "attribute outside facets",
			gate: activeGate(models.CategoryHotels),
			input: models.ListingInput{
				Title:      "Sea View",
				Location:   "Cape Coast",
				Attributes: map[string]string{"stars": "5"},
			},
			wantErr: ErrInvalidAttribute,
		},
		{
			name: "unknown facet value",
			gate: activeGate(models.CategoryHotels),
			input: models.ListingInput{
				Title:      "Sea View",
				Location:   "Cape Coast",
				Attributes: map[string]string{"type": "castle"},
			},
			wantErr: ErrInvalidAttribute,
		},
		{
			name:    "repository error",
			gate:    activeGate(models.CategoryHotels),
			input:   models.ListingInput{Title: "Sea View", Location: "Cape Coast"},
			repoErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			gates := new(GateMock)
			gates.On("Gate", mock.Anything, "u1").Return(tt.gate, nil)
			repo.On("CreateListing", mock.Anything, mock.AnythingOfType("*models.Listing")).Return(tt.repoErr).Maybe()
			svc := newTestService(nil, repo, nil, gates)

			l, err := svc.Create(context.Background(), "u1", models.CategoryHotels, tt.input)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "CreateListing", mock.Anything, mock.Anything)
			case tt.repoErr != nil:
				assert.ErrorIs(t, err, tt.repoErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, "11111111-1111-1111-1111-111111111111", l.ID)
				assert.Equal(t, "u1", l.OwnerUID)
				assert.Equal(t, "Sea View", l.Title)
				assert.Equal(t, tt.wantPhone, l.Phone)
				assert.Equal(t, models.CategoryHotels, l.Category)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	const id = "22222222-2222-2222-2222-222222222222"

	t.Run("success", func(t *testing.T) {
		repo := new(RepoMock)
		gates := new(GateMock)
		gates.On("Gate", mock.Anything, "u1").Return(activeGate(models.CategoryHotels), nil)
		repo.On("UpdateListing", mock.Anything, mock.MatchedBy(func(l *models.Listing) bool {
			return l.ID == id && l.OwnerUID == "u1" && l.Title == "Renamed"
		})).Return(&models.Listing{ID: id, Title: "Renamed"}, nil)
		svc := newTestService(nil, repo, nil, gates)

		l, err := svc.Update(context.Background(), "u1", models.CategoryHotels, id,
			models.ListingInput{Title: "Renamed", Location: "Accra"})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", l.Title)
		repo.AssertExpectations(t)
	})

	t.Run("malformed id", func(t *testing.T) {
		repo := new(RepoMock)
		gates := new(GateMock)
		gates.On("Gate", mock.Anything, "u1").Return(activeGate(models.CategoryHotels), nil)
		svc := newTestService(nil, repo, nil, gates)

		_, err := svc.Update(context.Background(), "u1", models.CategoryHotels, "not-a-uuid",
			models.ListingInput{Title: "Renamed", Location: "Accra"})
		assert.ErrorIs(t, err, repository.ErrListingNotFound)
		repo.AssertNotCalled(t, "UpdateListing", mock.Anything, mock.Anything)
	})

	t.Run("foreign listing", func(t *testing.T) {
		repo := new(RepoMock)
		gates := new(GateMock)
		gates.On("Gate", mock.Anything, "u1").Return(activeGate(models.CategoryHotels), nil)
		repo.On("UpdateListing", mock.Anything, mock.Anything).Return(nil, repository.ErrListingNotFound)
		svc := newTestService(nil, repo, nil, gates)

		_, err := svc.Update(context.Background(), "u1", models.CategoryHotels, id,
			models.ListingInput{Title: "Renamed", Location: "Accra"})
		assert.ErrorIs(t, err, repository.ErrListingNotFound)
	})
}

func TestService_Hide(t *testing.T) {
	const id = "22222222-2222-2222-2222-222222222222"

	t.Run("success", func(t *testing.T) {
		repo := new(RepoMock)
		gates := new(GateMock)
		gates.On("Gate", mock.Anything, "u1").Return(activeGate(models.CategoryJobs), nil)
		repo.On("HideListing", mock.Anything, "u1", models.CategoryJobs, id, testNow).Return(nil)
		svc := newTestService(nil, repo, nil, gates)

		require.NoError(t, svc.Hide(context.Background(), "u1", models.CategoryJobs, id))
		repo.AssertExpectations(t)
	})

	t.Run("expired subscription", func(t *testing.T) {
		expired := access.New([]models.CategorySubscription{{
			UserUID:      "u1",
			Category:     models.CategoryJobs,
			BillingCycle: models.CycleMonthly,
			PaidThrough:  testNow.AddDate(0, 0, -20),
			GraceUntil:   testNow.AddDate(0, 0, -13),
		}}, testNow)
		repo := new(RepoMock)
		gates := new(GateMock)
		gates.On("Gate", mock.Anything, "u1").Return(expired, nil)
		svc := newTestService(nil, repo, nil, gates)

		err := svc.Hide(context.Background(), "u1", models.CategoryJobs, id)
		assert.ErrorIs(t, err, ErrCategoryLocked)
	})
}

func TestService_Own(t *testing.T) {
	repo := new(RepoMock)
	gates := new(GateMock)
	gates.On("Gate", mock.Anything, "u1").Return(nil, errors.New("db down")).Once()
	svc := newTestService(nil, repo, nil, gates)

	_, err := svc.Own(context.Background(), "u1", models.CategoryRentals)
	assert.Error(t, err)

	gates.On("Gate", mock.Anything, "u1").Return(activeGate(models.CategoryRentals), nil)
	repo.On("ListOwnListings", mock.Anything, "u1", models.CategoryRentals).
		Return([]*models.Listing{{ID: "a"}, {ID: "b"}}, nil)

	items, err := svc.Own(context.Background(), "u1", models.CategoryRentals)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
