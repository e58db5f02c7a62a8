// Package listings содержит публичный поиск объявлений с кешем и управление
// объявлениями поставщика, закрытое проверкой доступа к категории.
package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/servicehub/internal/access"
	"github.com/magabrotheeeer/servicehub/internal/cache"
	"github.com/magabrotheeeer/servicehub/internal/lib/phone"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/listing"
	"github.com/magabrotheeeer/servicehub/internal/metrics"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
)

var (
	// ErrCategoryLocked — у пользователя нет действующей подписки на категорию.
	ErrCategoryLocked = errors.New("category locked")
	// ErrInvalidAttribute — атрибут не является фасетом категории или его значение неизвестно.
	ErrInvalidAttribute = errors.New("invalid listing attribute")
)

// Repository определяет методы хранилища объявлений.
type Repository interface {
	CreateListing(ctx context.Context, l *models.Listing) error
	UpdateListing(ctx context.Context, l *models.Listing) (*models.Listing, error)
	HideListing(ctx context.Context, ownerUID string, category models.Category, id string, now time.Time) error
	ListOwnListings(ctx context.Context, ownerUID string, category models.Category) ([]*models.Listing, error)
}

// Cache описывает кеш страниц поиска с версией выдачи на категорию.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	ListingVersion(ctx context.Context, category models.Category) (int64, error)
	BumpListingVersion(ctx context.Context, category models.Category) (int64, error)
}

// GateLoader строит разбиение категорий для пользователя.
type GateLoader interface {
	Gate(ctx context.Context, userUID string) (*access.Gate, error)
}

// Service реализует поиск и управление объявлениями.
type Service struct {
	log      *slog.Logger
	catalog  *listing.Catalog
	engine   listing.Engine
	repo     Repository
	cache    Cache
	gates    GateLoader
	metrics  *metrics.Metrics
	ttl      time.Duration
	basePath string
	now      func() time.Time
	newID    func() string
}

// New создаёт сервис объявлений. basePath задаёт путь публичного поиска без категории.
func New(log *slog.Logger, catalog *listing.Catalog, engine listing.Engine, repo Repository,
	c Cache, gates GateLoader, m *metrics.Metrics, ttl time.Duration, basePath string) *Service {
	return &Service{
		log:      log,
		catalog:  catalog,
		engine:   engine,
		repo:     repo,
		cache:    c,
		gates:    gates,
		metrics:  m,
		ttl:      ttl,
		basePath: strings.TrimRight(basePath, "/"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// SearchResult — страница поиска со ссылками навигации.
type SearchResult struct {
	Items    []*models.Listing   `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	LastPage int                 `json:"last_page"`
	Filters  listing.FilterState `json:"filters"`
	Query    string              `json:"query"`
	listing.Pagination
}

// Search выполняет публичный поиск по параметрам запроса. Страница вне
// диапазона прижимается к границе, ссылки навигации строятся от неё.
func (s *Service) Search(ctx context.Context, category models.Category, q url.Values) (*SearchResult, error) {
	const op = "listings.Search"
	start := time.Now()
	defer func() { s.metrics.ListingQuery(category, time.Since(start)) }()

	codec, err := s.catalog.Codec(category)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f := codec.Decode(q)

	key := s.cacheKey(ctx, category, codec.Encode(f))
	if key != "" {
		var cached SearchResult
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("failed to read listing cache", slog.String("key", key), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	page, err := s.engine.Query(ctx, category, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f = codec.WithPage(f, page.Page)
	path := s.basePath + "/" + string(category)
	res := &SearchResult{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		LastPage:   page.LastPage,
		Filters:    f,
		Query:      codec.Encode(f),
		Pagination: codec.Paginate(path, f, page.Page, page.LastPage),
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, res, s.ttl); err != nil {
			s.log.Warn("failed to write listing cache", slog.String("key", key), sl.Err(err))
		}
	}
	return res, nil
}

// cacheKey возвращает ключ кеша или пустую строку, если кеш недоступен.
func (s *Service) cacheKey(ctx context.Context, category models.Category, query string) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.ListingVersion(ctx, category)
	if err != nil {
		s.log.Warn("failed to read listing version", slog.String("category", string(category)), sl.Err(err))
		return ""
	}
	return cache.ListingKey(category, version, query)
}

// requireAccess проверяет доступ пользователя к категории на стороне сервера.
func (s *Service) requireAccess(ctx context.Context, userUID string, category models.Category) error {
	gate, err := s.gates.Gate(ctx, userUID)
	if err != nil {
		return err
	}
	if !gate.HasAccess(category) {
		s.metrics.AccessDenied(category)
		s.log.Info("access to locked category denied",
			slog.String("user_uid", userUID), slog.String("category", string(category)))
		return ErrCategoryLocked
	}
	return nil
}

// Own возвращает объявления пользователя в категории.
func (s *Service) Own(ctx context.Context, userUID string, category models.Category) ([]*models.Listing, error) {
	const op = "listings.Own"
	if err := s.requireAccess(ctx, userUID, category); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	items, err := s.repo.ListOwnListings(ctx, userUID, category)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Create публикует объявление в категории.
func (s *Service) Create(ctx context.Context, userUID string, category models.Category, in models.ListingInput) (*models.Listing, error) {
	const op = "listings.Create"
	if err := s.requireAccess(ctx, userUID, category); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	l, err := s.fromInput(category, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	l.ID = s.newID()
	l.OwnerUID = userUID

	if err := s.repo.CreateListing(ctx, l); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, category)
	s.log.Info("listing created", slog.String("listing_id", l.ID), slog.String("category", string(category)))
	return l, nil
}

// Update изменяет объявление владельца.
func (s *Service) Update(ctx context.Context, userUID string, category models.Category, id string, in models.ListingInput) (*models.Listing, error) {
	const op = "listings.Update"
	if err := s.requireAccess(ctx, userUID, category); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrListingNotFound)
	}
	l, err := s.fromInput(category, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	l.ID = id
	l.OwnerUID = userUID

	updated, err := s.repo.UpdateListing(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, category)
	return updated, nil
}

// Hide снимает объявление с публикации. Запись остаётся в хранилище.
func (s *Service) Hide(ctx context.Context, userUID string, category models.Category, id string) error {
	const op = "listings.Hide"
	if err := s.requireAccess(ctx, userUID, category); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s: %w", op, repository.ErrListingNotFound)
	}
	if err := s.repo.HideListing(ctx, userUID, category, id, s.now()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, category)
	return nil
}

func (s *Service) invalidate(ctx context.Context, category models.Category) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.BumpListingVersion(ctx, category); err != nil {
		s.log.Warn("failed to bump listing version", slog.String("category", string(category)), sl.Err(err))
	}
}

// fromInput проверяет атрибуты по фасетам категории и нормализует телефон.
func (s *Service) fromInput(category models.Category, in models.ListingInput) (*models.Listing, error) {
	cfg, err := s.catalog.Config(category)
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]string, len(in.Attributes))
	for k, v := range in.Attributes {
		facet, ok := cfg.Facet(k)
		if !ok || v == facet.Default || !facet.Recognized(v) {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidAttribute, k, v)
		}
		attrs[k] = v
	}

	l := &models.Listing{
		Category:        category,
		Title:           strings.TrimSpace(in.Title),
		Skill:           strings.TrimSpace(in.Skill),
		Description:     in.Description,
		Location:        strings.TrimSpace(in.Location),
		Attributes:      attrs,
		Price:           in.Price,
		ExperienceYears: in.ExperienceYears,
	}
	if in.Phone != "" {
		l.Phone, err = phone.Normalize(in.Phone)
		if err != nil {
			return nil, err
		}
	}
	return l, nil
}
