package listing

import (
	"context"
	"sort"
	"strings"

	"github.com/magabrotheeeer/servicehub/internal/models"
)

// Engine — хранилище объявлений, выполняющее поиск по состоянию фильтров.
//
// Порядок применения: текстовый поиск по названию и навыку (подстрока без
// учёта регистра), фильтр по местоположению (так же), фасеты (точное
// совпадение, значение "all" не фильтрует), сортировка с вторичным ключом
// «сначала новые», затем пагинация с фиксированным размером страницы.
// Номер страницы вне [1, last] прижимается к ближайшей границе.
type Engine interface {
	Query(ctx context.Context, category models.Category, f FilterState) (*models.ListingPage, error)
}

// FacetFilter — применяемый фасет.
type FacetFilter struct {
	Key   string
	Value string
}

// Plan — нормализованный запрос к хранилищу.
type Plan struct {
	Category models.Category
	Search   string
	Location string
	Facets   []FacetFilter
	Order    Order
	Page     int
	PageSize int
}

// NewPlan строит план поиска по конфигурации категории и состоянию фильтров.
func NewPlan(cfg Config, f FilterState) Plan {
	p := Plan{
		Category: cfg.Category,
		Search:   strings.TrimSpace(f.Search),
		Location: strings.TrimSpace(f.Location),
		Order:    cfg.Order(f.Sort),
		Page:     f.Page,
		PageSize: cfg.PageSize,
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	for _, facet := range cfg.Facets {
		v := f.Facets[facet.Key]
		if v == "" || v == facet.Default {
			continue
		}
		p.Facets = append(p.Facets, FacetFilter{Key: facet.Key, Value: v})
	}
	return p
}

// Window прижимает запрошенную страницу к [1, last] для total строк
// и возвращает итоговую страницу, последнюю страницу и смещение.
func (p Plan) Window(total int) (page, last, offset int) {
	last = (total + p.PageSize - 1) / p.PageSize
	if last < 1 {
		last = 1
	}
	page = clamp(p.Page, 1, last)
	return page, last, (page - 1) * p.PageSize
}

// Match сообщает, проходит ли объявление фильтры плана.
func (p Plan) Match(l *models.Listing) bool {
	if l.HiddenAt != nil || l.Category != p.Category {
		return false
	}
	if p.Search != "" {
		s := strings.ToLower(p.Search)
		if !strings.Contains(strings.ToLower(l.Title), s) && !strings.Contains(strings.ToLower(l.Skill), s) {
			return false
		}
	}
	if p.Location != "" && !strings.Contains(strings.ToLower(l.Location), strings.ToLower(p.Location)) {
		return false
	}
	for _, ff := range p.Facets {
		if l.Attributes[ff.Key] != ff.Value {
			return false
		}
	}
	return true
}

// Less задаёт полный порядок: ключ сортировки, затем сначала новые, затем по ID.
func (p Plan) Less(a, b *models.Listing) bool {
	if c := compareField(p.Order.Field, a, b); c != 0 {
		if p.Order.Desc {
			return c > 0
		}
		return c < 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func compareField(field string, a, b *models.Listing) int {
	switch field {
	case FieldRating:
		return cmpFloat(a.Rating, b.Rating)
	case FieldPrice:
		return cmpFloat(a.Price, b.Price)
	case FieldExperience:
		return cmpFloat(float64(a.ExperienceYears), float64(b.ExperienceYears))
	case FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SliceEngine — эталонный движок поиска поверх среза объявлений в памяти.
// Задаёт поведение, которому следует ListingEngine хранилища; используется в тестах.
type SliceEngine struct {
	catalog *Catalog
	items   []*models.Listing
}

// NewSliceEngine создаёт движок по каталогу и набору объявлений.
func NewSliceEngine(catalog *Catalog, items []*models.Listing) *SliceEngine {
	return &SliceEngine{catalog: catalog, items: items}
}

// Query реализует Engine.
func (e *SliceEngine) Query(ctx context.Context, category models.Category, f FilterState) (*models.ListingPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, err := e.catalog.Config(category)
	if err != nil {
		return nil, err
	}
	plan := NewPlan(cfg, f)

	var matched []*models.Listing
	for _, l := range e.items {
		if plan.Match(l) {
			matched = append(matched, l)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return plan.Less(matched[i], matched[j]) })

	page, last, offset := plan.Window(len(matched))
	end := offset + plan.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	items := []*models.Listing{}
	if offset < len(matched) {
		items = append(items, matched[offset:end]...)
	}
	return &models.ListingPage{
		Items:    items,
		Total:    len(matched),
		Page:     page,
		LastPage: last,
	}, nil
}
