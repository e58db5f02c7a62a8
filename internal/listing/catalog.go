// Package listing описывает публичный поиск объявлений: конфигурацию категорий,
// кодек состояния фильтров в строку запроса, окно пагинации и контракт движка поиска.
package listing

import (
	"fmt"

	"github.com/magabrotheeeer/servicehub/internal/models"
)

// FacetAll — значение фасета по умолчанию, фильтр не применяется.
const FacetAll = "all"

// DefaultPageSize — размер страницы, если конфигурация его не задаёт.
const DefaultPageSize = 12

// Facet — фильтр, специфичный для категории.
type Facet struct {
	Key     string
	Default string
	Values  []string
}

// Recognized сообщает, входит ли значение в известный набор.
func (f Facet) Recognized(v string) bool {
	if v == f.Default {
		return true
	}
	for _, known := range f.Values {
		if known == v {
			return true
		}
	}
	return false
}

// Order — направление сортировки по колонке.
type Order struct {
	Field string
	Desc  bool
}

// Поля, по которым допускается сортировка.
const (
	FieldRating     = "rating"
	FieldCreatedAt  = "created_at"
	FieldPrice      = "price"
	FieldExperience = "experience_years"
)

// Ключи сортировки.
const (
	SortRating     = "rating"
	SortNewest     = "newest"
	SortExperience = "experience"
	SortPriceLow   = "price_low"
	SortPriceHigh  = "price_high"
	SortSalaryHigh = "salary_high"
)

var sortOrders = map[string]Order{
	SortRating:     {Field: FieldRating, Desc: true},
	SortNewest:     {Field: FieldCreatedAt, Desc: true},
	SortExperience: {Field: FieldExperience, Desc: true},
	SortPriceLow:   {Field: FieldPrice},
	SortPriceHigh:  {Field: FieldPrice, Desc: true},
	SortSalaryHigh: {Field: FieldPrice, Desc: true},
}

// Config — явная конфигурация категории, общая для кодека и движка поиска.
type Config struct {
	Category    models.Category
	Facets      []Facet
	SortDefault string
	Sorts       []string
	PageSize    int
}

// Facet возвращает фасет по ключу.
func (c Config) Facet(key string) (Facet, bool) {
	for _, f := range c.Facets {
		if f.Key == key {
			return f, true
		}
	}
	return Facet{}, false
}

// SortRecognized сообщает, поддерживает ли категория ключ сортировки.
func (c Config) SortRecognized(s string) bool {
	for _, known := range c.Sorts {
		if known == s {
			return true
		}
	}
	return false
}

// Order возвращает порядок сортировки для ключа, неизвестный ключ заменяется ключом по умолчанию.
func (c Config) Order(sort string) Order {
	if !c.SortRecognized(sort) {
		sort = c.SortDefault
	}
	return sortOrders[sort]
}

// Catalog — конфигурации всех категорий.
type Catalog struct {
	configs map[models.Category]Config
}

// NewCatalog строит каталог с заданным размером страницы.
func NewCatalog(pageSize int) *Catalog {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	all := []Config{
		{
			Category: models.CategoryArtisans,
			Facets: []Facet{
				{Key: "skill_type", Default: FacetAll, Values: []string{
					"plumber", "electrician", "carpenter", "mason", "painter",
					"mechanic", "tailor", "hairdresser", "welder", "tiler",
				}},
				{Key: "experience_level", Default: FacetAll, Values: []string{"entry", "intermediate", "expert"}},
			},
			SortDefault: SortRating,
			Sorts:       []string{SortRating, SortNewest, SortExperience},
		},
		{
			Category: models.CategoryHotels,
			Facets: []Facet{
				{Key: "type", Default: FacetAll, Values: []string{"hotel", "guesthouse", "lodge", "apartment", "resort"}},
			},
			SortDefault: SortRating,
			Sorts:       []string{SortRating, SortNewest, SortPriceLow, SortPriceHigh},
		},
		{
			Category: models.CategoryTransport,
			Facets: []Facet{
				{Key: "type", Default: FacetAll, Values: []string{"taxi", "bus", "truck", "motorbike", "car_rental"}},
			},
			SortDefault: SortNewest,
			Sorts:       []string{SortNewest, SortRating, SortPriceLow, SortPriceHigh},
		},
		{
			Category: models.CategoryRentals,
			Facets: []Facet{
				{Key: "type", Default: FacetAll, Values: []string{"apartment", "house", "office", "shop", "equipment"}},
			},
			SortDefault: SortNewest,
			Sorts:       []string{SortNewest, SortPriceLow, SortPriceHigh},
		},
		{
			Category: models.CategoryMarketplace,
			Facets: []Facet{
				{Key: "condition", Default: FacetAll, Values: []string{"new", "used", "refurbished"}},
			},
			SortDefault: SortNewest,
			Sorts:       []string{SortNewest, SortPriceLow, SortPriceHigh},
		},
		{
			Category: models.CategoryJobs,
			Facets: []Facet{
				{Key: "job_type", Default: FacetAll, Values: []string{"full_time", "part_time", "contract", "internship"}},
			},
			SortDefault: SortNewest,
			Sorts:       []string{SortNewest, SortSalaryHigh},
		},
	}

	c := &Catalog{configs: make(map[models.Category]Config, len(all))}
	for _, cfg := range all {
		cfg.PageSize = pageSize
		c.configs[cfg.Category] = cfg
	}
	return c
}

// Config возвращает конфигурацию категории.
func (c *Catalog) Config(category models.Category) (Config, error) {
	cfg, ok := c.configs[category]
	if !ok {
		return Config{}, fmt.Errorf("listing: no config for category %q", string(category))
	}
	return cfg, nil
}

// Codec возвращает кодек фильтров для категории.
func (c *Catalog) Codec(category models.Category) (*Codec, error) {
	cfg, err := c.Config(category)
	if err != nil {
		return nil, err
	}
	return NewCodec(cfg), nil
}
