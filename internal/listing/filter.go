package listing

import (
	"net/url"
	"strconv"
	"strings"
)

// Ключи строки запроса, общие для всех категорий.
const (
	KeySearch   = "search"
	KeyLocation = "location"
	KeySort     = "sort"
	KeyPage     = "page"
)

// FilterState — состояние фильтров, восстановленное из строки запроса.
// В каноническом виде Facets содержит все фасеты категории.
type FilterState struct {
	Search   string            `json:"search"`
	Location string            `json:"location"`
	Facets   map[string]string `json:"facets"`
	Sort     string            `json:"sort"`
	Page     int               `json:"page"`
}

// Facet возвращает значение фасета или пустую строку.
func (f FilterState) Facet(key string) string {
	return f.Facets[key]
}

// Codec переводит FilterState в строку запроса и обратно для одной категории.
// Поля со значением по умолчанию в строку не попадают.
type Codec struct {
	cfg Config
}

// NewCodec создаёт кодек для конфигурации категории.
func NewCodec(cfg Config) *Codec {
	return &Codec{cfg: cfg}
}

// Clear возвращает состояние со всеми полями по умолчанию.
func (c *Codec) Clear() FilterState {
	f := FilterState{
		Facets: make(map[string]string, len(c.cfg.Facets)),
		Sort:   c.cfg.SortDefault,
		Page:   1,
	}
	for _, facet := range c.cfg.Facets {
		f.Facets[facet.Key] = facet.Default
	}
	return f
}

// Normalize приводит состояние к каноническому виду: недостающие фасеты и
// пустые значения заменяются значениями по умолчанию.
func (c *Codec) Normalize(f FilterState) FilterState {
	out := c.Clear()
	out.Search = f.Search
	out.Location = f.Location
	for _, facet := range c.cfg.Facets {
		if v := f.Facets[facet.Key]; v != "" {
			out.Facets[facet.Key] = v
		}
	}
	if c.cfg.SortRecognized(f.Sort) {
		out.Sort = f.Sort
	}
	if f.Page > 1 {
		out.Page = f.Page
	}
	return out
}

// Encode возвращает строку запроса без ведущего '?'. Порядок ключей фиксирован:
// search, location, фасеты в порядке конфигурации, sort, page.
func (c *Codec) Encode(f FilterState) string {
	var b strings.Builder
	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	if f.Search != "" {
		add(KeySearch, f.Search)
	}
	if f.Location != "" {
		add(KeyLocation, f.Location)
	}
	for _, facet := range c.cfg.Facets {
		if v := f.Facets[facet.Key]; v != "" && v != facet.Default {
			add(facet.Key, v)
		}
	}
	if f.Sort != "" && f.Sort != c.cfg.SortDefault {
		add(KeySort, f.Sort)
	}
	if f.Page > 1 {
		add(KeyPage, strconv.Itoa(f.Page))
	}
	return b.String()
}

// Decode восстанавливает состояние из параметров запроса. Отсутствующие поля
// получают значения по умолчанию, неизвестная сортировка и кривой номер
// страницы тоже. Неизвестные значения фасетов передаются как есть: движок
// поиска трактует их как «нет совпадений». Незнакомые ключи игнорируются.
func (c *Codec) Decode(q url.Values) FilterState {
	f := c.Clear()
	f.Search = q.Get(KeySearch)
	f.Location = q.Get(KeyLocation)
	for _, facet := range c.cfg.Facets {
		if v := q.Get(facet.Key); v != "" {
			f.Facets[facet.Key] = v
		}
	}
	if s := q.Get(KeySort); c.cfg.SortRecognized(s) {
		f.Sort = s
	}
	if p, err := strconv.Atoi(q.Get(KeyPage)); err == nil && p > 1 {
		f.Page = p
	}
	return f
}

// WithPage возвращает копию состояния с другой страницей.
func (c *Codec) WithPage(f FilterState, page int) FilterState {
	out := c.Normalize(f)
	if page < 1 {
		page = 1
	}
	out.Page = page
	return out
}

// URL собирает ссылку path?query. Для состояния по умолчанию строка запроса пустая.
func (c *Codec) URL(path string, f FilterState) string {
	q := c.Encode(f)
	if q == "" {
		return path
	}
	return path + "?" + q
}
