// Package dashboard сопоставляет паре (категория, раздел) панель кабинета
// поставщика. Разделы управления объявлениями закрыты для неоплаченных категорий.
package dashboard

import (
	"fmt"
	"net/url"

	"github.com/magabrotheeeer/servicehub/internal/access"
	"github.com/magabrotheeeer/servicehub/internal/models"
)

// Section — раздел кабинета.
type Section string

const (
	SectionOverview  Section = "overview"
	SectionBilling   Section = "billing"
	SectionSettings  Section = "settings"
	SectionListings  Section = "listings"
	SectionCreate    Section = "create"
	SectionAnalytics Section = "analytics"
)

// Sections перечисляет все разделы в порядке меню.
func Sections() []Section {
	return []Section{SectionOverview, SectionListings, SectionCreate, SectionAnalytics, SectionBilling, SectionSettings}
}

// Gated сообщает, требует ли раздел оплаченной категории.
func (s Section) Gated() bool {
	switch s {
	case SectionListings, SectionCreate, SectionAnalytics:
		return true
	case SectionOverview, SectionBilling, SectionSettings:
		return false
	}
	panic(fmt.Sprintf("dashboard: unhandled section %q", string(s)))
}

func parseSection(s string) (Section, bool) {
	switch sec := Section(s); sec {
	case SectionOverview, SectionBilling, SectionSettings,
		SectionListings, SectionCreate, SectionAnalytics:
		return sec, true
	}
	return "", false
}

// Status — результат разрешения панели.
type Status string

const (
	StatusOK     Status = "ok"
	StatusLocked Status = "locked"
)

// Pane — панель, которую нужно отрисовать.
type Pane struct {
	Category          models.Category            `json:"category,omitempty"`
	Section           Section                    `json:"section"`
	Status            Status                     `json:"status"`
	RequestedCategory models.Category            `json:"requested_category,omitempty"`
	RequestedSection  Section                    `json:"requested_section,omitempty"`
	PaidCategories    []models.Category          `json:"paid_categories"`
	UnpaidCategories  []models.Category          `json:"unpaid_categories"`
	Links             map[Section]string         `json:"links"`
	CategoryLinks     map[models.Category]string `json:"category_links"`
}

// Router разрешает навигацию по кабинету.
type Router struct {
	basePath string
}

// NewRouter создаёт роутер для страницы кабинета по пути basePath.
func NewRouter(basePath string) *Router {
	return &Router{basePath: basePath}
}

// Resolve выбирает панель для запрошенных категории и раздела.
//
// Пустая категория заменяется первой оплаченной. Неизвестный раздел
// превращается в обзор. Закрытый раздел неоплаченной категории никогда не
// отдаётся: вместо него возвращается обзор со статусом locked.
func (r *Router) Resolve(gate *access.Gate, category, section string) Pane {
	pane := Pane{
		Section:          SectionOverview,
		Status:           StatusOK,
		PaidCategories:   gate.PaidCategories(),
		UnpaidCategories: gate.UnpaidCategories(),
	}
	if pane.PaidCategories == nil {
		pane.PaidCategories = []models.Category{}
	}
	if pane.UnpaidCategories == nil {
		pane.UnpaidCategories = []models.Category{}
	}

	sec, ok := parseSection(section)
	if !ok {
		sec = SectionOverview
	}

	requested := models.Category(category)
	switch {
	case category == "":
		if len(pane.PaidCategories) > 0 {
			pane.Category = pane.PaidCategories[0]
		}
	case requested.Valid():
		pane.Category = requested
	}

	switch {
	case !sec.Gated():
		pane.Section = sec
	case pane.Category == "":
		pane.Status = StatusLocked
		pane.RequestedCategory = requested
		pane.RequestedSection = sec
	default:
		if active, ok := gate.ActiveCategory(pane.Category); ok {
			pane.Category = active
			pane.Section = sec
		} else {
			pane.Status = StatusLocked
			pane.RequestedCategory = pane.Category
			pane.RequestedSection = sec
		}
	}

	pane.Links = make(map[Section]string, len(Sections()))
	for _, s := range Sections() {
		pane.Links[s] = r.Link(pane.Category, s)
	}
	pane.CategoryLinks = make(map[models.Category]string, len(models.Categories()))
	for _, c := range models.Categories() {
		pane.CategoryLinks[c] = r.Link(c, pane.Section)
	}
	return pane
}

// Link собирает ссылку на раздел, сохраняя текущую категорию.
func (r *Router) Link(category models.Category, section Section) string {
	q := url.Values{}
	if category != "" {
		q.Set("category", string(category))
	}
	if section != "" && section != SectionOverview {
		q.Set("section", string(section))
	}
	if len(q) == 0 {
		return r.basePath
	}
	return r.basePath + "?" + q.Encode()
}
