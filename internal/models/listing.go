package models

import "time"

// Listing — объявление поставщика в одной из категорий. Удаление мягкое:
// HiddenAt выставляется, строка остаётся, чтобы смещения страниц не плыли.
type Listing struct {
	ID              string            `json:"id"`
	OwnerUID        string            `json:"owner_uid"`
	Category        Category          `json:"category"`
	Title           string            `json:"title"`
	Skill           string            `json:"skill,omitempty"`
	Description     string            `json:"description,omitempty"`
	Location        string            `json:"location"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	Price           float64           `json:"price"`
	Rating          float64           `json:"rating"`
	ExperienceYears int               `json:"experience_years,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	HiddenAt        *time.Time        `json:"-"`
}

// ListingInput — тело запроса на создание или изменение объявления.
type ListingInput struct {
	Title           string            `json:"title" validate:"required,max=200"`
	Skill           string            `json:"skill" validate:"max=200"`
	Description     string            `json:"description" validate:"max=5000"`
	Location        string            `json:"location" validate:"required,max=200"`
	Attributes      map[string]string `json:"attributes"`
	Price           float64           `json:"price" validate:"gte=0"`
	ExperienceYears int               `json:"experience_years" validate:"gte=0"`
	Phone           string            `json:"phone"`
}

// ListingPage — страница результатов поиска объявлений.
type ListingPage struct {
	Items    []*Listing `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	LastPage int        `json:"last_page"`
}
