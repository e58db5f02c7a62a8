// Package models содержит доменные структуры маркетплейса: категории,
// подписки на категории, платежи, объявления и пользователей.
package models

import "fmt"

// Category — одна из вертикалей маркетплейса.
type Category string

const (
	CategoryArtisans    Category = "artisans"
	CategoryHotels      Category = "hotels"
	CategoryTransport   Category = "transport"
	CategoryRentals     Category = "rentals"
	CategoryMarketplace Category = "marketplace"
	CategoryJobs        Category = "jobs"
)

// Categories возвращает фиксированный перечень категорий в порядке отображения.
func Categories() []Category {
	return []Category{
		CategoryArtisans,
		CategoryHotels,
		CategoryTransport,
		CategoryRentals,
		CategoryMarketplace,
		CategoryJobs,
	}
}

// ParseCategory проверяет строку и возвращает категорию.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Valid сообщает, входит ли категория в перечень.
func (c Category) Valid() bool {
	switch c {
	case CategoryArtisans, CategoryHotels, CategoryTransport,
		CategoryRentals, CategoryMarketplace, CategoryJobs:
		return true
	}
	return false
}

// Title возвращает человекочитаемое название категории.
func (c Category) Title() string {
	switch c {
	case CategoryArtisans:
		return "Artisans"
	case CategoryHotels:
		return "Hotels"
	case CategoryTransport:
		return "Transport"
	case CategoryRentals:
		return "Rentals"
	case CategoryMarketplace:
		return "Marketplace"
	case CategoryJobs:
		return "Jobs"
	}
	panic(fmt.Sprintf("models: unhandled category %q", string(c)))
}

// BillingCycle — период продления подписки.
type BillingCycle string

const (
	CycleMonthly    BillingCycle = "monthly"
	CycleBiannually BillingCycle = "biannually"
	CycleAnnual     BillingCycle = "annual"
)

// BillingCycles возвращает все циклы оплаты от короткого к длинному.
func BillingCycles() []BillingCycle {
	return []BillingCycle{CycleMonthly, CycleBiannually, CycleAnnual}
}

// ParseBillingCycle проверяет строку и возвращает цикл оплаты.
func ParseBillingCycle(s string) (BillingCycle, error) {
	c := BillingCycle(s)
	switch c {
	case CycleMonthly, CycleBiannually, CycleAnnual:
		return c, nil
	}
	return "", fmt.Errorf("unknown billing cycle %q", s)
}

// Months возвращает длину цикла в месяцах.
func (c BillingCycle) Months() int {
	switch c {
	case CycleMonthly:
		return 1
	case CycleBiannually:
		return 6
	case CycleAnnual:
		return 12
	}
	panic(fmt.Sprintf("models: unhandled billing cycle %q", string(c)))
}
