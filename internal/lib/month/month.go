// Package month содержит календарную арифметику для циклов оплаты.
package month

import (
	"math"
	"time"
)

// Add прибавляет к t указанное число календарных месяцев. В отличие от
// time.AddDate день месяца не переносится: 31 января + 1 месяц = 28/29 февраля.
func Add(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	first := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	last := daysIn(first.Year(), first.Month())
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// Later возвращает более позднюю из двух дат.
func Later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// MonthlyEquivalent считает цену за месяц для сравнения тарифов,
// округлённую до двух знаков. Для списания не используется.
func MonthlyEquivalent(price float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	return math.Round(price/float64(months)*100) / 100
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
