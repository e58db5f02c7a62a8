package month

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdd_TableTests(t *testing.T) {
	tests := []struct {
		name   string
		from   time.Time
		months int
		want   time.Time
	}{
		{
			name:   "one month in the middle",
			from:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 2, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:   "end of january clamps to leap february",
			from:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "end of january clamps to february",
			from:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "six months across year",
			from:   time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC),
			months: 6,
			want:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "twelve months",
			from:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			months: 12,
			want:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "zero months",
			from:   time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC),
			months: 0,
			want:   time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Add(tt.from, tt.months))
		})
	}
}

func TestLater(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(time.Hour)
	assert.Equal(t, b, Later(a, b))
	assert.Equal(t, b, Later(b, a))
	assert.Equal(t, a, Later(a, a))
}

func TestMonthlyEquivalent(t *testing.T) {
	assert.Equal(t, 8.33, MonthlyEquivalent(100, 12))
	assert.Equal(t, 16.67, MonthlyEquivalent(100, 6))
	assert.Equal(t, 50.0, MonthlyEquivalent(50, 1))
	assert.Equal(t, 0.0, MonthlyEquivalent(100, 0))
}
