package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearFraction(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		want       float64
	}{
		{"same day", date(2024, 3, 1), date(2024, 3, 1), 0},
		{"one day", date(2024, 3, 1), date(2024, 3, 2), 1.0 / 365},
		{"non leap year", date(2023, 1, 1), date(2024, 1, 1), 1},
		{"leap year", date(2024, 1, 1), date(2025, 1, 1), 366.0 / 365},
		{"half year", date(2023, 1, 15), date(2023, 7, 15), 181.0 / 365},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := YearFraction(c.start, c.end)
			require.NoError(t, err)
			assert.InDelta(t, c.want, got, 1e-15)
		})
	}
}

func TestYearFraction_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, 5, 11, 0, 1, 0, 0, time.UTC)

	got, err := YearFraction(start, end)
	require.NoError(t, err)
	assert.Equal(t, 1.0/365, got)

	got, err = YearFraction(end, end.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestYearFraction_EndBeforeStart(t *testing.T) {
	_, err := YearFraction(date(2024, 5, 10), date(2024, 5, 9))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestYearFraction_StrictlyIncreasing(t *testing.T) {
	start := date(2022, 12, 30)
	prev := -1.0
	for days := 0; days < 800; days += 7 {
		got, err := YearFraction(start, start.AddDate(0, 0, days))
		require.NoError(t, err)
		assert.Greater(t, got, prev, "days=%d", days)
		prev = got
	}
}
