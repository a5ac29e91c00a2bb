// ABOUTME: Tests for expiration arithmetic
// ABOUTME: Covers window round-trips, time-of-day independence and tier ordering
package expiry

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/expirytrack/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeExpiration(t *testing.T) {
	exp := ComputeExpiration(date(2024, 1, 1), 30)
	assert.Equal(t, date(2024, 1, 31), exp)

	// Time of day on the inspection date is dropped.
	exp = ComputeExpiration(time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC), 30)
	assert.Equal(t, date(2024, 1, 31), exp)

	// Leap year.
	assert.Equal(t, date(2024, 3, 1), ComputeExpiration(date(2024, 2, 28), 2))
}

func TestDaysRemainingRoundTrip(t *testing.T) {
	jerusalem, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	starts := []time.Time{
		date(2024, 1, 1),
		date(2023, 12, 31),
		time.Date(2024, 3, 29, 14, 30, 0, 0, jerusalem), // DST change weekend
		time.Date(2024, 10, 26, 1, 0, 0, 0, jerusalem),
	}
	for _, start := range starts {
		for _, window := range []int{1, 2, 3, 7, 29, 30, 31, 90, 365, 730} {
			exp := ComputeExpiration(start, window)
			assert.Equal(t, window, DaysRemaining(exp, start), "start=%s window=%d", start, window)
		}
	}
}

func TestDaysRemainingBeyondDurationRange(t *testing.T) {
	start := date(2024, 1, 1)
	for _, window := range []int{MaxWindowDays, 106752, 200000} {
		exp := ComputeExpiration(start, window)
		assert.Equal(t, window, DaysRemaining(exp, start), "window=%d", window)
		assert.Equal(t, -window, DaysRemaining(start, exp), "window=%d", window)
	}
}

func TestDaysRemainingIgnoresTimeOfDay(t *testing.T) {
	exp := date(2024, 1, 31)

	assert.Equal(t, 3, DaysRemaining(exp, time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, DaysRemaining(exp, time.Date(2024, 1, 28, 23, 59, 59, 0, time.UTC)))
	assert.Equal(t, 0, DaysRemaining(exp, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, -5, DaysRemaining(exp, date(2024, 2, 5)))
}

func TestAlertThreshold(t *testing.T) {
	assert.Equal(t, 3, AlertThreshold(1))
	assert.Equal(t, 3, AlertThreshold(30))
	assert.Equal(t, 7, AlertThreshold(31))
	assert.Equal(t, 7, AlertThreshold(365))
}

func TestStatusTier(t *testing.T) {
	tests := []struct {
		name   string
		days   int
		window int
		want   models.Status
	}{
		{"expired long ago", -40, 30, models.StatusExpired},
		{"expires today", 0, 30, models.StatusExpired},
		{"short cycle at threshold", 3, 30, models.StatusExpiringSoon},
		{"short cycle past threshold", 4, 30, models.StatusValid},
		{"long cycle at threshold", 7, 365, models.StatusExpiringSoon},
		{"long cycle inside threshold", 5, 365, models.StatusExpiringSoon},
		{"long cycle past threshold", 8, 365, models.StatusValid},
		{"boundary window 31", 7, 31, models.StatusExpiringSoon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusTier(tt.days, tt.window))
		})
	}
}

func TestStatusTierMonotonic(t *testing.T) {
	rank := map[models.Status]int{
		models.StatusExpired:      0,
		models.StatusExpiringSoon: 1,
		models.StatusValid:        2,
	}
	for _, window := range []int{1, 10, 30, 31, 365} {
		prev := -1
		for days := -10; days <= 60; days++ {
			r := rank[StatusTier(days, window)]
			assert.GreaterOrEqual(t, r, prev, "window=%d days=%d", window, days)
			prev = r
		}
	}
}
