// ABOUTME: Expiration date arithmetic for validity windows
// ABOUTME: Computes expiration dates, days remaining and status tiers on calendar days
package expiry

import (
	"time"

	"github.com/harperreed/expirytrack/models"
)

// ShortCycleMaxDays is the longest window still treated as a short cycle.
const ShortCycleMaxDays = 30

// MaxWindowDays caps a validity window at one hundred years.
const MaxWindowDays = 36500

const secondsPerDay = 24 * 60 * 60

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ComputeExpiration adds windowDays calendar days to the inspection date.
// The time of day is dropped first.
func ComputeExpiration(lastInspection time.Time, windowDays int) time.Time {
	return Midnight(lastInspection).AddDate(0, 0, windowDays)
}

// DaysRemaining counts whole calendar days from now until expiration.
// Zero or negative means expired. Both sides are reduced to their calendar
// date, so the result does not depend on time of day or DST shifts.
func DaysRemaining(expiration, now time.Time) int {
	return int((civil(expiration).Unix() - civil(now).Unix()) / secondsPerDay)
}

// AlertThreshold is the days-remaining value at or below which an asset
// is EXPIRING_SOON: 3 for short cycles, 7 otherwise.
func AlertThreshold(windowDays int) int {
	if windowDays <= ShortCycleMaxDays {
		return 3
	}
	return 7
}

// StatusTier classifies an asset by its days remaining.
func StatusTier(daysRemaining, windowDays int) models.Status {
	switch {
	case daysRemaining <= 0:
		return models.StatusExpired
	case daysRemaining <= AlertThreshold(windowDays):
		return models.StatusExpiringSoon
	default:
		return models.StatusValid
	}
}

// civil maps t's calendar date onto UTC midnight so day differences are exact.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
