// ABOUTME: Notification policy for expiring assets
// ABOUTME: Decides which days trigger a reminder and how the reminder is labelled
package expiry

import "fmt"

// LongestReminderDays is the earliest reminder point of any window. A
// candidate lookahead shorter than this misses reminders.
const LongestReminderDays = 7

// Reminders returns the two discrete reminder points for a window:
// {3, 1} for short cycles and {7, 1} for long ones.
func Reminders(windowDays int) (first, final int) {
	if windowDays <= ShortCycleMaxDays {
		return 3, 1
	}
	return LongestReminderDays, 1
}

// IsNotificationDue reports whether an asset should be notified today.
// Expired assets fire every day until renewed; live assets fire only on
// the reminder points.
func IsNotificationDue(daysRemaining, windowDays int) bool {
	if daysRemaining <= 0 {
		return true
	}
	first, final := Reminders(windowDays)
	return daysRemaining == first || daysRemaining == final
}

// SubjectTag is the priority tag placed in a reminder subject. Empty when
// no notification is due.
func SubjectTag(daysRemaining, windowDays int) string {
	if !IsNotificationDue(daysRemaining, windowDays) {
		return ""
	}
	if daysRemaining <= 0 {
		return "HIGH PRIORITY - EXPIRED"
	}
	if _, final := Reminders(windowDays); daysRemaining == final {
		return fmt.Sprintf("FINAL NOTICE: %d Day Left", final)
	}
	return fmt.Sprintf("CRITICAL: %d Days Left", daysRemaining)
}

// UrgencyLabel renders days remaining for people.
func UrgencyLabel(daysRemaining int) string {
	switch {
	case daysRemaining < 0:
		return fmt.Sprintf("expired %s ago", plural(-daysRemaining))
	case daysRemaining == 0:
		return "expires today"
	default:
		return fmt.Sprintf("expires in %s", plural(daysRemaining))
	}
}

func plural(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
