package enums

import "fmt"

// NotificationFrequency is a batching hint. Only the instant path is wired;
// daily/weekly digesting is handled by a future scheduler.
type NotificationFrequency string

const (
	NotificationFrequencyInstant NotificationFrequency = "instant"
	NotificationFrequencyDaily   NotificationFrequency = "daily"
	NotificationFrequencyWeekly  NotificationFrequency = "weekly"
)

var validNotificationFrequencies = []NotificationFrequency{
	NotificationFrequencyInstant,
	NotificationFrequencyDaily,
	NotificationFrequencyWeekly,
}

// String implements fmt.Stringer.
func (f NotificationFrequency) String() string {
	return string(f)
}

// IsValid reports whether the value is known.
func (f NotificationFrequency) IsValid() bool {
	for _, candidate := range validNotificationFrequencies {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseNotificationFrequency converts raw input into a NotificationFrequency.
func ParseNotificationFrequency(value string) (NotificationFrequency, error) {
	for _, candidate := range validNotificationFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification frequency %q", value)
}
