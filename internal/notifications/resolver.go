package notifications

import (
	"time"

	"github.com/helmshare/helmshare-backend/pkg/db/models"
	"github.com/helmshare/helmshare-backend/pkg/enums"
)

// Candidate describes the notification being resolved against preferences.
type Candidate struct {
	Type     enums.NotificationType
	Category enums.NotificationCategory
	Priority enums.NotificationPriority
}

// Resolution is the preference-gating verdict for one candidate.
//
// RecordSuppressed means the notification must not be persisted at all (the
// category is disabled). DeliverySuppressed additionally covers quiet hours:
// the record is still written so it shows up in-app, but no transport fires.
type Resolution struct {
	RecordSuppressed   bool
	DeliverySuppressed bool
	EligibleChannels   []enums.NotificationChannel

	// ConfigErr carries a quiet-hours configuration problem. Resolution fails
	// open (treats the window as inactive); the caller decides how to log it.
	ConfigErr error
}

// Resolve applies the user's notification preferences to a candidate. It is
// pure apart from reading now, and safe for concurrent use.
//
// Absent preferences fail open for recording: losing a notification record is
// worse than an unwanted push.
func Resolve(now time.Time, prefs *models.NotificationPreferences, candidate Candidate) Resolution {
	if prefs == nil {
		return Resolution{EligibleChannels: enums.AllNotificationChannels()}
	}

	// Category gate is global, independent of channel.
	if !prefs.CategoryEnabled(candidate.Category) {
		return Resolution{RecordSuppressed: true, DeliverySuppressed: true}
	}

	var channels []enums.NotificationChannel
	for _, channel := range enums.AllNotificationChannels() {
		if prefs.ChannelEnabled(channel) && prefs.ChannelAllowsCategory(channel, candidate.Category) {
			channels = append(channels, channel)
		}
	}

	resolution := Resolution{EligibleChannels: channels}

	if prefs.QuietHoursEnabled && candidate.Priority != enums.NotificationPriorityUrgent {
		window := prefs.QuietHours()
		within, err := IsWithinWindow(now, window.Start, window.End, window.Timezone)
		if err != nil {
			resolution.ConfigErr = err
			return resolution
		}
		if within {
			resolution.DeliverySuppressed = true
			resolution.EligibleChannels = nil
		}
	}

	return resolution
}
