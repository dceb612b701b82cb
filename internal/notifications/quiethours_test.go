package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
)

func TestIsWithinWindow(t *testing.T) {
	at := func(hour, minute int) time.Time {
		return time.Date(2026, time.August, 20, hour, minute, 30, 0, time.UTC)
	}

	tests := []struct {
		name   string
		now    time.Time
		start  string
		end    string
		tz     string
		within bool
	}{
		{name: "same-day window inside", now: at(14, 0), start: "13:00", end: "15:00", tz: "UTC", within: true},
		{name: "same-day window before", now: at(12, 59), start: "13:00", end: "15:00", tz: "UTC", within: false},
		{name: "same-day window after", now: at(15, 1), start: "13:00", end: "15:00", tz: "UTC", within: false},
		{name: "start boundary inclusive", now: at(13, 0), start: "13:00", end: "15:00", tz: "UTC", within: true},
		{name: "end boundary inclusive", now: at(15, 0), start: "13:00", end: "15:00", tz: "UTC", within: true},
		{name: "wrapping window late night", now: at(23, 30), start: "22:00", end: "07:00", tz: "UTC", within: true},
		{name: "wrapping window early morning", now: at(6, 45), start: "22:00", end: "07:00", tz: "UTC", within: true},
		{name: "wrapping window midday", now: at(12, 0), start: "22:00", end: "07:00", tz: "UTC", within: false},
		{name: "wrapping start boundary", now: at(22, 0), start: "22:00", end: "07:00", tz: "UTC", within: true},
		{name: "wrapping end boundary", now: at(7, 0), start: "22:00", end: "07:00", tz: "UTC", within: true},
		{name: "equal start and end always matches", now: at(12, 0), start: "09:00", end: "09:00", tz: "UTC", within: true},
		{name: "timezone shifts the wall clock", now: at(2, 0), start: "20:00", end: "23:00", tz: "America/New_York", within: true},
		{name: "timezone outside window", now: at(14, 0), start: "20:00", end: "23:00", tz: "America/New_York", within: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			within, err := IsWithinWindow(tc.now, tc.start, tc.end, tc.tz)
			require.NoError(t, err)
			assert.Equal(t, tc.within, within)
		})
	}
}

func TestIsWithinWindowConfigErrors(t *testing.T) {
	now := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start string
		end   string
		tz    string
	}{
		{name: "bad start", start: "25:00", end: "07:00", tz: "UTC"},
		{name: "bad end", start: "22:00", end: "7:00", tz: "UTC"},
		{name: "not a clock at all", start: "bedtime", end: "07:00", tz: "UTC"},
		{name: "unknown timezone", start: "22:00", end: "07:00", tz: "Atlantis/Lemuria"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := IsWithinWindow(now, tc.start, tc.end, tc.tz)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConfiguration))
		})
	}
}
