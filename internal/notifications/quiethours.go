package notifications

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
)

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// IsWithinWindow reports whether now falls inside the [start, end] wall-clock
// window in the given IANA timezone. A window whose start is not before its
// end wraps midnight; equal start and end means the window covers the whole
// day. Boundary minutes are inclusive on both branches.
func IsWithinWindow(now time.Time, start, end, timezone string) (bool, error) {
	startMin, err := parseClock(start)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "invalid window start")
	}
	endMin, err := parseClock(end)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "invalid window end")
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, fmt.Sprintf("unknown timezone %q", timezone))
	}

	local := now.In(loc)
	localMin := local.Hour()*60 + local.Minute()

	if startMin < endMin {
		return localMin >= startMin && localMin <= endMin, nil
	}
	// wraps midnight, or the degenerate always-on window
	return localMin >= startMin || localMin <= endMin, nil
}

func parseClock(value string) (int, error) {
	m := clockRe.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("time %q does not match HH:MM", value)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes, nil
}
