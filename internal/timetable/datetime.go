package timetable

import (
	"fmt"
	"strings"
	"time"

	"socialtt/internal/model"
)

// basicLayout is the compact date-time form used by both export dialects.
const basicLayout = "20060102T150405"

// ParseDateTime decodes a DTSTART/DTEND value fragment into an absolute
// instant. Two encodings appear in the wild:
//
//	TZID=Australia/Brisbane:20230227T100000
//	VALUE=DATE-TIME:20230227T100000
//
// The fragment before the colon is a key=value qualifier. A TZID qualifier
// names the zone the bare date-time is interpreted in; any other qualifier
// leaves the date-time zoneless and the institution's fixed UTC+10 zone
// applies.
func ParseDateTime(value string) (time.Time, error) {
	qualifier, stamp, ok := strings.Cut(value, ":")
	if !ok {
		return time.Time{}, fmt.Errorf("date value %q has no colon separator", value)
	}

	key, zone, ok := strings.Cut(qualifier, "=")
	if !ok {
		return time.Time{}, fmt.Errorf("date qualifier %q is not key=value", qualifier)
	}
	loc := model.ReferenceZone
	if key == "TZID" {
		named, err := time.LoadLocation(zone)
		if err != nil {
			return time.Time{}, fmt.Errorf("unknown timezone %q: %w", zone, err)
		}
		loc = named
	}

	t, err := time.ParseInLocation(basicLayout, stamp, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date-time %q: %w", stamp, err)
	}
	return t, nil
}
