package timetable

import (
	"testing"
	"time"

	"socialtt/internal/model"
)

func TestParseDateTime(t *testing.T) {
	brisbane, err := time.LoadLocation("Australia/Brisbane")
	if err != nil {
		t.Fatalf("loading Australia/Brisbane: %v", err)
	}

	tests := []struct {
		name  string
		value string
		want  time.Time
		err   bool
	}{
		{
			name:  "tzid qualified",
			value: "TZID=Australia/Brisbane:20230227T100000",
			want:  time.Date(2023, time.February, 27, 10, 0, 0, 0, brisbane),
		},
		{
			name:  "zoneless falls back to institution zone",
			value: "VALUE=DATE-TIME:20230227T100000",
			want:  time.Date(2023, time.February, 27, 10, 0, 0, 0, model.ReferenceZone),
		},
		{
			name:  "no colon separator",
			value: "20230227T100000",
			err:   true,
		},
		{
			name:  "qualifier without equals",
			value: "TZID:20230227T100000",
			err:   true,
		},
		{
			name:  "unknown zone",
			value: "TZID=Mars/Olympus:20230227T100000",
			err:   true,
		},
		{
			name:  "unparseable digits",
			value: "VALUE=DATE-TIME:2023-02-27 10:00",
			err:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateTime(tt.value)
			if tt.err {
				if err == nil {
					t.Fatalf("ParseDateTime(%q) = %v, want error", tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDateTime(%q): %v", tt.value, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDateTime(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDayOfYear(t *testing.T) {
	// 2023-02-27 in the reference zone is day 58 (31 + 27).
	start := time.Date(2023, time.February, 27, 10, 0, 0, 0, model.ReferenceZone)
	if got := DayOfYear(start); got != 58 {
		t.Errorf("DayOfYear = %d, want 58", got)
	}

	// An instant late on Feb 27 UTC is already Feb 28 in UTC+10.
	utcEvening := time.Date(2023, time.February, 27, 20, 0, 0, 0, time.UTC)
	if got := DayOfYear(utcEvening); got != 59 {
		t.Errorf("DayOfYear across zones = %d, want 59", got)
	}
}
