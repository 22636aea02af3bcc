package timetable

import (
	"github.com/teambition/rrule-go"

	appLog "socialtt/internal/log"
	"socialtt/internal/model"
)

// maxOccurrences caps recurrence expansion so a malformed COUNT/UNTIL
// cannot balloon an import.
const maxOccurrences = 200

// expandRecurrence turns a session carrying an RRULE into one session per
// occurrence within a year of the first start, preserving the duration.
// Some planner exports emit one weekly VEVENT plus a rule instead of one
// VEVENT per meeting. A rule that fails to parse yields just the base
// session, consistent with drop-and-continue parsing.
func expandRecurrence(base model.ClassSession, rawRule string) []model.ClassSession {
	r, err := rrule.StrToRRule(rawRule)
	if err != nil {
		appLog.Warn("ignoring malformed RRULE", "course", base.CourseCode, "rrule", rawRule)
		return []model.ClassSession{base}
	}
	r.DTStart(base.Start)

	horizon := base.Start.AddDate(1, 0, 0)
	starts := r.Between(base.Start, horizon, true)
	if len(starts) > maxOccurrences {
		appLog.Warn("recurrence truncated", "course", base.CourseCode, "cap", maxOccurrences)
		starts = starts[:maxOccurrences]
	}
	if len(starts) == 0 {
		return []model.ClassSession{base}
	}

	duration := base.End.Sub(base.Start)
	out := make([]model.ClassSession, 0, len(starts))
	for _, start := range starts {
		s := base
		s.Start = start.In(base.Start.Location())
		s.End = s.Start.Add(duration)
		out = append(out, s)
	}
	return out
}
