package schedule

import (
	"math"
	"sort"
	"time"

	"socialtt/internal/model"
)

// SlotMinutes is the granularity of the day grid.
const SlotMinutes = 30

// SlotKey returns the minutes elapsed since midnight in the reference zone
// for the given instant (8:00 -> 480, 8:30 -> 510).
func SlotKey(t time.Time) int {
	local := t.In(model.ReferenceZone)
	return local.Hour()*60 + local.Minute()
}

// slotCount is the number of half-hour slots an event spans, never below
// one: a 25-minute tutorial still occupies a full slot.
func slotCount(e model.ClassSession) int {
	n := int(math.Round(e.Duration().Seconds() / (SlotMinutes * 60)))
	if n < 1 {
		return 1
	}
	return n
}

// PackRows assigns each event to a half-hour slot key and a lane such that
// temporally overlapping events never share a lane.
//
// The packing is greedy and single-pass: an event claims the lane index
// equal to the widest lane list among the slots it spans, and every later
// slot it covers gets a nil placeholder in that lane ("continuation", drawn
// as empty space under the event's card). Lanes are never reclaimed within
// a day, so a busy stretch ends up as wide as its peak concurrency rather
// than an optimal interval coloring; the whole day is repacked on every
// render, which keeps that simplicity harmless.
//
// Events are sorted before packing (start, course code, activity group,
// owner ID) so lane assignment is deterministic for a given event set.
func PackRows(events []model.UserEvent) model.LayoutRows {
	ordered := make([]model.UserEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Session, ordered[j].Session
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.CourseCode != b.CourseCode {
			return a.CourseCode < b.CourseCode
		}
		if a.ActivityGroup != b.ActivityGroup {
			return a.ActivityGroup < b.ActivityGroup
		}
		return ordered[i].User.ID < ordered[j].User.ID
	})

	rows := model.LayoutRows{}
	for i := range ordered {
		ue := ordered[i]
		count := slotCount(ue.Session)
		key := SlotKey(ue.Session.Start)

		// Widest lane list among the covered slots decides the lane.
		lane := 0
		for slot, n := key, 0; n < count; n++ {
			if len(rows[slot]) > lane {
				lane = len(rows[slot])
			}
			slot += SlotMinutes
		}

		for slot, n := key, 0; n < count; n++ {
			for len(rows[slot]) < lane {
				rows[slot] = append(rows[slot], nil)
			}
			if slot == key {
				rows[slot] = append(rows[slot], &ue)
			} else {
				rows[slot] = append(rows[slot], nil)
			}
			slot += SlotMinutes
		}
	}
	return rows
}
