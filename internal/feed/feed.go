// Package feed serializes a user's imported timetable back out as a
// conforming iCalendar document, so a timetable brought in through the app
// can be re-shared with calendar clients.
package feed

import (
	"sort"

	ical "github.com/arran4/golang-ical"

	"socialtt/internal/model"
)

// Build renders the profile's full EventIndex as a VCALENDAR. Sessions are
// emitted in (day, start, course) order so the output is deterministic for
// a given profile.
func Build(p *model.UserProfile) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Social Timetable//EN")
	cal.SetName(p.DisplayName + "'s timetable")

	days := make([]int, 0, len(p.Events))
	for day := range p.Events {
		days = append(days, day)
	}
	sort.Ints(days)

	for _, day := range days {
		sessions := make([]model.ClassSession, len(p.Events[day]))
		copy(sessions, p.Events[day])
		sort.Slice(sessions, func(i, j int) bool {
			if !sessions[i].Start.Equal(sessions[j].Start) {
				return sessions[i].Start.Before(sessions[j].Start)
			}
			return sessions[i].CourseCode < sessions[j].CourseCode
		})

		for _, s := range sessions {
			ev := cal.AddEvent(s.ID)
			ev.SetSummary(s.CourseCode + " " + s.ActivityGroup)
			if s.Title != "" {
				ev.SetDescription(s.Title + " (" + s.ActivityGroup + " " + s.ActivityCode + ")")
			} else {
				ev.SetDescription(s.ActivityGroup + " " + s.ActivityCode)
			}
			ev.SetLocation(s.Location)
			ev.SetStartAt(s.Start)
			ev.SetEndAt(s.End)
		}
	}
	return cal
}

// Serialize renders the profile's timetable as iCalendar text.
func Serialize(p *model.UserProfile) string {
	return Build(p).Serialize()
}
