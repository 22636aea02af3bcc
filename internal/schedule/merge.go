package schedule

import "socialtt/internal/model"

// MergeDay overlays the given profiles' sessions for one day-of-year key
// into a single list of user events. Profiles named in excluded are hidden
// from the merge (the grid lets you toggle friends off without unfriending
// them).
//
// Output order follows profile order, then bucket order within a profile.
// The packer sorts internally, so merge order carries no layout meaning.
func MergeDay(day int, profiles []*model.UserProfile, excluded map[string]bool) []model.UserEvent {
	var events []model.UserEvent
	for _, p := range profiles {
		if excluded[p.ID] {
			continue
		}
		for _, s := range p.Events[day] {
			events = append(events, model.UserEvent{User: p, Session: s})
		}
	}
	return events
}
