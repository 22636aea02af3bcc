// Package schedule holds the timetable operations that run over already
// parsed data: the day-of-year index, the friend merge, and the half-hour
// row packing used by the day grid. Everything here is a pure function over
// in-memory values.
package schedule

import (
	"errors"

	"socialtt/internal/model"
	"socialtt/internal/timetable"
)

// ErrCourseExists signals that AddCourse was a no-op because the course is
// already present for that term.
var ErrCourseExists = errors.New("course already added")

// AddCourse appends the course's sessions to the profile's day buckets and
// records the code under the term. Sessions whose own course code or term
// differ from the arguments are ignored; anything admitted here must stay
// removable by (code, term) later. Adding a course that is already present
// for the term changes nothing and reports ErrCourseExists.
func AddCourse(p *model.UserProfile, code string, term model.Term, sessions []model.ClassSession) error {
	if p.Courses.Contains(term, code) {
		return ErrCourseExists
	}
	if p.Events == nil {
		p.Events = model.EventIndex{}
	}
	if p.Courses == nil {
		p.Courses = model.CourseSet{}
	}

	for _, s := range sessions {
		if s.CourseCode != code || s.Term != term {
			continue
		}
		day := timetable.DayOfYear(s.Start)
		p.Events[day] = append(p.Events[day], s)
	}

	codes := p.Courses[term]
	i := 0
	for i < len(codes) && codes[i] < code {
		i++
	}
	codes = append(codes, "")
	copy(codes[i+1:], codes[i:])
	codes[i] = code
	p.Courses[term] = codes
	return nil
}

// RemoveCourse deletes every session matching (code, term) from every day
// bucket, pruning buckets that become empty, and removes the code from the
// term's course set, pruning the term entry when it empties. Removing an
// absent course is a no-op.
func RemoveCourse(p *model.UserProfile, code string, term model.Term) {
	for day, sessions := range p.Events {
		kept := sessions[:0]
		for _, s := range sessions {
			if s.CourseCode == code && s.Term == term {
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == 0 {
			delete(p.Events, day)
		} else {
			p.Events[day] = kept
		}
	}

	codes := p.Courses[term]
	for i, have := range codes {
		if have == code {
			codes = append(codes[:i], codes[i+1:]...)
			break
		}
	}
	if len(codes) == 0 {
		delete(p.Courses, term)
	} else {
		p.Courses[term] = codes
	}
}
