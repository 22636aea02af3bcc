package timetable

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	appLog "socialtt/internal/log"
	"socialtt/internal/model"
)

// Dialect selects which field-parsing rules apply to an export. The two
// dialects share the event-boundary state machine and differ only in how
// SUMMARY/DESCRIPTION values and dates are interpreted. Callers choose the
// dialect; it is never auto-detected.
type Dialect string

const (
	// DialectTimetable is the institutional timetable export. Dates carry
	// TZID qualifiers and the DESCRIPTION value self-describes course code
	// and term.
	DialectTimetable Dialect = "timetable"

	// DialectPlanner is the planner app export used by the share path.
	// Dates are zoneless (fixed UTC+10 applies) and the term comes from the
	// caller's hint.
	DialectPlanner Dialect = "planner"
)

// ParseDialect validates a dialect string.
func ParseDialect(s string) (Dialect, bool) {
	switch Dialect(s) {
	case DialectTimetable, DialectPlanner:
		return Dialect(s), true
	}
	return "", false
}

var (
	// ErrNotText reports that the export body is not valid UTF-8 text.
	ErrNotText = errors.New("export body is not valid text")

	// ErrNoSessions reports that the export parsed cleanly but produced no
	// sessions. The UI shows this as "nothing to import", distinct from a
	// plain failure or a normal empty day.
	ErrNoSessions = errors.New("export contains no timetable sessions")
)

// ParseResult is a freshly built index plus import diagnostics.
type ParseResult struct {
	Events  model.EventIndex
	Courses model.CourseSet

	// Sessions counts emitted sessions; Dropped counts event blocks that
	// were discarded for missing or malformed required fields.
	Sessions int
	Dropped  int
}

// draft accumulates fields for the event block currently being read. It is
// reset on every begin marker and flushed on every end marker.
type draft struct {
	title    string
	code     string
	term     model.Term
	group    string
	activity string
	location string
	start    time.Time
	end      time.Time
	rrule    string
}

func (d *draft) complete() bool {
	return d.code != "" && d.group != "" && d.activity != "" && d.location != "" &&
		!d.start.IsZero() && !d.end.IsZero() && d.start.Before(d.end)
}

// Parse consumes raw export text line by line and builds the day-of-year
// index and per-term course set.
//
// Each line splits into a key and a value at the first ';' if present, else
// the first ':'; lines with neither are skipped. A block missing any
// required field (course code, activity group, activity code, location,
// start, end) is dropped silently and its siblings are unaffected.
func Parse(text string, dialect Dialect, termHint model.Term) (*ParseResult, error) {
	if !utf8.ValidString(text) {
		return nil, ErrNotText
	}

	res := &ParseResult{
		Events:  model.EventIndex{},
		Courses: model.CourseSet{},
	}

	var cur draft
	inEvent := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")

		// RRULE values embed semicolons, so they never survive the generic
		// key split below.
		if rule, ok := strings.CutPrefix(line, "RRULE:"); ok {
			if inEvent {
				cur.rrule = rule
			}
			continue
		}

		key, value, ok := splitLine(line)
		if !ok {
			continue
		}

		switch key {
		case "BEGIN":
			if strings.Contains(value, "VEVENT") {
				cur = draft{}
				inEvent = true
			}
		case "END":
			// Only a marker that closes an open block flushes; a repeated or
			// stray END must not re-emit or count anything.
			if inEvent && strings.Contains(value, "VEVENT") {
				res.flush(&cur, dialect)
				cur = draft{}
				inEvent = false
			}
		case "SUMMARY":
			if inEvent {
				parseSummary(&cur, value, dialect)
			}
		case "DESCRIPTION":
			if inEvent {
				parseDescription(&cur, value, dialect, termHint)
			}
		case "LOCATION":
			if inEvent {
				cur.location = unescapeLocation(value)
			}
		case "DTSTART":
			if inEvent {
				// An unparseable date leaves the field missing and the
				// block is dropped at flush.
				if t, err := ParseDateTime(value); err == nil {
					cur.start = t
				}
			}
		case "DTEND":
			if inEvent {
				if t, err := ParseDateTime(value); err == nil {
					cur.end = t
				}
			}
		}
	}

	if res.Sessions == 0 {
		return res, ErrNoSessions
	}
	return res, nil
}

// splitLine cuts a line into key and value at the first ';', else the first
// ':'. Lines with no separator carry no field.
func splitLine(line string) (key, value string, ok bool) {
	if strings.Contains(line, ";") {
		return strings.Cut(line, ";")
	}
	return strings.Cut(line, ":")
}

// parseSummary fills title/group or code/activity depending on dialect.
//
// Timetable dialect: "Course Title, LEC1" -> title and activity group.
// Planner dialect: "Course Title: CSSE2310 T01" -> the part after the colon
// splits on spaces into the course code and a token whose last two
// characters are the activity instance.
func parseSummary(d *draft, value string, dialect Dialect) {
	switch dialect {
	case DialectTimetable:
		parts := strings.Split(value, ", ")
		if len(parts) == 2 {
			d.title = parts[0]
			d.group = parts[1]
		}
	case DialectPlanner:
		title, rest, ok := strings.Cut(value, ":")
		if !ok {
			return
		}
		d.title = strings.TrimSpace(title)
		fields := strings.Fields(rest)
		if len(fields) < 2 {
			return
		}
		d.code = fields[0]
		if tail := fields[len(fields)-1]; len(tail) >= 2 {
			d.activity = tail[len(tail)-2:]
		}
	}
}

// parseDescription recovers course code, term and activity instance.
//
// Timetable dialect: "CSSE2310_S1, Course Title, 01 Practical ..." -> the
// first part splits on '_' into code and term; the third part's leading
// digit run is the activity instance.
// Planner dialect: the raw value is the activity group label and the term
// comes from the caller's hint.
func parseDescription(d *draft, value string, dialect Dialect, termHint model.Term) {
	switch dialect {
	case DialectTimetable:
		parts := strings.Split(value, ", ")
		if len(parts) < 3 {
			return
		}
		idParts := strings.Split(parts[0], "_")
		if len(idParts) < 2 {
			return
		}
		d.code = idParts[0]
		if term, ok := model.ParseTerm(idParts[1]); ok {
			d.term = term
		}
		d.activity = leadingDigits(parts[2])
	case DialectPlanner:
		d.group = value
		d.term = termHint
	}
}

// unescapeLocation reverses the backslash-escaped commas used by exports.
func unescapeLocation(value string) string {
	value = strings.ReplaceAll(value, "\\, ", ", ")
	return strings.ReplaceAll(value, "\\", "")
}

func leadingDigits(s string) string {
	for i, r := range s {
		if r < '0' || r > '9' {
			return s[:i]
		}
	}
	return s
}

// flush converts the accumulated draft into sessions, or drops it when a
// required field is missing. Drops are counted but never surfaced as
// errors.
func (res *ParseResult) flush(d *draft, dialect Dialect) {
	if d.term == "" || !d.complete() {
		res.Dropped++
		if d.code != "" || d.group != "" {
			appLog.Debug("dropping incomplete event block",
				"dialect", string(dialect), "course", d.code, "group", d.group)
		}
		return
	}

	base := model.ClassSession{
		CourseCode:    d.code,
		Title:         d.title,
		Term:          d.term,
		ActivityGroup: d.group,
		ActivityCode:  d.activity,
		Location:      d.location,
		Start:         d.start,
		End:           d.end,
	}

	sessions := []model.ClassSession{base}
	if d.rrule != "" {
		sessions = expandRecurrence(base, d.rrule)
	}

	for _, s := range sessions {
		s.ID = uuid.NewString()
		res.add(s)
	}
}

func (res *ParseResult) add(s model.ClassSession) {
	day := DayOfYear(s.Start)
	res.Events[day] = append(res.Events[day], s)
	res.Sessions++

	if !res.Courses.Contains(s.Term, s.CourseCode) {
		res.Courses[s.Term] = insertSorted(res.Courses[s.Term], s.CourseCode)
	}
}

// DayOfYear returns the 1-based day index of t within its calendar year,
// computed in the reference zone.
func DayOfYear(t time.Time) int {
	return t.In(model.ReferenceZone).YearDay()
}

func insertSorted(codes []string, code string) []string {
	i := 0
	for i < len(codes) && codes[i] < code {
		i++
	}
	codes = append(codes, "")
	copy(codes[i+1:], codes[i:])
	codes[i] = code
	return codes
}
