package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// ErrNoProfile reports that no profile document exists for the requested
// user ID. Store implementations wrap their backend's not-found condition
// into this sentinel.
var ErrNoProfile = errors.New("profile not found")

// ReferenceZone is the institution's local zone (UTC+10, no daylight
// saving). Day-of-year keys and half-hour slot keys are computed here so
// that every client sees the same bucketing regardless of device zone.
// Reassigned once at startup when the config names a different zone.
var ReferenceZone = time.FixedZone("UTC+10", 10*3600)

// Term identifies an academic period.
type Term string

const (
	TermS1 Term = "S1"
	TermS2 Term = "S2"
	TermS3 Term = "S3"
)

// ParseTerm validates a term string against the closed term set.
func ParseTerm(s string) (Term, bool) {
	switch Term(s) {
	case TermS1, TermS2, TermS3:
		return Term(s), true
	}
	return "", false
}

// ClassSession is one scheduled class meeting with a fixed start and end.
// Sessions are immutable values; the parser only emits sessions whose
// required fields are all present and whose start precedes their end.
type ClassSession struct {
	ID            string    `json:"id"`
	CourseCode    string    `json:"course_code"`
	Title         string    `json:"title,omitempty"`
	Term          Term      `json:"term"`
	ActivityGroup string    `json:"activity_group"`
	ActivityCode  string    `json:"activity_code"`
	Location      string    `json:"location"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

// Duration returns the session length.
func (s ClassSession) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// DurationText formats the session length as "H:MM" for event cards.
func (s ClassSession) DurationText() string {
	minutes := int(s.Duration() / time.Minute)
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// TimeRangeText formats the session's start and end in the reference zone.
func (s ClassSession) TimeRangeText() string {
	const layout = "15:04"
	return s.Start.In(ReferenceZone).Format(layout) + " - " + s.End.In(ReferenceZone).Format(layout)
}

// EventIndex maps a day-of-year key (1-366, reference zone) to the sessions
// starting on that day. It is rebuilt wholesale on each import and only
// patched incrementally by course add/remove.
type EventIndex map[int][]ClassSession

// CourseSet maps a term to the sorted course codes added for that term.
// A code appears here iff at least one session with that (code, term) pair
// exists in the owning EventIndex.
type CourseSet map[Term][]string

// Contains reports whether code is present for the given term.
func (c CourseSet) Contains(term Term, code string) bool {
	for _, have := range c[term] {
		if have == code {
			return true
		}
	}
	return false
}

// UserProfile is the externally-owned user record: identity, display
// preferences, friend list, and the imported timetable data. The core reads
// profiles and hands mutated copies back to the document store; it never
// shares mutable references.
type UserProfile struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Color       int        `json:"color"`
	Friends     []string   `json:"friends"`
	Events      EventIndex `json:"events"`
	Courses     CourseSet  `json:"courses"`

	// Source remembers the last import so the refresh scheduler can
	// re-run it. Nil for users who never imported by URL.
	Source *ImportSource `json:"source,omitempty"`
}

// ImportSource is a saved timetable import request.
type ImportSource struct {
	URL     string `json:"url"`
	Term    Term   `json:"term"`
	Dialect string `json:"dialect"`
}

// NewUserProfile creates a profile with a random display color in the
// packed 24-bit RGB range. An empty display name defaults to the local part
// of the ID, which is an email address.
func NewUserProfile(id, displayName string) *UserProfile {
	if displayName == "" {
		displayName, _, _ = strings.Cut(id, "@")
	}
	return &UserProfile{
		ID:          id,
		DisplayName: displayName,
		Color:       rand.Intn(1 << 24),
		Friends:     []string{},
		Events:      EventIndex{},
		Courses:     CourseSet{},
	}
}

// UserRef is the slim identity triple rendered on event cards. Grid
// payloads carry refs, never whole profiles.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Color       int    `json:"color"`
}

// Ref returns the profile's card identity.
func (p *UserProfile) Ref() UserRef {
	return UserRef{ID: p.ID, DisplayName: p.DisplayName, Color: p.Color}
}

// UserEvent pairs a session with the profile that owns it. Produced by the
// merge step, consumed by the row packer; never persisted.
type UserEvent struct {
	User    *UserProfile
	Session ClassSession
}

// MarshalJSON emits the owner as a UserRef so a day grid does not embed
// every friend's full timetable once per lane.
func (e UserEvent) MarshalJSON() ([]byte, error) {
	var ref UserRef
	if e.User != nil {
		ref = e.User.Ref()
	}
	return json.Marshal(struct {
		User    UserRef      `json:"user"`
		Session ClassSession `json:"session"`
	}{ref, e.Session})
}

// LayoutRows maps a half-hour slot key (minutes since midnight in the
// reference zone) to the lane list for that slot. A nil entry means the lane
// is occupied by the continuation of an event that started earlier.
type LayoutRows map[int][]*UserEvent
