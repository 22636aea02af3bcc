package timetable

import (
	"context"
	"errors"
	"fmt"

	appLog "socialtt/internal/log"
	"socialtt/internal/model"
)

// ProfileStore is the slice of the document store the import pipeline
// needs. The concrete implementation lives in internal/store.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*model.UserProfile, error)
	PutProfile(ctx context.Context, p *model.UserProfile) error
}

// Importer runs the full import pipeline: fetch the export text, parse it
// with the requested dialect, and replace the user's timetable wholesale.
// Writes are last-writer-wins; racing imports are resolved by the store.
type Importer struct {
	fetcher *Fetcher
	store   ProfileStore
}

func NewImporter(fetcher *Fetcher, store ProfileStore) *Importer {
	return &Importer{fetcher: fetcher, store: store}
}

// ImportRequest names the user, the export location and the parsing rules.
type ImportRequest struct {
	UserID  string
	URL     string
	Dialect Dialect
	Term    model.Term
}

// ImportReport summarizes a completed import for the caller's UI.
type ImportReport struct {
	Sessions int `json:"sessions"`
	Courses  int `json:"courses"`
	Dropped  int `json:"dropped"`
}

// Import fetches and parses the export, then persists the rebuilt
// EventIndex/CourseSet pair on the user's profile along with the source so
// the refresh scheduler can repeat the import later.
//
// An import that parses to zero sessions leaves the stored profile
// untouched and returns ErrNoSessions.
func (imp *Importer) Import(ctx context.Context, req ImportRequest) (*ImportReport, error) {
	text, err := imp.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	res, err := Parse(text, req.Dialect, req.Term)
	if err != nil {
		return nil, err
	}
	if res.Dropped > 0 {
		appLog.Warn("import dropped malformed event blocks",
			"user", req.UserID, "dropped", res.Dropped)
	}

	profile, err := imp.store.GetProfile(ctx, req.UserID)
	switch {
	case errors.Is(err, model.ErrNoProfile):
		// First import for this user; the share path hits this before any
		// directory record exists.
		profile = model.NewUserProfile(req.UserID, "")
	case err != nil:
		return nil, fmt.Errorf("loading profile %q: %w", req.UserID, err)
	}

	profile.Events = res.Events
	profile.Courses = res.Courses
	profile.Source = &model.ImportSource{
		URL:     req.URL,
		Term:    req.Term,
		Dialect: string(req.Dialect),
	}
	if err := imp.store.PutProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("storing profile %q: %w", req.UserID, err)
	}

	courses := 0
	for _, codes := range res.Courses {
		courses += len(codes)
	}
	appLog.Info("timetable imported",
		"user", req.UserID, "sessions", res.Sessions, "courses", courses, "dropped", res.Dropped)

	return &ImportReport{Sessions: res.Sessions, Courses: courses, Dropped: res.Dropped}, nil
}

// Refresh re-runs the saved import for one profile. Profiles without a
// saved source are skipped.
func (imp *Importer) Refresh(ctx context.Context, profile *model.UserProfile) error {
	if profile.Source == nil {
		return nil
	}
	dialect, ok := ParseDialect(profile.Source.Dialect)
	if !ok {
		return fmt.Errorf("profile %q has unknown dialect %q", profile.ID, profile.Source.Dialect)
	}
	_, err := imp.Import(ctx, ImportRequest{
		UserID:  profile.ID,
		URL:     profile.Source.URL,
		Dialect: dialect,
		Term:    profile.Source.Term,
	})
	if errors.Is(err, ErrNoSessions) {
		// The institution republishes empty feeds between terms; keep the
		// last good import.
		appLog.Warn("refresh produced no sessions; keeping previous timetable", "user", profile.ID)
		return nil
	}
	return err
}
