package timetable

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialtt/internal/model"
)

// memStore is an in-memory ProfileStore for pipeline tests.
type memStore struct {
	profiles map[string]*model.UserProfile
	puts     int
}

func newMemStore() *memStore {
	return &memStore{profiles: map[string]*model.UserProfile{}}
}

func (m *memStore) GetProfile(_ context.Context, id string) (*model.UserProfile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, model.ErrNoProfile
	}
	return p, nil
}

func (m *memStore) PutProfile(_ context.Context, p *model.UserProfile) error {
	m.profiles[p.ID] = p
	m.puts++
	return nil
}

func TestImporterImport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(timetableExport))
	}))
	defer srv.Close()

	st := newMemStore()
	imp := NewImporter(NewFetcher(time.Minute), st)

	report, err := imp.Import(context.Background(), ImportRequest{
		UserID:  "s4697741@student.uq.edu.au",
		URL:     srv.URL,
		Dialect: DialectTimetable,
		Term:    model.TermS1,
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Sessions != 2 || report.Courses != 2 || report.Dropped != 0 {
		t.Errorf("report = %+v, want 2 sessions, 2 courses, 0 dropped", report)
	}

	p, ok := st.profiles["s4697741@student.uq.edu.au"]
	if !ok {
		t.Fatal("import did not create the profile")
	}
	if p.DisplayName != "s4697741" {
		t.Errorf("DisplayName = %q, want local part of the email", p.DisplayName)
	}
	if p.Source == nil || p.Source.URL != srv.URL || p.Source.Dialect != string(DialectTimetable) {
		t.Errorf("Source = %+v, want saved import request", p.Source)
	}
	if !p.Courses.Contains(model.TermS1, "CSSE2310") {
		t.Errorf("Courses = %v, want CSSE2310 under S1", p.Courses)
	}
}

func TestImporterNoContentLeavesStoreUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("BEGIN:VCALENDAR\nEND:VCALENDAR\n"))
	}))
	defer srv.Close()

	st := newMemStore()
	imp := NewImporter(NewFetcher(time.Minute), st)

	_, err := imp.Import(context.Background(), ImportRequest{
		UserID:  "u@example.edu",
		URL:     srv.URL,
		Dialect: DialectTimetable,
		Term:    model.TermS1,
	})
	if !errors.Is(err, ErrNoSessions) {
		t.Fatalf("err = %v, want ErrNoSessions", err)
	}
	if st.puts != 0 {
		t.Errorf("store written %d times on empty import, want 0", st.puts)
	}
}

func TestImporterTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	imp := NewImporter(NewFetcher(time.Minute), newMemStore())
	_, err := imp.Import(context.Background(), ImportRequest{
		UserID:  "u@example.edu",
		URL:     srv.URL,
		Dialect: DialectTimetable,
		Term:    model.TermS1,
	})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestImporterRefreshUsesSavedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(plannerExport))
	}))
	defer srv.Close()

	st := newMemStore()
	profile := model.NewUserProfile("u@example.edu", "")
	profile.Source = &model.ImportSource{
		URL:     srv.URL,
		Term:    model.TermS2,
		Dialect: string(DialectPlanner),
	}
	st.profiles[profile.ID] = profile

	imp := NewImporter(NewFetcher(time.Minute), st)
	if err := imp.Refresh(context.Background(), profile); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	got := st.profiles[profile.ID]
	if !got.Courses.Contains(model.TermS2, "COMP4403") {
		t.Errorf("refresh did not replace timetable: %v", got.Courses)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://timetable.my.uq.edu.au/share/abc123", "https://timetable.my.uq.edu.au/...(redacted)"},
		{"not a url", "...(redacted)"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
