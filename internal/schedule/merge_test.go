package schedule

import (
	"testing"
	"time"

	"socialtt/internal/model"
)

func TestMergeDay(t *testing.T) {
	monday := time.Date(2023, time.March, 6, 10, 0, 0, 0, model.ReferenceZone)
	day := 65

	alice := model.NewUserProfile("alice@example.edu", "")
	alice.Events = model.EventIndex{
		day: {session("a1", "CSSE2310", model.TermS1, monday, time.Hour)},
	}
	bob := model.NewUserProfile("bob@example.edu", "")
	bob.Events = model.EventIndex{
		day: {
			session("b1", "COMP3506", model.TermS1, monday, time.Hour),
			session("b2", "MATH1051", model.TermS1, monday.Add(2*time.Hour), time.Hour),
		},
	}

	events := MergeDay(day, []*model.UserProfile{alice, bob}, nil)
	if len(events) != 3 {
		t.Fatalf("merged %d events, want 3", len(events))
	}
	if events[0].User != alice || events[1].User != bob || events[2].User != bob {
		t.Error("merge does not follow profile iteration order")
	}

	// Hidden profiles contribute nothing.
	events = MergeDay(day, []*model.UserProfile{alice, bob}, map[string]bool{"bob@example.edu": true})
	if len(events) != 1 || events[0].User != alice {
		t.Errorf("exclusion failed: %v", events)
	}

	// A day with no sessions merges to an empty list.
	if events := MergeDay(200, []*model.UserProfile{alice, bob}, nil); len(events) != 0 {
		t.Errorf("empty day produced %d events", len(events))
	}
}
