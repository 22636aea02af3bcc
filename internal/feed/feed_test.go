package feed

import (
	"strings"
	"testing"
	"time"

	"socialtt/internal/model"
)

func testProfile() *model.UserProfile {
	p := model.NewUserProfile("s4697741@student.uq.edu.au", "Sam")
	start := time.Date(2023, time.March, 6, 10, 0, 0, 0, model.ReferenceZone)
	p.Events = model.EventIndex{
		67: {{
			ID:            "uid-wed",
			CourseCode:    "COMP3506",
			Title:         "Algorithms and Data Structures",
			Term:          model.TermS1,
			ActivityGroup: "TUT3",
			ActivityCode:  "07",
			Location:      "78-122",
			Start:         start.AddDate(0, 0, 2),
			End:           start.AddDate(0, 0, 2).Add(time.Hour),
		}},
		65: {{
			ID:            "uid-mon",
			CourseCode:    "CSSE2310",
			Title:         "Computer Systems Principles and Programming",
			Term:          model.TermS1,
			ActivityGroup: "LEC1",
			ActivityCode:  "01",
			Location:      "49-200",
			Start:         start,
			End:           start.Add(2 * time.Hour),
		}},
	}
	return p
}

func TestSerialize(t *testing.T) {
	out := Serialize(testProfile())

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"UID:uid-mon",
		"UID:uid-wed",
		"SUMMARY:CSSE2310 LEC1",
		"SUMMARY:COMP3506 TUT3",
		"LOCATION:49-200",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("serialized feed missing %q", want)
		}
	}

	// Days emit in ascending order regardless of map iteration.
	if strings.Index(out, "UID:uid-mon") > strings.Index(out, "UID:uid-wed") {
		t.Error("Monday session emitted after Wednesday session")
	}
}

func TestSerializeEmptyProfile(t *testing.T) {
	p := model.NewUserProfile("u@example.edu", "")
	out := Serialize(p)
	if !strings.Contains(out, "BEGIN:VCALENDAR") || strings.Contains(out, "BEGIN:VEVENT") {
		t.Errorf("empty profile should serialize to an event-free calendar:\n%s", out)
	}
}
