package storage

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/habithero/internal/models"
)

func TestPrepareNew(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 30, 15, 500, time.FixedZone("X", 3600))
	h := models.NewHabit("Go for a 30-minute walk", "Health & Fitness")
	h.CompletionDates = nil

	got, err := PrepareNew("user-1", h, now)
	if err != nil {
		t.Fatalf("PrepareNew failed: %v", err)
	}
	if got.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", got.UserID)
	}
	want := time.Date(2024, 1, 1, 7, 30, 15, 0, time.UTC)
	if !got.CreatedAt.Equal(want) || got.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want)
	}
	if got.CompletionDates == nil {
		t.Error("expected non-nil completion dates")
	}

	again, err := PrepareNew("user-1", h, now)
	if err != nil {
		t.Fatalf("PrepareNew failed: %v", err)
	}
	if again.ID == got.ID {
		t.Error("expected distinct IDs for distinct habits")
	}
}

func TestPrepareNewRejectsInvalid(t *testing.T) {
	if _, err := PrepareNew("", models.NewHabit("Walk", ""), time.Now()); err == nil {
		t.Error("expected error for empty user id")
	}
	if _, err := PrepareNew("user-1", models.NewHabit("", ""), time.Now()); err == nil {
		t.Error("expected error for empty habit name")
	}
}

func TestWeekdaysEncoding(t *testing.T) {
	tests := []struct {
		name    string
		days    []time.Weekday
		encoded string
	}{
		{"nil", nil, "[]"},
		{"single", []time.Weekday{time.Monday}, "[1]"},
		{"several", []time.Weekday{time.Sunday, time.Wednesday, time.Saturday}, "[0,3,6]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := EncodeWeekdays(tt.days)
			if err != nil {
				t.Fatalf("EncodeWeekdays failed: %v", err)
			}
			if enc != tt.encoded {
				t.Errorf("EncodeWeekdays() = %s, want %s", enc, tt.encoded)
			}
			dec, err := DecodeWeekdays(enc)
			if err != nil {
				t.Fatalf("DecodeWeekdays failed: %v", err)
			}
			if diff := cmp.Diff(tt.days, dec); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := DecodeWeekdays("not json"); err == nil {
		t.Error("expected error for malformed weekdays")
	}
}

func TestStringsEncoding(t *testing.T) {
	enc, err := EncodeStrings([]string{"08:00", "20:00"})
	if err != nil {
		t.Fatalf("EncodeStrings failed: %v", err)
	}
	dec, err := DecodeStrings(enc)
	if err != nil {
		t.Fatalf("DecodeStrings failed: %v", err)
	}
	if diff := cmp.Diff([]string{"08:00", "20:00"}, dec); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	empty, _ := EncodeStrings(nil)
	if empty != "[]" {
		t.Errorf("EncodeStrings(nil) = %s, want []", empty)
	}
	if dec, _ := DecodeStrings(empty); dec != nil {
		t.Errorf("DecodeStrings([]) = %v, want nil", dec)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	schedule, err := models.NewCustomSchedule(time.Friday, time.Monday)
	if err != nil {
		t.Fatalf("NewCustomSchedule failed: %v", err)
	}
	h := models.NewHabit("Sketch or doodle", "Creativity & Expression")
	h.ID = "h-1"
	h.UserID = "user-1"
	h.Schedule = schedule
	h.ReminderTimes = []string{"09:00"}
	h.Completed = true
	h.StreakCount = 2
	h.LongestStreak = 5
	h.CompletionCount = 9
	h.CompletionDates = []string{"2024-01-01", "2024-01-05"}
	h.CreatedAt = time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)

	rec, err := EncodeHabit(h)
	if err != nil {
		t.Fatalf("EncodeHabit failed: %v", err)
	}
	if rec.Frequency != "custom" || rec.Weekdays != "[1,5]" {
		t.Errorf("unexpected schedule columns: %s %s", rec.Frequency, rec.Weekdays)
	}

	got, err := rec.Decode(h.CreatedAt, h.CompletionDates)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordDecodeRejectsBadSchedule(t *testing.T) {
	rec := Record{ID: "h-1", Frequency: "weekly", Weekdays: "[]"}
	if _, err := rec.Decode(time.Now(), nil); err == nil {
		t.Error("expected error for weekly schedule without a weekday")
	}
}
