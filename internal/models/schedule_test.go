package models

import (
	"testing"
	"time"

	"github.com/julianstephens/habithero/internal/constants"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name     string
		freq     string
		weekdays []time.Weekday
		want     Schedule
		wantErr  bool
	}{
		{
			name: "daily",
			freq: "daily",
			want: Schedule{Frequency: constants.FrequencyDaily},
		},
		{
			name: "empty frequency defaults to daily",
			freq: "",
			want: Schedule{Frequency: constants.FrequencyDaily},
		},
		{
			name:     "daily rejects weekdays",
			freq:     "daily",
			weekdays: []time.Weekday{time.Monday},
			wantErr:  true,
		},
		{
			name:     "weekly with one day",
			freq:     "Weekly",
			weekdays: []time.Weekday{time.Wednesday},
			want:     Schedule{Frequency: constants.FrequencyWeekly, Weekdays: []time.Weekday{time.Wednesday}},
		},
		{
			name:    "weekly without day",
			freq:    "weekly",
			wantErr: true,
		},
		{
			name:     "weekly with two days",
			freq:     "weekly",
			weekdays: []time.Weekday{time.Monday, time.Tuesday},
			wantErr:  true,
		},
		{
			name:     "custom sorts weekdays",
			freq:     "custom",
			weekdays: []time.Weekday{time.Friday, time.Monday, time.Wednesday},
			want:     Schedule{Frequency: constants.FrequencyCustom, Weekdays: []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		},
		{
			name:    "custom without days",
			freq:    "custom",
			wantErr: true,
		},
		{
			name:     "custom with duplicate day",
			freq:     "custom",
			weekdays: []time.Weekday{time.Monday, time.Monday},
			wantErr:  true,
		},
		{
			name:     "custom with invalid day",
			freq:     "custom",
			weekdays: []time.Weekday{time.Weekday(7)},
			wantErr:  true,
		},
		{
			name:    "unknown frequency",
			freq:    "monthly",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.freq, tt.weekdays)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSchedule() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Frequency != tt.want.Frequency {
				t.Errorf("Frequency = %s, want %s", got.Frequency, tt.want.Frequency)
			}
			if len(got.Weekdays) != len(tt.want.Weekdays) {
				t.Fatalf("Weekdays = %v, want %v", got.Weekdays, tt.want.Weekdays)
			}
			for i := range got.Weekdays {
				if got.Weekdays[i] != tt.want.Weekdays[i] {
					t.Errorf("Weekdays[%d] = %s, want %s", i, got.Weekdays[i], tt.want.Weekdays[i])
				}
			}
		})
	}
}

func TestSchedule_IsDueOn(t *testing.T) {
	daily := NewDailySchedule()
	weekly, err := NewWeeklySchedule(time.Saturday)
	if err != nil {
		t.Fatalf("NewWeeklySchedule failed: %v", err)
	}
	custom, err := NewCustomSchedule(time.Monday, time.Wednesday, time.Friday)
	if err != nil {
		t.Fatalf("NewCustomSchedule failed: %v", err)
	}

	tests := []struct {
		name     string
		schedule Schedule
		day      time.Weekday
		want     bool
	}{
		{"daily on sunday", daily, time.Sunday, true},
		{"daily on thursday", daily, time.Thursday, true},
		{"weekly on matching day", weekly, time.Saturday, true},
		{"weekly on other day", weekly, time.Friday, false},
		{"custom on monday", custom, time.Monday, true},
		{"custom on tuesday", custom, time.Tuesday, false},
		{"zero value is daily", Schedule{}, time.Tuesday, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.schedule.IsDueOn(tt.day); got != tt.want {
				t.Errorf("IsDueOn(%s) = %v, want %v", tt.day, got, tt.want)
			}
		})
	}
}

func TestSchedule_String(t *testing.T) {
	custom, _ := NewCustomSchedule(time.Tuesday, time.Thursday)
	weekly, _ := NewWeeklySchedule(time.Sunday)

	tests := []struct {
		schedule Schedule
		want     string
	}{
		{NewDailySchedule(), "daily"},
		{weekly, "weekly on Sun"},
		{custom, "custom on Tue,Thu"},
	}
	for _, tt := range tests {
		if got := tt.schedule.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
