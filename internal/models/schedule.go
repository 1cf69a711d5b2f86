package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habithero/internal/constants"
)

// Schedule describes on which days a habit is expected. Build it through
// NewDailySchedule, NewWeeklySchedule, NewCustomSchedule or ParseSchedule so
// the weekday set always matches the frequency.
type Schedule struct {
	Frequency constants.Frequency `json:"frequency"`
	Weekdays  []time.Weekday      `json:"weekdays,omitempty"`
}

// NewDailySchedule returns a schedule that is due every day.
func NewDailySchedule() Schedule {
	return Schedule{Frequency: constants.FrequencyDaily}
}

// NewWeeklySchedule returns a schedule that is due once a week on the given weekday.
func NewWeeklySchedule(day time.Weekday) (Schedule, error) {
	if day < time.Sunday || day > time.Saturday {
		return Schedule{}, fmt.Errorf("invalid weekday: %d", day)
	}
	return Schedule{Frequency: constants.FrequencyWeekly, Weekdays: []time.Weekday{day}}, nil
}

// NewCustomSchedule returns a schedule due on each of the given weekdays.
func NewCustomSchedule(days ...time.Weekday) (Schedule, error) {
	if len(days) == 0 {
		return Schedule{}, fmt.Errorf("custom schedule requires at least one weekday")
	}
	seen := make(map[time.Weekday]bool, len(days))
	set := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return Schedule{}, fmt.Errorf("invalid weekday: %d", d)
		}
		if seen[d] {
			return Schedule{}, fmt.Errorf("duplicate weekday: %s", d)
		}
		seen[d] = true
		set = append(set, d)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return Schedule{Frequency: constants.FrequencyCustom, Weekdays: set}, nil
}

// ParseSchedule builds a schedule from a frequency name and its weekdays.
func ParseSchedule(freq string, weekdays []time.Weekday) (Schedule, error) {
	switch constants.Frequency(strings.ToLower(strings.TrimSpace(freq))) {
	case constants.FrequencyDaily, "":
		if len(weekdays) > 0 {
			return Schedule{}, fmt.Errorf("daily schedule does not take weekdays")
		}
		return NewDailySchedule(), nil
	case constants.FrequencyWeekly:
		if len(weekdays) != 1 {
			return Schedule{}, fmt.Errorf("weekly schedule requires exactly one weekday, got %d", len(weekdays))
		}
		return NewWeeklySchedule(weekdays[0])
	case constants.FrequencyCustom:
		return NewCustomSchedule(weekdays...)
	default:
		return Schedule{}, fmt.Errorf("unknown frequency: %q", freq)
	}
}

// Validate checks that a schedule (for example one decoded from storage)
// still satisfies the construction rules.
func (s Schedule) Validate() error {
	_, err := ParseSchedule(string(s.Frequency), s.Weekdays)
	return err
}

// IsDueOn reports whether the schedule expects the habit on the given weekday.
func (s Schedule) IsDueOn(day time.Weekday) bool {
	if s.Frequency == constants.FrequencyDaily || s.Frequency == "" {
		return true
	}
	for _, wd := range s.Weekdays {
		if wd == day {
			return true
		}
	}
	return false
}

// String returns a human-readable description of the schedule
func (s Schedule) String() string {
	switch s.Frequency {
	case constants.FrequencyWeekly, constants.FrequencyCustom:
		days := make([]string, len(s.Weekdays))
		for i, wd := range s.Weekdays {
			days[i] = wd.String()[:3]
		}
		return fmt.Sprintf("%s on %s", s.Frequency, strings.Join(days, ","))
	default:
		return string(constants.FrequencyDaily)
	}
}
