package habits

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type HabitCmd struct {
	Add      HabitAddCmd      `cmd:"" help:"Add a new habit."`
	List     HabitListCmd     `cmd:"" help:"List habits with today's status." default:"1"`
	Complete HabitCompleteCmd `cmd:"" help:"Mark a habit as done for today."`
	Delete   HabitDeleteCmd   `cmd:"" help:"Delete a habit and its history."`
	Log      HabitLogCmd      `cmd:"" help:"Show a month of completions for a habit."`
}

var dayNames = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// parseWeekdays reads a comma separated list of day names or numbers
// (0=Sunday, 6=Saturday). An empty string yields no days.
func parseWeekdays(s string) ([]time.Weekday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var weekdays []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if wd, ok := dayNames[part]; ok {
			weekdays = append(weekdays, wd)
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 || num > 6 {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		weekdays = append(weekdays, time.Weekday(num))
	}
	return weekdays, nil
}
