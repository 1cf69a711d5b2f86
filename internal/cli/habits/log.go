package habits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/constants"
)

type HabitLogCmd struct {
	ID    string `arg:"" help:"ID of the habit."`
	Month string `help:"Month to show (YYYY-MM). Defaults to the current month."`
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	view, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		return err
	}
	cal, err := svc.Calendar(context.Background(), c.ID, c.Month)
	if err != nil {
		return err
	}
	grid, err := renderMonth(cal.Month, cal.Days)
	if err != nil {
		return err
	}

	ctx.Println(cli.TitleStyle.Render(view.Name))
	ctx.Print(grid)
	ctx.Printf("\n%d of this month's days completed. Current streak %d, best %d.\n",
		len(cal.Days), view.StreakCount, view.LongestStreak)
	return nil
}

// renderMonth draws a Sunday-first calendar of month with completed days
// bracketed.
func renderMonth(month string, completed []string) (string, error) {
	first, err := time.Parse(constants.MonthFormat, month)
	if err != nil {
		return "", fmt.Errorf("invalid month %q (expected YYYY-MM): %w", month, err)
	}
	done := make(map[int]bool, len(completed))
	for _, day := range completed {
		if d, err := time.Parse(constants.DateFormat, day); err == nil && d.Year() == first.Year() && d.Month() == first.Month() {
			done[d.Day()] = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", first.Format("January 2006"))
	b.WriteString(" Su  Mo  Tu  We  Th  Fr  Sa\n")

	days := first.AddDate(0, 1, -1).Day()
	col := int(first.Weekday())
	b.WriteString(strings.Repeat("    ", col))
	for day := 1; day <= days; day++ {
		if done[day] {
			b.WriteString(cli.HighlightStyle.Render(fmt.Sprintf("[%2d]", day)))
		} else {
			fmt.Fprintf(&b, " %2d ", day)
		}
		col++
		if col == 7 && day != days {
			b.WriteString("\n")
			col = 0
		}
	}
	b.WriteString("\n")
	return b.String(), nil
}
