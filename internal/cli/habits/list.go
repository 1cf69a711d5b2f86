package habits

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/service"
	"github.com/julianstephens/habithero/internal/streak"
)

type HabitListCmd struct {
	Today bool `help:"Show only habits scheduled for today."`
	JSON  bool `help:"Print as JSON." name:"json"`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	views, err := svc.List(context.Background())
	if err != nil {
		return err
	}

	if c.Today {
		due := views[:0]
		for _, v := range views {
			if v.DueToday {
				due = append(due, v)
			}
		}
		views = due
	}

	if c.JSON {
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal habits: %w", err)
		}
		ctx.Println(string(data))
		return nil
	}

	if len(views) == 0 {
		ctx.Println("No habits found. Add one with 'habithero habit add'.")
		return nil
	}

	ctx.Println(cli.TitleStyle.Render("Habits"))
	for _, v := range views {
		ctx.Printf("  %s %s\n", statusMark(v), v.Name)
		ctx.Printf("      %s | %s | due by %s | streak %d (best %d)\n",
			v.Category, v.Schedule, v.Deadline(), v.StreakCount, v.LongestStreak)
		ctx.Printf("      %s\n", cli.MutedStyle.Render("id "+v.ID))
	}
	return nil
}

func statusMark(v service.HabitView) string {
	switch {
	case v.Status == streak.StatusCompletedOnTime:
		return cli.SuccessStyle.Render("[✓]")
	case v.Status == streak.StatusCompletedLate:
		return cli.WarningStyle.Render("[~]")
	case !v.DueToday:
		return cli.MutedStyle.Render("[-]")
	default:
		return "[ ]"
	}
}
