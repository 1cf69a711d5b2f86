package habits

import (
	"context"

	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/service"
)

type HabitAddCmd struct {
	Name      string   `arg:"" help:"Habit name."`
	Category  string   `help:"Category (see 'habithero categories')." default:"Create Your Own"`
	Frequency string   `help:"daily, weekly or custom." default:"daily" enum:"daily,weekly,custom"`
	Days      string   `help:"Weekdays for weekly/custom habits, e.g. mon,wed,fri."`
	Deadline  string   `help:"Daily deadline (HH:MM)." default:"21:00"`
	Target    int      `help:"Completions expected per day." default:"1"`
	Reminder  []string `help:"Reminder time (HH:MM). Repeatable."`
	Icon      string   `help:"Icon reference. Defaults to the category icon."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	weekdays, err := parseWeekdays(c.Days)
	if err != nil {
		return err
	}
	ctx.ConnectEvents()
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	h, err := svc.Create(context.Background(), service.CreateInput{
		Name:                  c.Name,
		Category:              c.Category,
		IconRef:               c.Icon,
		Frequency:             c.Frequency,
		Weekdays:              weekdays,
		Deadline:              c.Deadline,
		DailyCompletionTarget: c.Target,
		ReminderTimes:         c.Reminder,
	})
	if err != nil {
		return err
	}

	ctx.Printf("%s Added habit: %s (%s)\n", cli.SuccessStyle.Render("✓"), h.Name, h.Category)
	ctx.Printf("  ID: %s\n", h.ID)
	ctx.Printf("  Schedule: %s, due by %s\n", h.Schedule, h.Deadline())
	return nil
}
