package habits

import (
	"context"

	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/service"
	"github.com/julianstephens/habithero/internal/streak"
)

type HabitCompleteCmd struct {
	ID string `arg:"" help:"ID of the habit."`
}

func (c *HabitCompleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	ctx.ConnectEvents()
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	res, err := svc.Complete(context.Background(), c.ID)
	if err != nil {
		return err
	}

	switch res.Status {
	case service.StatusAlreadyCompleted:
		ctx.Printf("%s already completed today. Streak: %d\n", res.Habit.Name, res.Habit.StreakCount)
	case string(streak.OutcomeLate):
		ctx.Printf("%s Completed %s after the %s deadline. Streak reset.\n",
			cli.WarningStyle.Render("~"), res.Habit.Name, res.Habit.Deadline())
	default:
		ctx.Printf("%s Completed %s on time! Streak: %d\n",
			cli.SuccessStyle.Render("✓"), res.Habit.Name, res.Habit.StreakCount)
	}
	return nil
}
