package habits

import (
	"context"

	"github.com/julianstephens/habithero/internal/cli"
)

type HabitDeleteCmd struct {
	ID  string `arg:"" help:"ID of the habit."`
	Yes bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	ctx.ConnectEvents()
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	view, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		return err
	}
	if !c.Yes {
		ok, err := ctx.Confirm("Delete " + view.Name + " and its completion history?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}

	if err := svc.Delete(context.Background(), c.ID); err != nil {
		return err
	}
	ctx.Printf("%s Deleted habit: %s\n", cli.SuccessStyle.Render("✓"), view.Name)
	return nil
}
