package habits

import (
	"context"
	"sort"

	"github.com/julianstephens/habithero/internal/cli"
)

type StatsCmd struct {
	Earned bool `help:"Show only earned badges."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	report, err := svc.Stats(context.Background())
	if err != nil {
		return err
	}

	s := report.Stats
	ctx.Println(cli.TitleStyle.Render("Stats"))
	ctx.Printf("  Habits:           %d\n", s.ActiveHabits)
	ctx.Printf("  Completions:      %d\n", s.TotalCompleted)
	ctx.Printf("  Current streak:   %d\n", s.CurrentStreak)
	ctx.Printf("  Best streak:      %d\n", s.BestStreak)

	if len(s.CategoryCounts) > 0 {
		names := make([]string, 0, len(s.CategoryCounts))
		for name := range s.CategoryCounts {
			names = append(names, name)
		}
		sort.Strings(names)
		ctx.Println()
		ctx.Println(cli.TitleStyle.Render("By category"))
		for _, name := range names {
			ctx.Printf("  %-28s %d\n", name, s.CategoryCounts[name])
		}
	}

	ctx.Println()
	ctx.Println(cli.TitleStyle.Render("Badges"))
	group := ""
	for _, b := range report.Badges {
		if c.Earned && !b.Earned {
			continue
		}
		if b.Group != group {
			group = b.Group
			ctx.Printf("  %s\n", group)
		}
		mark := cli.MutedStyle.Render("[ ]")
		if b.Earned {
			mark = cli.SuccessStyle.Render("[✓]")
		}
		ctx.Printf("    %s %s\n", mark, b.Name)
	}
	return nil
}
