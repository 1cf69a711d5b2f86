// Package challenges holds the commands for joining and tracking multi-day
// challenges.
package challenges

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianstephens/habithero/internal/challenge"
	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/service"
)

type ChallengeCmd struct {
	List       ChallengeListCmd       `cmd:"" help:"List challenges and your progress." default:"1"`
	Show       ChallengeShowCmd       `cmd:"" help:"Show one challenge in detail."`
	Join       ChallengeJoinCmd       `cmd:"" help:"Join a challenge and add its habits."`
	AddMissing ChallengeAddMissingCmd `cmd:"" name:"add-missing" help:"Re-add challenge habits you deleted."`
	Evaluate   ChallengeEvaluateCmd   `cmd:"" help:"Judge the days since the last check."`
}

type ChallengeListCmd struct {
	JSON bool `help:"Print as JSON." name:"json"`
}

func (c *ChallengeListCmd) Run(ctx *cli.Context) error {
	cs, err := open(ctx)
	if err != nil {
		return err
	}
	views, err := cs.List(context.Background())
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal challenges: %w", err)
		}
		ctx.Println(string(data))
		return nil
	}

	notices, err := cs.LifeLostNotices(context.Background())
	if err != nil {
		return err
	}
	for _, id := range notices {
		ctx.Println(cli.DangerStyle.Render(fmt.Sprintf("You lost a life in %s.", id)))
	}

	ctx.Println(cli.TitleStyle.Render("Challenges"))
	for _, v := range views {
		ctx.Printf("  %s %s (%d days)\n", v.Icon, v.Title, v.DurationDays)
		ctx.Printf("      %s\n", summary(v))
		ctx.Printf("      %s\n", cli.MutedStyle.Render("id "+v.ID))
	}
	return nil
}

type ChallengeShowCmd struct {
	ID   string `arg:"" help:"Challenge ID."`
	JSON bool   `help:"Print as JSON." name:"json"`
}

func (c *ChallengeShowCmd) Run(ctx *cli.Context) error {
	cs, err := open(ctx)
	if err != nil {
		return err
	}
	v, err := cs.Get(context.Background(), c.ID)
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal challenge: %w", err)
		}
		ctx.Println(string(data))
		return nil
	}

	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("%s %s", v.Icon, v.Title)))
	ctx.Println(v.Description)
	ctx.Printf("  %s\n", summary(v))
	if v.Enrollment != nil && v.Enrollment.Status == challenge.StatusActive {
		if v.CompletedToday {
			ctx.Println(cli.SuccessStyle.Render("  All challenge habits done today"))
		} else {
			ctx.Println(cli.WarningStyle.Render("  Challenge habits still open today"))
		}
	}

	ctx.Println()
	ctx.Println("Habits:")
	for _, t := range v.Habits {
		mark := "  "
		for _, id := range v.MissingTemplates {
			if id == t.ID {
				mark = cli.DangerStyle.Render("! ")
			}
		}
		ctx.Printf("  %s%s %s (due by %s)\n", mark, t.Emoji, t.Name, t.Deadline)
	}
	if len(v.MissingTemplates) > 0 {
		ctx.Printf("\n%s\n", cli.MutedStyle.Render(
			fmt.Sprintf("Missing: %s. Run 'habithero challenge add-missing %s'.",
				strings.Join(v.MissingTemplates, ", "), v.ID)))
	}
	if v.WhyItMatters != "" {
		ctx.Printf("\n%s\n", cli.MutedStyle.Render(v.WhyItMatters))
	}
	return nil
}

type ChallengeJoinCmd struct {
	ID string `arg:"" help:"Challenge ID."`
}

func (c *ChallengeJoinCmd) Run(ctx *cli.Context) error {
	cs, err := open(ctx)
	if err != nil {
		return err
	}
	res, err := cs.Join(context.Background(), c.ID)
	if err != nil {
		return err
	}
	ctx.Println(cli.SuccessStyle.Render(fmt.Sprintf("Joined %s", res.Challenge.Title)))
	ctx.Printf("Day 1 of %d, %d lives.\n", res.Challenge.DurationDays, res.Challenge.Enrollment.Lives)
	for _, h := range res.Habits {
		ctx.Printf("  + %s %s (due by %s)\n", h.IconRef, h.Name, h.Deadline())
	}
	return nil
}

type ChallengeAddMissingCmd struct {
	ID string `arg:"" help:"Challenge ID."`
}

func (c *ChallengeAddMissingCmd) Run(ctx *cli.Context) error {
	cs, err := open(ctx)
	if err != nil {
		return err
	}
	added, err := cs.AddMissing(context.Background(), c.ID)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		ctx.Println("No challenge habits are missing.")
		return nil
	}
	for _, h := range added {
		ctx.Println(cli.SuccessStyle.Render(fmt.Sprintf("Added habit: %s", h.Name)))
	}
	return nil
}

type ChallengeEvaluateCmd struct {
	JSON bool `help:"Print as JSON." name:"json"`
}

func (c *ChallengeEvaluateCmd) Run(ctx *cli.Context) error {
	cs, err := open(ctx)
	if err != nil {
		return err
	}
	reports, err := cs.Evaluate(context.Background())
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal reports: %w", err)
		}
		ctx.Println(string(data))
		return nil
	}

	if len(reports) == 0 {
		ctx.Println("Nothing to evaluate.")
		return nil
	}
	for _, r := range reports {
		line := fmt.Sprintf("%s: %s, %d lives left", r.ChallengeID, r.Status, r.Lives)
		switch {
		case r.Status == challenge.StatusFailed:
			line += fmt.Sprintf(", %d habits removed", r.HabitsDeleted)
			ctx.Println(cli.DangerStyle.Render(line))
		case r.Status == challenge.StatusCompleted:
			ctx.Println(cli.SuccessStyle.Render(line))
		case r.LivesLost > 0:
			ctx.Println(cli.WarningStyle.Render(fmt.Sprintf("%s (lost %d)", line, r.LivesLost)))
		default:
			ctx.Println(line)
		}
	}
	return nil
}

func open(ctx *cli.Context) (*service.ChallengeService, error) {
	if err := ctx.Store.Load(); err != nil {
		return nil, err
	}
	ctx.ConnectEvents()
	return ctx.ChallengeService()
}

func summary(v service.ChallengeView) string {
	e := v.Enrollment
	if e == nil {
		return cli.MutedStyle.Render("not joined")
	}
	switch e.Status {
	case challenge.StatusCompleted:
		return cli.SuccessStyle.Render(fmt.Sprintf("completed (%d/%d days kept)", e.SuccessDays, e.DurationDays))
	case challenge.StatusFailed:
		return cli.DangerStyle.Render(fmt.Sprintf("failed on day %d", v.CurrentDay))
	}
	return fmt.Sprintf("Day %d/%d | %d%% | lives %s",
		v.CurrentDay, e.DurationDays, int(v.Progress*100), strings.Repeat("♥", e.Lives))
}
