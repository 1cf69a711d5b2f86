package system

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habithero/internal/cli"
)

type DebugCmd struct {
	DBPath    DebugDBPathCmd    `cmd:"" help:"Show database path."`
	DumpHabit DebugDumpHabitCmd `cmd:"" help:"Dump habit data as JSON."`
	Config    DebugConfigCmd    `cmd:"" help:"Show the effective settings as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{
		"path": ctx.Store.GetConfigPath(),
	})
}

type DebugDumpHabitCmd struct {
	ID string `arg:"" help:"ID of the habit to dump."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	userID, err := ctx.Session.CurrentUserID(context.Background())
	if err != nil {
		return err
	}
	// Read straight from the store so the dump shows persisted state.
	h, err := ctx.Store.GetHabit(context.Background(), userID, cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to get habit %s: %w", cmd.ID, err)
	}
	return printJSON(ctx, h)
}

type DebugConfigCmd struct{}

func (cmd *DebugConfigCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	if cfg.Auth.JWTSecret != "" {
		cfg.Auth.JWTSecret = "<redacted>"
	}
	if cfg.Cache.Password != "" {
		cfg.Cache.Password = "<redacted>"
	}
	return printJSON(ctx, cfg)
}

func printJSON(ctx *cli.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(data))
	return nil
}
