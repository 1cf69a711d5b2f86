package system

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/config"
	"github.com/julianstephens/habithero/internal/utils"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized habithero storage at: %s\n", ctx.Store.GetConfigPath())

	if ctx.SettingsPath == "" {
		return nil
	}
	path := utils.ExpandHome(ctx.SettingsPath)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := config.Save(path, ctx.Config); err != nil {
		return err
	}
	ctx.Printf("Wrote settings to: %s\n", path)
	return nil
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Migrator()
	if !ok {
		return fmt.Errorf("store %s does not support migrations", ctx.Store.GetConfigPath())
	}
	n, err := m.Migrate(context.Background(), func(msg string) {
		ctx.Printf("  %s\n", msg)
	})
	if err != nil {
		return err
	}
	if n == 0 {
		ctx.Println("Database is up to date.")
		return nil
	}
	ctx.Printf("%s Applied %d migration(s).\n", cli.SuccessStyle.Render("✓"), n)
	return nil
}
