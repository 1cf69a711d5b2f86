package backups

import (
	"context"
	"errors"

	"github.com/julianstephens/habithero/internal/backup"
	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/logger"
)

var errNotSQLite = errors.New("backups are only supported for the SQLite store; use pg_dump for PostgreSQL")

func manager(ctx *cli.Context) (*backup.Manager, error) {
	path, ok := ctx.SQLitePath()
	if !ok {
		return nil, errNotSQLite
	}
	return backup.NewManager(path), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	info, err := mgr.Create(context.Background())
	if err != nil {
		return err
	}
	ctx.Printf("%s Backup created: %s\n", cli.SuccessStyle.Render("✓"), info.Name)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}

	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		ctx.Printf("  %s  %s  (%.1f KB)\n", b.CreatedAt.Local().Format("2006-01-02 15:04:05"), b.Name, float64(b.Size)/1024.0)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	Backup string `arg:"" help:"File name (from 'backup list') or path of the backup to restore."`
	Yes    bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Resolve(c.Backup)
	if err != nil {
		return err
	}

	if !c.Yes {
		ctx.Println(cli.WarningStyle.Render("This will replace your current database with the backup."))
		ctx.Println("A backup of your current database will be created before restoring.")
		ok, err := ctx.Confirm("Restore from " + path + "?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Close(); err != nil {
		logger.Warn("Failed to close database before restore", "err", err)
	}

	previous, err := mgr.Restore(context.Background(), path)
	if err != nil {
		return err
	}
	if previous.Name != "" {
		ctx.Printf("Previous database saved as %s\n", previous.Name)
	}
	ctx.Printf("%s Database restored.\n", cli.SuccessStyle.Render("✓"))
	return nil
}
