package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habithero/internal/backup"
	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/identity"
	"github.com/julianstephens/habithero/internal/utils"
)

type DoctorCmd struct{}

type checkLevel int

const (
	levelOK checkLevel = iota
	levelWarn
	levelFail
	levelSkip
)

type check struct {
	name string
	// needsDB checks are skipped when the database cannot be reached.
	needsDB bool
	run     func(ctx *cli.Context) (checkLevel, error)
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Backups present", run: checkBackupsPresent},
	{name: "Habit integrity", needsDB: true, run: checkHabitsIntegrity},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Keyring", run: checkKeyring},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	report := func(name string, level checkLevel, err error) {
		switch level {
		case levelOK:
			ctx.Printf("%s %s: OK\n", cli.SuccessStyle.Render("✓"), name)
		case levelWarn:
			ctx.Printf("%s %s: WARNING\n", cli.WarningStyle.Render("⚠"), name)
			ctx.Printf("   %v\n", err)
		case levelSkip:
			ctx.Printf("%s %s: SKIPPED (%v)\n", cli.MutedStyle.Render("⊘"), name, err)
		default:
			hasError = true
			ctx.Printf("%s %s: FAIL\n", cli.DangerStyle.Render("❌"), name)
			ctx.Printf("   Error: %v\n", err)
		}
	}

	dbErr := checkDBReachable(ctx)
	if dbErr != nil {
		report("Database reachable", levelFail, dbErr)
	} else {
		report("Database reachable", levelOK, nil)
	}

	for _, c := range checks {
		if c.needsDB && dbErr != nil {
			report(c.name, levelSkip, errors.New("database not reachable"))
			continue
		}
		level, err := c.run(ctx)
		report(c.name, level, err)
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) (checkLevel, error) {
	m, ok := ctx.Migrator()
	if !ok {
		return levelSkip, errors.New("store has no schema")
	}
	current, latest, err := m.SchemaVersion(context.Background())
	if err != nil {
		return levelFail, err
	}
	switch {
	case current > latest:
		return levelFail, fmt.Errorf("database schema version %d is newer than supported version %d", current, latest)
	case current < latest:
		return levelFail, fmt.Errorf("database is at version %d, %d is available; run 'habithero migrate'", current, latest)
	}
	return levelOK, nil
}

func checkBackupsPresent(ctx *cli.Context) (checkLevel, error) {
	path, ok := ctx.SQLitePath()
	if !ok {
		return levelSkip, errors.New("backups are only managed for SQLite")
	}
	found, err := backup.NewManager(path).List()
	if err != nil {
		return levelWarn, fmt.Errorf("failed to list backups: %w", err)
	}
	if len(found) == 0 {
		return levelWarn, errors.New("no backups found; run 'habithero backup create'")
	}
	return levelOK, nil
}

func checkHabitsIntegrity(ctx *cli.Context) (checkLevel, error) {
	userID, err := ctx.Session.CurrentUserID(context.Background())
	if errors.Is(err, identity.ErrNoUser) {
		return levelSkip, errors.New("not signed in")
	}
	if err != nil {
		return levelWarn, err
	}

	habits, err := ctx.Store.LoadHabits(context.Background(), userID)
	if err != nil {
		return levelFail, fmt.Errorf("failed to load habits: %w", err)
	}
	var errs []error
	for _, h := range habits {
		if err := h.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("habit %s (%s): %w", h.ID, h.Name, err))
		}
	}
	if len(errs) > 0 {
		return levelFail, errors.Join(errs...)
	}
	return levelOK, nil
}

func checkClockTimezone(ctx *cli.Context) (checkLevel, error) {
	if _, err := utils.LoadLocation(ctx.Config.Timezone); err != nil {
		return levelFail, fmt.Errorf("invalid timezone %q: %w", ctx.Config.Timezone, err)
	}
	now := time.Now()
	if now.Year() < 2020 {
		return levelFail, fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return levelOK, nil
}

type availabilityChecker interface {
	IsAvailable() bool
}

func checkKeyring(ctx *cli.Context) (checkLevel, error) {
	kr, ok := ctx.Session.(availabilityChecker)
	if !ok {
		return levelSkip, errors.New("session is not stored in the OS keyring")
	}
	if !kr.IsAvailable() {
		return levelWarn, identity.ErrKeyringUnavailable
	}
	return levelOK, nil
}
