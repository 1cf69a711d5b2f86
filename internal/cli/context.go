// Package cli holds the state shared by the habithero commands. The commands
// themselves live in the subpackages.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/habithero/internal/config"
	"github.com/julianstephens/habithero/internal/events"
	"github.com/julianstephens/habithero/internal/identity"
	"github.com/julianstephens/habithero/internal/logger"
	"github.com/julianstephens/habithero/internal/service"
	"github.com/julianstephens/habithero/internal/storage"
	"github.com/julianstephens/habithero/internal/storage/cache"
	"github.com/julianstephens/habithero/internal/storage/postgres"
	"github.com/julianstephens/habithero/internal/storage/sqlite"
	"github.com/julianstephens/habithero/internal/streak"
	"github.com/julianstephens/habithero/internal/utils"
)

// Migrator is implemented by stores with an embedded schema.
type Migrator interface {
	Migrate(ctx context.Context, logFn func(string)) (int, error)
	SchemaVersion(ctx context.Context) (current, latest int, err error)
}

// Session stores the signed-in CLI user.
type Session interface {
	identity.Provider
	Login(userID string) error
	Logout() error
}

type Context struct {
	Store        storage.Provider
	Config       config.Config
	SettingsPath string
	Session      Session
	// Users resolves the acting user. Defaults to Session.
	Users     identity.Provider
	Engine    *streak.Engine
	Publisher events.Publisher

	Out io.Writer
	In  io.Reader

	closers []func() error
}

// NewContext builds the store described by cfg and the collaborators shared
// by every command.
func NewContext(cfg config.Config, settingsPath string) (*Context, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg.DatabaseLocation())
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		Store:        store,
		Config:       cfg,
		SettingsPath: settingsPath,
		Session:      identity.NewKeyring(),
		Engine:       streak.New(loc),
		Publisher:    events.Nop{},
		Out:          os.Stdout,
		In:           os.Stdin,
	}

	if cfg.Cache.Enabled {
		rdb := cache.NewClient(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		ctx.Store = cache.New(store, rdb, cfg.Cache.TTL)
		ctx.closers = append(ctx.closers, rdb.Close)
		logger.Debug("Habit list cache enabled", "addr", cfg.Cache.Addr)
	}
	return ctx, nil
}

// OpenStore picks the backend from the location: postgres URLs use
// PostgreSQL, anything else is a SQLite file path.
func OpenStore(location string) (storage.Provider, error) {
	if utils.IsPostgresURL(location) {
		if err := postgres.ValidateConnString(location); err != nil {
			return nil, err
		}
		return postgres.New(location), nil
	}
	return sqlite.NewStore(utils.ExpandHome(location)), nil
}

// ConnectEvents switches the publisher to the configured broker. A broker
// that cannot be reached is logged and events are dropped.
func (c *Context) ConnectEvents() {
	if !c.Config.Events.Enabled {
		return
	}
	pub, err := events.NewAMQPPublisher(c.Config.Events.URL)
	if err != nil {
		logger.Warn("Event broker unavailable, events will be dropped", "err", err)
		return
	}
	c.Publisher = pub
	c.closers = append(c.closers, pub.Close)
}

// Service builds the habit service for the acting user.
func (c *Context) Service() (*service.HabitService, error) {
	users := c.Users
	if users == nil {
		users = c.Session
	}
	return service.New(c.Store, users, c.Engine, service.WithPublisher(c.Publisher))
}

// ChallengeService builds the challenge service on top of the habit service.
func (c *Context) ChallengeService() (*service.ChallengeService, error) {
	habits, err := c.Service()
	if err != nil {
		return nil, err
	}
	return service.NewChallenges(c.Store, habits, nil)
}

// Migrator returns the schema manager behind the store, if it has one.
func (c *Context) Migrator() (Migrator, bool) {
	store := c.Store
	if wrapped, ok := store.(*cache.Store); ok {
		store = wrapped.Inner()
	}
	m, ok := store.(Migrator)
	return m, ok
}

// SQLitePath returns the database file when the store is SQLite.
func (c *Context) SQLitePath() (string, bool) {
	store := c.Store
	if wrapped, ok := store.(*cache.Store); ok {
		store = wrapped.Inner()
	}
	if s, ok := store.(*sqlite.Store); ok {
		return s.GetConfigPath(), true
	}
	return "", false
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

// Print writes to the command output.
func (c *Context) Print(args ...interface{}) {
	fmt.Fprint(c.Out, args...)
}

// Println writes a line to the command output.
func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// Confirm asks a yes/no question on the command input. Anything but y or
// yes is a no.
func (c *Context) Confirm(prompt string) (bool, error) {
	c.Printf("%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}

// Close releases the store and any connections opened for the command.
func (c *Context) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}
