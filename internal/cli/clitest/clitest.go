// Package clitest builds command contexts backed by a temporary SQLite
// database for command tests.
package clitest

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/config"
	"github.com/julianstephens/habithero/internal/events"
	"github.com/julianstephens/habithero/internal/identity"
	"github.com/julianstephens/habithero/internal/storage/sqlite"
	"github.com/julianstephens/habithero/internal/streak"
)

// Session is an in-memory cli.Session.
type Session struct {
	identity.Static
}

func (s *Session) Login(userID string) error {
	s.Static = identity.Static(userID)
	return nil
}

func (s *Session) Logout() error {
	if s.Static == "" {
		return identity.ErrNoUser
	}
	s.Static = ""
	return nil
}

// New returns an initialized context signed in as userID, and the buffer
// collecting its output. Input reads from input.
func New(t *testing.T, userID, input string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "habithero.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	cfg := config.Default()
	cfg.Database = store.GetConfigPath()
	cfg.Timezone = "UTC"
	cfg.Auth.JWTSecret = "test-secret"

	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Store:        store,
		Config:       cfg,
		SettingsPath: filepath.Join(dir, "config.toml"),
		Session:      &Session{Static: identity.Static(userID)},
		Engine:       streak.New(time.UTC),
		Publisher:    &events.Memory{},
		Out:          out,
		In:           strings.NewReader(input),
	}
	t.Cleanup(func() { ctx.Close() })
	return ctx, out
}
