package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habithero/internal/logger"
	"github.com/julianstephens/habithero/internal/migration"
	"github.com/julianstephens/habithero/internal/storage"
	"github.com/julianstephens/habithero/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

var _ storage.Provider = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

// dsn enables foreign keys so completions cascade with their habit.
func (s *Store) dsn() string {
	return "file:" + s.path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if err := s.runMigrations(context.Background()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotInitialized
	}

	if err := s.open(); err != nil {
		return err
	}

	return s.runner().ValidateVersion(context.Background())
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) runner() *migration.Runner {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		// The directory is embedded at build time.
		panic(fmt.Sprintf("sqlite migrations missing from binary: %v", err))
	}
	return migration.NewRunner(s.db, sub, migration.SQLite)
}

func (s *Store) runMigrations(ctx context.Context) error {
	_, err := s.runner().Apply(ctx, func(msg string) {
		logger.Info(msg, "backend", "sqlite")
	})
	return err
}

// Migrate applies pending migrations to an existing database.
func (s *Store) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	if s.db == nil {
		if _, err := os.Stat(s.path); os.IsNotExist(err) {
			return 0, storage.ErrNotInitialized
		}
		if err := s.open(); err != nil {
			return 0, err
		}
	}
	return s.runner().Apply(ctx, logFn)
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// SchemaVersion reports the applied and the latest known migration versions.
func (s *Store) SchemaVersion(ctx context.Context) (current, latest int, err error) {
	if s.db == nil {
		return 0, 0, storage.ErrNotInitialized
	}
	r := s.runner()
	if current, err = r.CurrentVersion(ctx); err != nil {
		return 0, 0, err
	}
	if latest, err = r.LatestVersion(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}
