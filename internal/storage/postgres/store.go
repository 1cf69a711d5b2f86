package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/logger"
	"github.com/julianstephens/habithero/internal/migration"
	"github.com/julianstephens/habithero/internal/storage"
	"github.com/julianstephens/habithero/migrations"
)

type Store struct {
	connStr string
	db      *sql.DB
}

var _ storage.Provider = (*Store)(nil)

func New(connStr string) *Store {
	return &Store{
		connStr: withSearchPath(connStr),
	}
}

func (s *Store) open(ctx context.Context) error {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return connectError(s.connStr, err)
	}
	s.db = db
	return nil
}

func (s *Store) Init() error {
	ctx := context.Background()
	if s.db == nil {
		if err := s.open(ctx); err != nil {
			return err
		}
	}

	if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+constants.AppName); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := s.runner().Apply(ctx, func(msg string) {
		logger.Info(msg, "backend", "postgres")
	}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	ctx := context.Background()
	if err := s.open(ctx); err != nil {
		return err
	}
	return s.runner().ValidateVersion(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Migrate applies pending migrations.
func (s *Store) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	if s.db == nil {
		if err := s.open(ctx); err != nil {
			return 0, err
		}
	}
	return s.runner().Apply(ctx, logFn)
}

func (s *Store) runner() *migration.Runner {
	sub, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		panic(fmt.Sprintf("postgres migrations missing from binary: %v", err))
	}
	return migration.NewRunner(s.db, sub, migration.Postgres)
}

func (s *Store) GetConfigPath() string {
	// Return a non-sensitive identifier instead of the full connection string
	return "postgresql"
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
