// Package backup snapshots and restores the SQLite habit database.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/logger"
	"github.com/julianstephens/habithero/internal/storage/sqlite"
)

const stampFormat = "20060102-150405"

// ErrNoDatabase is returned when there is no database file to back up.
var ErrNoDatabase = errors.New("database does not exist")

// Info describes one backup file.
type Info struct {
	Name      string
	Path      string
	CreatedAt time.Time
	Size      int64
}

// Manager creates, lists and restores backups of one database file. Backups
// live in a "backups" directory next to the database.
type Manager struct {
	dbPath string
	dir    string
	keep   int
	now    func() time.Time
}

func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath: dbPath,
		dir:    filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		keep:   constants.MaxBackups,
		now:    time.Now,
	}
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create snapshots the database and prunes backups beyond the retention limit.
func (m *Manager) Create(ctx context.Context) (Info, error) {
	info, err := m.create(ctx)
	if err != nil {
		return Info{}, err
	}
	if err := m.prune(); err != nil {
		logger.Warn("Failed to prune old backups", "dir", m.dir, "err", err)
	}
	return info, nil
}

func (m *Manager) create(ctx context.Context) (Info, error) {
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return Info{}, fmt.Errorf("%w: %s", ErrNoDatabase, m.dbPath)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return Info{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	path, err := m.nextPath()
	if err != nil {
		return Info{}, err
	}

	src, err := sql.Open("sqlite", "file:"+m.dbPath+"?mode=ro")
	if err != nil {
		return Info{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer src.Close()

	// VACUUM INTO writes a consistent copy even while another connection
	// holds the database open.
	if _, err := src.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return Info{}, fmt.Errorf("failed to back up database: %w", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat backup: %w", err)
	}
	created, _ := parseName(filepath.Base(path))
	logger.Info("Backup created", "path", path, "size", fi.Size())
	return Info{Name: filepath.Base(path), Path: path, CreatedAt: created, Size: fi.Size()}, nil
}

// nextPath picks an unused file name for the current second.
func (m *Manager) nextPath() (string, error) {
	stamp := m.now().UTC().Format(stampFormat)
	for n := 0; n < 100; n++ {
		name := constants.BackupFilePrefix + stamp
		if n > 0 {
			name += "-" + strconv.Itoa(n)
		}
		path := filepath.Join(m.dir, name+constants.BackupFileSuffix)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique backup filename")
}

// parseName extracts the creation time and sequence number from a backup
// file name.
func parseName(name string) (time.Time, int) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		return time.Time{}, 0
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)

	seq := 0
	if len(stamp) > len(stampFormat) && stamp[len(stampFormat)] == '-' {
		n, err := strconv.Atoi(stamp[len(stampFormat)+1:])
		if err != nil {
			return time.Time{}, 0
		}
		seq = n
		stamp = stamp[:len(stampFormat)]
	}
	t, err := time.Parse(stampFormat, stamp)
	if err != nil {
		return time.Time{}, 0
	}
	return t, seq
}

// List returns the backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	type entry struct {
		info Info
		seq  int
	}
	var found []entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		created, seq := parseName(e.Name())
		if created.IsZero() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, entry{
			info: Info{Name: e.Name(), Path: filepath.Join(m.dir, e.Name()), CreatedAt: created, Size: fi.Size()},
			seq:  seq,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].info.CreatedAt.Equal(found[j].info.CreatedAt) {
			return found[i].info.CreatedAt.After(found[j].info.CreatedAt)
		}
		return found[i].seq > found[j].seq
	})

	backups := make([]Info, len(found))
	for i, f := range found {
		backups[i] = f.info
	}
	return backups, nil
}

func (m *Manager) prune() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for _, b := range backups[min(m.keep, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", b.Name, err)
		}
		logger.Debug("Removed old backup", "path", b.Path)
	}
	return nil
}

// Resolve accepts a backup file name from List or a path and returns the path.
func (m *Manager) Resolve(nameOrPath string) (string, error) {
	path := nameOrPath
	if !strings.ContainsRune(nameOrPath, os.PathSeparator) {
		path = filepath.Join(m.dir, nameOrPath)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("backup %s not found: %w", nameOrPath, err)
	}
	return path, nil
}

// Restore replaces the database with the given backup. The current database,
// if any, is backed up first; its backup is returned.
func (m *Manager) Restore(ctx context.Context, nameOrPath string) (Info, error) {
	path, err := m.Resolve(nameOrPath)
	if err != nil {
		return Info{}, err
	}
	if err := verify(ctx, path); err != nil {
		return Info{}, fmt.Errorf("backup %s is not a usable habithero database: %w", filepath.Base(path), err)
	}

	var previous Info
	if _, err := os.Stat(m.dbPath); err == nil {
		// Not pruned, so the backup being restored cannot be rotated away.
		previous, err = m.create(ctx)
		if err != nil {
			return Info{}, fmt.Errorf("failed to back up current database before restore: %w", err)
		}
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return Info{}, fmt.Errorf("failed to copy backup: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "err", rmErr)
		}
		return Info{}, fmt.Errorf("failed to restore database: %w", err)
	}
	logger.Info("Backup restored", "from", path, "previous", previous.Path)
	return previous, nil
}

// verify requires the habits table, then opens path as a habit store,
// which rejects schemas newer than this binary.
func verify(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return err
	}
	var n int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'habits'`).Scan(&n)
	db.Close()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("habits table missing")
	}

	store := sqlite.NewStore(path)
	if err := store.Load(); err != nil {
		return err
	}
	return store.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := out.ReadFrom(in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
