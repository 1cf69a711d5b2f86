package backups

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habithero/internal/cli/clitest"
	"github.com/julianstephens/habithero/internal/service"
	"github.com/julianstephens/habithero/internal/storage/postgres"
)

func TestBackupCommands(t *testing.T) {
	ctx, out := clitest.New(t, "user-1", "")

	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No backups found.")

	svc, err := ctx.Service()
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), service.CreateInput{Name: "Before backup"})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Backup created: habithero-")

	mgr, err := manager(ctx)
	require.NoError(t, err)
	backups, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, backups, 1)

	out.Reset()
	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), backups[0].Name)

	_, err = svc.Create(context.Background(), service.CreateInput{Name: "After backup"})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, (&BackupRestoreCmd{Backup: backups[0].Name, Yes: true}).Run(ctx))
	assert.Contains(t, out.String(), "Database restored.")

	require.NoError(t, ctx.Store.Load())
	views, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Before backup", views[0].Name)
}

func TestBackupRestoreCancelled(t *testing.T) {
	ctx, out := clitest.New(t, "user-1", "no\n")
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))

	mgr, err := manager(ctx)
	require.NoError(t, err)
	backups, err := mgr.List()
	require.NoError(t, err)
	require.NotEmpty(t, backups)

	require.NoError(t, (&BackupRestoreCmd{Backup: backups[0].Name}).Run(ctx))
	assert.Contains(t, out.String(), "Restore cancelled.")
}

func TestBackupsRequireSQLite(t *testing.T) {
	ctx, _ := clitest.New(t, "user-1", "")
	ctx.Store.Close()
	ctx.Store = postgres.New("postgres://habits@localhost/habithero")

	assert.ErrorIs(t, (&BackupCreateCmd{}).Run(ctx), errNotSQLite)
	assert.ErrorIs(t, (&BackupListCmd{}).Run(ctx), errNotSQLite)
}
