package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/inspectsync/internal/models"
	"github.com/dmitrijs2005/inspectsync/internal/repositories/settings"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func openTemp(t *testing.T) *Repositories {
	t.Helper()
	repos, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "device.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func TestOpen_CreatesSchema(t *testing.T) {
	repos := openTemp(t)

	assert.True(t, tableExists(t, repos.DB, "records"))
	assert.True(t, tableExists(t, repos.DB, "settings"))
	assert.True(t, tableExists(t, repos.DB, "leases"))
	assert.True(t, tableExists(t, repos.DB, "goose_db_version"))
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	repos := openTemp(t)
	require.NoError(t, RunMigrations(context.Background(), repos.DB))
	require.NoError(t, RunMigrations(context.Background(), repos.DB))
}

func TestOpen_MemoryDSN(t *testing.T) {
	repos, err := Open(context.Background(), MemoryDSN)
	require.NoError(t, err)
	defer repos.Close()
	assert.True(t, tableExists(t, repos.DB, "records"))
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "device.db")

	repos, err := Open(ctx, path)
	require.NoError(t, err)
	r, err := models.NewRecord(models.Draft{
		ContainerNumber: "MSCU1234567",
		Images:          []string{"a"},
		ImageHashes:     []string{"h"},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, repos.Records.Save(ctx, r))
	require.NoError(t, repos.Close())

	repos, err = Open(ctx, path)
	require.NoError(t, err)
	defer repos.Close()

	got, err := repos.Records.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestReset_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	repos := openTemp(t)

	r, err := models.NewRecord(models.Draft{
		ContainerNumber: "MSCU1234567",
		Images:          []string{"a"},
		ImageHashes:     []string{"h"},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, repos.Records.Save(ctx, r))
	require.NoError(t, settings.SetEndpointURL(ctx, repos.Settings, "http://localhost:9000"))

	require.NoError(t, Reset(ctx, repos.DB))

	all, err := repos.Records.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	kv, err := repos.Settings.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, kv)
}
