package records

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/inspectsync/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE records (
  id               TEXT PRIMARY KEY,
  container_number TEXT NOT NULL,
  team_id          TEXT NOT NULL DEFAULT '',
  team_name        TEXT NOT NULL DEFAULT '',
  editor           TEXT NOT NULL DEFAULT '',
  images           TEXT NOT NULL,
  image_hashes     TEXT NOT NULL,
  created_at       INTEGER NOT NULL,
  status           TEXT NOT NULL,
  uploaded_count   INTEGER NOT NULL DEFAULT 0
);`)
	require.NoError(t, err)
	return db
}

var t0 = time.Date(2026, 5, 4, 9, 30, 0, 123456789, time.UTC)

func rec(id string, offset time.Duration, st models.Status, n, uploaded int) models.RepairRecord {
	r := models.RepairRecord{
		ID:              id,
		ContainerNumber: "MSCU1234567",
		TeamID:          "team-1",
		TeamName:        "Gate 4",
		Editor:          "ops",
		Timestamp:       t0.Add(offset),
		Status:          st,
		UploadedCount:   uploaded,
	}
	for i := 0; i < n; i++ {
		r.Images = append(r.Images, fmt.Sprintf("data:image/jpeg;base64,%s%d", id, i))
		r.ImageHashes = append(r.ImageHashes, fmt.Sprintf("h-%s-%d", id, i))
	}
	return r
}

func TestSave_ThenGetByID_RoundTripsAllFields(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	in := rec("r1", 0, models.StatusError, 3, 2)
	require.NoError(t, r.Save(ctx, in))

	got, err := r.GetByID(ctx, "r1")
	require.NoError(t, err)
	if diff := cmp.Diff(in, *got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_ReplacesWholeRow(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	first := rec("r1", 0, models.StatusPending, 2, 0)
	require.NoError(t, r.Save(ctx, first))
	require.NoError(t, r.Save(ctx, first.Synced()))

	got, err := r.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, got.Status)
	assert.Equal(t, 2, got.UploadedCount)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSave_IsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	in := rec("r1", 0, models.StatusPending, 1, 0)
	require.NoError(t, r.Save(ctx, in))
	require.NoError(t, r.Save(ctx, in))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Empty(t, cmp.Diff(in, all[0]))
}

func TestSave_RejectsInvalidRecords(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	bad := rec("r1", 0, models.StatusPending, 2, 0)
	bad.ImageHashes = bad.ImageHashes[:1]
	require.ErrorIs(t, r.Save(ctx, bad), models.ErrHashMismatch)

	bad = rec("r2", 0, models.StatusPending, 1, 0)
	bad.ContainerNumber = "abc"
	require.ErrorIs(t, r.Save(ctx, bad), models.ErrInvalidContainerNumber)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSave_EmptyImageList(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, rec("r1", 0, models.StatusPending, 0, 0)))
	got, err := r.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, got.Images)
	assert.Empty(t, got.ImageHashes)
}

func TestUpdate_ReplacesExistingRow(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	in := rec("r1", 0, models.StatusPending, 3, 0)
	require.NoError(t, r.Save(ctx, in))

	next := in.Failed()
	next.UploadedCount = 1
	require.NoError(t, r.Update(ctx, next))

	got, err := r.GetByID(ctx, "r1")
	require.NoError(t, err)
	if diff := cmp.Diff(next, *got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_DeletedRecordStaysDeleted(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	in := rec("r1", 0, models.StatusPending, 1, 0)
	require.NoError(t, r.Save(ctx, in))
	require.NoError(t, r.Delete(ctx, "r1"))

	require.ErrorIs(t, r.Update(ctx, in.Failed()), ErrNotFound)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdate_RejectsInvalidRecords(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	in := rec("r1", 0, models.StatusPending, 2, 0)
	require.NoError(t, r.Save(ctx, in))

	bad := in
	bad.UploadedCount = 5
	require.ErrorIs(t, r.Update(ctx, bad), models.ErrUploadedCountRange)
}

func TestGetByID_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetNeedingRetry_FiltersAndOrdersByAge(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, rec("c", 2*time.Second, models.StatusPending, 1, 0)))
	require.NoError(t, r.Save(ctx, rec("a", 0, models.StatusError, 2, 1)))
	require.NoError(t, r.Save(ctx, rec("b", time.Second, models.StatusSynced, 1, 1)))
	require.NoError(t, r.Save(ctx, rec("d", 2*time.Second, models.StatusError, 1, 0)))

	queue, err := r.GetNeedingRetry(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(queue))
	for _, q := range queue {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"a", "c", "d"}, ids)
}

func TestDelete_AndClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, rec("a", 0, models.StatusPending, 1, 0)))
	require.NoError(t, r.Save(ctx, rec("b", 0, models.StatusPending, 1, 0)))

	require.NoError(t, r.Delete(ctx, "a"))
	require.NoError(t, r.Delete(ctx, "a"))
	_, err := r.GetByID(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Clear(ctx))
	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
