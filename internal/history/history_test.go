package history

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndListRuns(t *testing.T) {
	db := openTestDB(t)

	run := &Run{
		ID:          uuid.NewString(),
		Hostname:    "host1",
		VGFilter:    "vg0",
		OutputPath:  "peepdrive.txt",
		VGCount:     1,
		PVCount:     2,
		LVCount:     1,
		ReportLines: 28,
		TotalBytes:  10737418240,
	}
	vgs := []RunVG{
		{RunID: run.ID, VGName: "vg0", OrderTier: "authoritative", PVCount: 2, LVCount: 1, SizeBytes: 10737418240},
	}

	require.NoError(t, db.RecordRun(run, vgs))

	runs, err := db.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "vg0", runs[0].VGFilter)
	assert.Equal(t, 2, runs[0].PVCount)
	assert.Equal(t, int64(10737418240), runs[0].TotalBytes)
	assert.False(t, runs[0].CreatedAt.IsZero())

	got, err := db.RunVGs(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "authoritative", got[0].OrderTier)
	assert.Equal(t, int64(10737418240), got[0].SizeBytes)
}

func TestRecentRunsEmpty(t *testing.T) {
	db := openTestDB(t)

	runs, err := db.RecentRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := Open(path)
	require.NoError(t, err)
	run := &Run{ID: uuid.NewString(), Hostname: "host1"}
	require.NoError(t, db.RecordRun(run, nil))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}
