package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort/internal/types"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := NewRunStore(filepath.Join(t.TempDir(), "cohort.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(ts time.Time) *types.RunResult {
	return &types.RunResult{
		RunID:      uuid.NewString(),
		Method:     types.MethodPartitional,
		Timestamp:  ts,
		Assignment: types.ClusterAssignment{0, 0, 1, types.NoiseLabel, 1},
	}
}

func TestRunStore_SaveAndGetRun(t *testing.T) {
	s := newTestStore(t)

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	result := sampleResult(ts)
	require.NoError(t, s.SaveRun(result, "report body"))

	rec, err := s.GetRun(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, rec.ID)
	assert.Equal(t, types.MethodPartitional, rec.Method)
	assert.True(t, rec.CreatedAt.Equal(ts))
	assert.Equal(t, 2, rec.Groups)
	assert.Equal(t, 1, rec.Noise)
	assert.Equal(t, 5, rec.Records)
	assert.Equal(t, result.Assignment, rec.Assignment)
	assert.Equal(t, "report body", rec.Report)
}

func TestRunStore_GetRun_Missing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun("no-such-run")
	assert.ErrorContains(t, err, "not found")
}

func TestRunStore_ListRuns_NewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		r := sampleResult(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, s.SaveRun(r, ""))
		ids = append(ids, r.RunID)
	}

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[0], runs[2].ID)

	limited, err := s.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRunStore_Snapshots(t *testing.T) {
	s := newTestStore(t)

	latest, err := s.LatestSnapshot()
	require.NoError(t, err)
	assert.Nil(t, latest, "empty store has no snapshot")

	first, err := s.SaveSnapshot([]byte(`{"v":1}`))
	require.NoError(t, err)
	second, err := s.SaveSnapshot([]byte(`{"v":2}`))
	require.NoError(t, err)
	assert.Greater(t, second, first)

	latest, err = s.LatestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), latest)
}

func TestRunStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cohort.db")

	s, err := NewRunStore(path)
	require.NoError(t, err)
	result := sampleResult(time.Now().UTC())
	require.NoError(t, s.SaveRun(result, "persisted"))
	require.NoError(t, s.Close())

	s2, err := NewRunStore(path)
	require.NoError(t, err)
	defer s2.Close()

	rec, err := s2.GetRun(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", rec.Report)
}
