package storage

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db)
	require.NoError(t, repo.InitSchema())
	return repo
}

func TestRepositoryRoundtrip(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.BeginSession(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	records := []motion.Output{
		{MS: 10, Ax: 0.01, Ay: -0.02, Az: 0.99, Mag: 0.9903, HPAbs: 0.004, RMS: 0.012, Label: motion.LabelCalm},
		{MS: 20, Ax: 0.20, Ay: 0.10, Az: 1.10, Mag: 1.1225, HPAbs: 0.130, RMS: 0.150, Label: motion.LabelFoot},
	}
	for _, r := range records {
		require.NoError(t, repo.InsertSample(id, r))
	}

	n, err := repo.CountSamples(id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.SessionSamples(id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0], got[0])
	assert.Equal(t, records[1], got[1])
}

func TestRepositorySessionsAreIsolated(t *testing.T) {
	repo := setupTestRepo(t)

	a, err := repo.BeginSession(time.Now())
	require.NoError(t, err)
	b, err := repo.BeginSession(time.Now())
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	require.NoError(t, repo.InsertSample(a, motion.Output{MS: 1, Label: motion.LabelCalm}))
	require.NoError(t, repo.InsertSample(a, motion.Output{MS: 2, Label: motion.LabelCalm}))
	require.NoError(t, repo.InsertSample(b, motion.Output{MS: 1, Label: motion.LabelJump}))

	na, err := repo.CountSamples(a)
	require.NoError(t, err)
	nb, err := repo.CountSamples(b)
	require.NoError(t, err)
	assert.Equal(t, 2, na)
	assert.Equal(t, 1, nb)
}

func TestRepositorySamplesOrderedByMS(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.BeginSession(time.Now())
	require.NoError(t, err)

	for _, ms := range []int64{30, 10, 20} {
		require.NoError(t, repo.InsertSample(id, motion.Output{MS: ms, Label: motion.LabelCalm}))
	}

	got, err := repo.SessionSamples(id)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(10), got[0].MS)
	assert.Equal(t, int64(20), got[1].MS)
	assert.Equal(t, int64(30), got[2].MS)
}
