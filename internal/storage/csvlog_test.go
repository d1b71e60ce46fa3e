package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/vibration_monitor/internal/accel"
	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

func TestCSVLogHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")

	log, err := NewCSVLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "#HDR ms,ax,ay,az,mag,hp_abs,rms,label\n"))
}

// A written log must be consumable by the replay source: the recorded
// axis values come back as samples, in order, followed by EOF.
func TestCSVLogReplayRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")

	log, err := NewCSVLog(path)
	require.NoError(t, err)

	records := []motion.Output{
		{MS: 10, Ax: 0.011, Ay: -0.022, Az: 0.991, Mag: 0.9914, HPAbs: 0.0041, RMS: 0.0123, Label: motion.LabelCalm},
		{MS: 20, Ax: 0.204, Ay: 0.101, Az: 1.102, Mag: 1.1252, HPAbs: 0.1304, RMS: 0.1507, Label: motion.LabelFoot},
		{MS: 30, Ax: -0.350, Ay: 0.001, Az: 1.350, Mag: 1.3946, HPAbs: 0.3901, RMS: 0.3622, Label: motion.LabelJump},
	}
	for _, r := range records {
		require.NoError(t, log.Append(r))
	}
	require.NoError(t, log.Close())

	src, err := accel.NewReplaySource(path)
	require.NoError(t, err)

	for _, want := range records {
		s, err := src.Read()
		require.NoError(t, err)
		assert.InDelta(t, want.Ax, s.Ax, 1e-6)
		assert.InDelta(t, want.Ay, s.Ay, 1e-6)
		assert.InDelta(t, want.Az, s.Az, 1e-6)
	}

	_, err = src.Read()
	assert.ErrorIs(t, err, io.EOF)
}
