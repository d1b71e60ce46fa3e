package accel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// replaySource plays back a recorded CSV log. Files written by the
// consumers carry a "#HDR ms,ax,ay,az,mag,hp_abs,rms,label" comment line;
// only the ax/ay/az columns are consumed so the derived features are
// recomputed by the live pipeline.
type replaySource struct {
	f       *os.File
	scanner *bufio.Scanner
}

// NewReplaySource opens a CSV log for playback. Read returns io.EOF once
// the file is exhausted.
func NewReplaySource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	return &replaySource{f: f, scanner: bufio.NewScanner(f)}, nil
}

func (r *replaySource) Read() (Sample, error) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return parseSampleLine(line)
	}
	if err := r.scanner.Err(); err != nil {
		return Sample{}, fmt.Errorf("replay read: %w", err)
	}
	return Sample{}, io.EOF
}

// Close releases the underlying file.
func (r *replaySource) Close() error { return r.f.Close() }
