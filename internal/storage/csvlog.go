package storage

import (
	"bufio"
	"fmt"
	"os"

	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

const csvHeader = "#HDR ms,ax,ay,az,mag,hp_abs,rms,label"

// CSVLog appends telemetry records to a plain-text log in the playback
// format the replay sample source consumes, so a recorded run can be fed
// back through the pipeline without hardware.
type CSVLog struct {
	f *os.File
	w *bufio.Writer
}

// NewCSVLog creates (or truncates) the log file and writes the header.
func NewCSVLog(path string) (*CSVLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv log: %w", err)
	}
	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return &CSVLog{f: f, w: w}, nil
}

// Append writes one record row.
func (l *CSVLog) Append(out motion.Output) error {
	_, err := fmt.Fprintf(l.w, "%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%s\n",
		out.MS, out.Ax, out.Ay, out.Az, out.Mag, out.HPAbs, out.RMS, out.Label)
	if err != nil {
		return fmt.Errorf("append csv row: %w", err)
	}
	return nil
}

// Close flushes and closes the log file.
func (l *CSVLog) Close() error {
	if err := l.w.Flush(); err != nil {
		l.f.Close()
		return fmt.Errorf("flush csv log: %w", err)
	}
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("close csv log: %w", err)
	}
	return nil
}
