// Package storage persists recorded telemetry sessions to sqlite so a
// run can be replayed or analyzed offline.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
  id         INTEGER PRIMARY KEY,
  started_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
  session_id INTEGER NOT NULL,
  ms         INTEGER NOT NULL,
  ax         REAL    NOT NULL,
  ay         REAL    NOT NULL,
  az         REAL    NOT NULL,
  mag        REAL    NOT NULL,
  hp_abs     REAL    NOT NULL,
  rms        REAL    NOT NULL,
  label      TEXT    NOT NULL,
  FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_samples_session_ms ON samples(session_id, ms);
`

// Repository stores telemetry records grouped into sessions.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an open database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InitSchema creates the tables if they do not exist.
func (r *Repository) InitSchema() error {
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// BeginSession opens a new recording session and returns its id.
func (r *Repository) BeginSession(startedAt time.Time) (int64, error) {
	res, err := r.db.Exec(
		`INSERT INTO sessions (started_at) VALUES (?)`,
		startedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("begin session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("begin session id: %w", err)
	}
	return id, nil
}

// InsertSample appends one telemetry record to a session.
func (r *Repository) InsertSample(sessionID int64, out motion.Output) error {
	_, err := r.db.Exec(
		`INSERT INTO samples (session_id, ms, ax, ay, az, mag, hp_abs, rms, label)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, out.MS, out.Ax, out.Ay, out.Az, out.Mag, out.HPAbs, out.RMS, string(out.Label),
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// CountSamples returns the number of records stored for a session.
func (r *Repository) CountSamples(sessionID int64) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM samples WHERE session_id = ?`, sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

// SessionSamples returns a session's records ordered by device time.
func (r *Repository) SessionSamples(sessionID int64) ([]motion.Output, error) {
	rows, err := r.db.Query(
		`SELECT ms, ax, ay, az, mag, hp_abs, rms, label
		 FROM samples WHERE session_id = ? ORDER BY ms`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []motion.Output
	for rows.Next() {
		var o motion.Output
		var label string
		if err := rows.Scan(&o.MS, &o.Ax, &o.Ay, &o.Az, &o.Mag, &o.HPAbs, &o.RMS, &label); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		o.Label = motion.Label(label)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return out, nil
}
