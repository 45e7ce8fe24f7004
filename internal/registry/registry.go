package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run records one phx invocation.
type Run struct {
	ID         string     `json:"id"`
	Command    string     `json:"command"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Errors     int        `json:"errors"`
	Warnings   int        `json:"warnings"`
}

// Allocation records a reserved (phase, seq) pair.
type Allocation struct {
	Phase       int       `json:"phase"`
	Seq         int       `json:"seq"`
	AllocatedAt time.Time `json:"allocatedAt"`
}

// AuditEntry records one mutating operation (renumber, archive, reserve).
type AuditEntry struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Phase     int       `json:"phase"`
	Details   string    `json:"details"` // JSON blob
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot records an archived tree snapshot and its digest.
type Snapshot struct {
	ID        string    `json:"id"`
	Phase     int       `json:"phase"`
	Path      string    `json:"path"`
	SHA256    string    `json:"sha256"`
	CreatedAt time.Time `json:"createdAt"`
}

// StartRun inserts a new run row and returns it.
func (db *DB) StartRun(command string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Command:   command,
		StartedAt: time.Now().UTC(),
	}
	_, err := db.Exec(`
		INSERT INTO runs (id, command, started_at) VALUES (?, ?, ?)
	`, run.ID, run.Command, run.StartedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run with its finish time and finding counts.
func (db *DB) FinishRun(run *Run, errCount, warnCount int) error {
	now := time.Now().UTC()
	_, err := db.Exec(`
		UPDATE runs SET finished_at = ?, error_count = ?, warning_count = ?
		WHERE id = ?
	`, now.Format(time.RFC3339), errCount, warnCount, run.ID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	run.FinishedAt = &now
	run.Errors = errCount
	run.Warnings = warnCount
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT id, command, started_at, finished_at, error_count, warning_count
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Command, &started, &finished, &r.Errors, &r.Warnings); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("parsing run timestamp: %w", err)
		}
		if finished.Valid {
			t, err := time.Parse(time.RFC3339, finished.String)
			if err != nil {
				return nil, fmt.Errorf("parsing run timestamp: %w", err)
			}
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ReserveSequence burns a (phase, seq) pair. Reserving an already
// reserved pair is a no-op so reservation is idempotent.
func (db *DB) ReserveSequence(phase, seq int) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO allocations (phase, seq, allocated_at)
		VALUES (?, ?, ?)
	`, phase, seq, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("reserving sequence %d.%04d: %w", phase, seq, err)
	}
	return nil
}

// MaxAllocatedSeq returns the highest reserved sequence for a phase,
// or 0 when nothing is reserved.
func (db *DB) MaxAllocatedSeq(phase int) (int, error) {
	var max sql.NullInt64
	err := db.QueryRow(`
		SELECT MAX(seq) FROM allocations WHERE phase = ?
	`, phase).Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

// Allocations returns all reservations for a phase in sequence order.
func (db *DB) Allocations(phase int) ([]Allocation, error) {
	rows, err := db.Query(`
		SELECT phase, seq, allocated_at FROM allocations
		WHERE phase = ? ORDER BY seq
	`, phase)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocs []Allocation
	for rows.Next() {
		var a Allocation
		var at string
		if err := rows.Scan(&a.Phase, &a.Seq, &at); err != nil {
			return nil, err
		}
		if a.AllocatedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("parsing allocation timestamp: %w", err)
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

// RecordAudit appends an audit entry. Details are marshaled to JSON.
func (db *DB) RecordAudit(operation string, phase int, details interface{}) error {
	blob, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshaling audit details: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO audit_log (id, operation, phase, details_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), operation, phase, string(blob), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording audit entry: %w", err)
	}
	return nil
}

// AuditLog returns audit entries for a phase, newest first.
func (db *DB) AuditLog(phase int) ([]AuditEntry, error) {
	rows, err := db.Query(`
		SELECT id, operation, phase, details_json, created_at
		FROM audit_log WHERE phase = ? ORDER BY created_at DESC
	`, phase)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var at string
		if err := rows.Scan(&e.ID, &e.Operation, &e.Phase, &e.Details, &at); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("parsing audit timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordSnapshot inserts a snapshot row and returns it.
func (db *DB) RecordSnapshot(phase int, path, sha256 string) (*Snapshot, error) {
	snap := &Snapshot{
		ID:        uuid.NewString(),
		Phase:     phase,
		Path:      path,
		SHA256:    sha256,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.Exec(`
		INSERT INTO snapshots (id, phase, path, sha256, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, snap.ID, snap.Phase, snap.Path, snap.SHA256, snap.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("recording snapshot: %w", err)
	}
	return snap, nil
}

// Snapshots returns snapshots for a phase, newest first.
func (db *DB) Snapshots(phase int) ([]Snapshot, error) {
	rows, err := db.Query(`
		SELECT id, phase, path, sha256, created_at
		FROM snapshots WHERE phase = ? ORDER BY created_at DESC
	`, phase)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var s Snapshot
		var at string
		if err := rows.Scan(&s.ID, &s.Phase, &s.Path, &s.SHA256, &at); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("parsing snapshot timestamp: %w", err)
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
