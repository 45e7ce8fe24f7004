package registry

import (
	"path/filepath"
	"testing"

	"phx/internal/logging"
)

func newTestLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: discard{},
	})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), ".phx"), newTestLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesSchema(t *testing.T) {
	db := openTestDB(t)

	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestReopenKeepsData(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), ".phx")

	db, err := Open(stateDir, newTestLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.ReserveSequence(7, 3); err != nil {
		t.Fatalf("ReserveSequence: %v", err)
	}
	db.Close()

	db, err = Open(stateDir, newTestLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	max, err := db.MaxAllocatedSeq(7)
	if err != nil {
		t.Fatalf("MaxAllocatedSeq: %v", err)
	}
	if max != 3 {
		t.Errorf("MaxAllocatedSeq = %d, want 3", max)
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	run, err := db.StartRun("validate")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.ID == "" {
		t.Fatal("run should have an id")
	}
	if err := db.FinishRun(run, 2, 5); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := db.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.Command != "validate" || got.Errors != 2 || got.Warnings != 5 {
		t.Errorf("run = %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("run should be finished")
	}
}

func TestReserveSequenceIdempotent(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 2; i++ {
		if err := db.ReserveSequence(7, 1); err != nil {
			t.Fatalf("ReserveSequence (pass %d): %v", i, err)
		}
	}
	if err := db.ReserveSequence(7, 2); err != nil {
		t.Fatalf("ReserveSequence: %v", err)
	}

	allocs, err := db.Allocations(7)
	if err != nil {
		t.Fatalf("Allocations: %v", err)
	}
	if len(allocs) != 2 {
		t.Fatalf("allocations = %d, want 2", len(allocs))
	}
	if allocs[0].Seq != 1 || allocs[1].Seq != 2 {
		t.Errorf("allocations out of order: %+v", allocs)
	}
}

func TestMaxAllocatedSeqEmpty(t *testing.T) {
	db := openTestDB(t)

	max, err := db.MaxAllocatedSeq(42)
	if err != nil {
		t.Fatalf("MaxAllocatedSeq: %v", err)
	}
	if max != 0 {
		t.Errorf("MaxAllocatedSeq = %d, want 0", max)
	}
}

func TestAuditLog(t *testing.T) {
	db := openTestDB(t)

	details := map[string]interface{}{"renames": 3}
	if err := db.RecordAudit("renumber", 7, details); err != nil {
		t.Fatalf("RecordAudit: %v", err)
	}

	entries, err := db.AuditLog(7)
	if err != nil {
		t.Fatalf("AuditLog: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Operation != "renumber" || e.Phase != 7 {
		t.Errorf("entry = %+v", e)
	}
	if e.Details != `{"renames":3}` {
		t.Errorf("details = %s", e.Details)
	}
}

func TestSnapshots(t *testing.T) {
	db := openTestDB(t)

	snap, err := db.RecordSnapshot(7, "snapshots/abc.tar.zst", "deadbeef")
	if err != nil {
		t.Fatalf("RecordSnapshot: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("snapshot should have an id")
	}

	snaps, err := db.Snapshots(7)
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snaps))
	}
	if snaps[0].SHA256 != "deadbeef" || snaps[0].Path != "snapshots/abc.tar.zst" {
		t.Errorf("snapshot = %+v", snaps[0])
	}

	other, err := db.Snapshots(8)
	if err != nil {
		t.Fatalf("Snapshots(8): %v", err)
	}
	if len(other) != 0 {
		t.Errorf("phase 8 snapshots = %d, want 0", len(other))
	}
}
