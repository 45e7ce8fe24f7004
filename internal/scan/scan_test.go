package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"phx/internal/config"
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

// buildTree writes a docs tree from a map of relative path to content.
// Entries ending in "/" become directories.
func buildTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(abs, 0755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScanDiscoversLayout(t *testing.T) {
	root := buildTree(t, map[string]string{
		"phase_7/PHASE_7_INDEX.md":           "# Phase 7\n\n- [7.0001 Bootstrap](7.0001_bootstrap/README.md)\n",
		"phase_7/7.0001_bootstrap/README.md": "# Bootstrap\n",
		"phase_7/7.0002_ingestion/":          "",
		"phase_8/PHASE_8_INDEX.md":           "# Phase 8\n",
		"phase_7/notes/":                     "",
	})

	tree, err := NewScanner(root, config.DefaultConfig(), newTestLogger()).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if got := tree.PhaseNumbers(); len(got) != 2 || got[0] != 7 || got[1] != 8 {
		t.Fatalf("PhaseNumbers = %v, want [7 8]", got)
	}

	p7 := tree.Phases[7]
	if len(p7.SubDirs) != 2 {
		t.Fatalf("phase 7 SubDirs = %d, want 2 (notes/ must be ignored)", len(p7.SubDirs))
	}
	if p7.SubDirs[0].ID.String() != "7.0001" {
		t.Errorf("first sub dir id = %q, want 7.0001", p7.SubDirs[0].ID.String())
	}
	if !p7.SubDirs[0].HasReadme {
		t.Error("7.0001_bootstrap has a README, HasReadme = false")
	}
	if p7.SubDirs[1].HasReadme {
		t.Error("7.0002_ingestion has no README, HasReadme = true")
	}

	if len(tree.Indexes) != 2 {
		t.Fatalf("Indexes = %d, want 2", len(tree.Indexes))
	}
	if idx := tree.ActiveIndex(7); idx == nil || len(idx.Entries) != 1 {
		t.Errorf("ActiveIndex(7) = %+v, want one entry", idx)
	}
}

func TestScanMalformedSubPhaseDir(t *testing.T) {
	root := buildTree(t, map[string]string{
		"phase_7/PHASE_7_INDEX.md":  "# Phase 7\n",
		"phase_7/7.00001_too_wide/": "",
		"phase_7/assets/":           "",
	})

	tree, err := NewScanner(root, config.DefaultConfig(), newTestLogger()).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	subs := tree.Phases[7].SubDirs
	if len(subs) != 1 {
		t.Fatalf("SubDirs = %d, want 1 (assets/ invisible, 7.00001 flagged)", len(subs))
	}
	if subs[0].Err == nil {
		t.Error("malformed sub-phase dir should carry an error")
	}
}

func TestScanArchiveExcludedFromActive(t *testing.T) {
	root := buildTree(t, map[string]string{
		"phase_7/PHASE_7_INDEX.md":                           "# Phase 7\n",
		"archive/2026-05-01_phase_7/PHASE_7_INDEX.md":        "# Phase 7 (old)\n",
		"archive/2026-05-01_phase_7/7.1_bootstrap/README.md": "# old\n",
	})

	tree, err := NewScanner(root, config.DefaultConfig(), newTestLogger()).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(tree.Indexes) != 2 {
		t.Fatalf("Indexes = %d, want 2", len(tree.Indexes))
	}
	active := tree.ActiveIndexes(7)
	if len(active) != 1 {
		t.Fatalf("ActiveIndexes(7) = %d, want 1", len(active))
	}
	if active[0].Path != "phase_7/PHASE_7_INDEX.md" {
		t.Errorf("active index = %q", active[0].Path)
	}

	// Archived sub-phase dirs must not appear as live sub-phases.
	if len(tree.Phases[7].SubDirs) != 0 {
		t.Errorf("archived sub dirs leaked into phase 7: %+v", tree.Phases[7].SubDirs)
	}
}

func TestScanAuthorityConflictVisible(t *testing.T) {
	// Two non-archived indexes for phase 7 in different directories.
	root := buildTree(t, map[string]string{
		"phase_7/PHASE_7_INDEX.md":     "# Phase 7\n",
		"phase_7_new/PHASE_7_INDEX.md": "# Phase 7 again\n",
	})

	tree, err := NewScanner(root, config.DefaultConfig(), newTestLogger()).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if got := len(tree.ActiveIndexes(7)); got != 2 {
		t.Errorf("ActiveIndexes(7) = %d, want 2", got)
	}
	if tree.ActiveIndex(7) != nil {
		t.Error("ActiveIndex must be nil when authority is contested")
	}
}

func TestScanLoadsDeclarations(t *testing.T) {
	root := buildTree(t, map[string]string{
		"PHASES.toml":              "[[phase]]\nnumber = 7\nname = \"Data Platform\"\n",
		"phase_7/PHASE_7_INDEX.md": "# Phase 7\n",
	})

	tree, err := NewScanner(root, config.DefaultConfig(), newTestLogger()).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if tree.Declarations == nil || len(tree.Declarations.Phases) != 1 {
		t.Fatalf("Declarations not loaded: %+v", tree.Declarations)
	}
}

func TestScanCancelledContext(t *testing.T) {
	root := buildTree(t, map[string]string{
		"phase_7/PHASE_7_INDEX.md": "# Phase 7\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewScanner(root, config.DefaultConfig(), newTestLogger()).Scan(ctx); err == nil {
		t.Error("cancelled context should abort the scan")
	}
}
