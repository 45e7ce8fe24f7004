package main

import (
	"context"
	"testing"

	"phx/internal/config"
	"phx/internal/identifier"
	"phx/internal/logging"
	"phx/internal/scan"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func scanTree(t *testing.T, root string) *scan.Tree {
	t.Helper()
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: discardWriter{},
	})
	tree, err := scan.NewScanner(root, config.DefaultConfig(), logger).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return tree
}

func TestSequencesInUse(t *testing.T) {
	root := buildRepo(t, map[string]string{
		"phase_7/PHASE_7_INDEX.md": "# Phase 7\n\n" +
			"- [7.0001 Bootstrap](7.0001_bootstrap/README.md)\n" +
			"- [7.0002 Ingestion](7.0002_ingestion/README.md)\n",
		"phase_7/7.0001_bootstrap/README.md": "# Bootstrap\n",
	})

	seqs := sequencesInUse(scanTree(t, root), 7)
	if got := identifier.NextSequence(seqs); got != 3 {
		t.Errorf("next sequence = %d, want 3", got)
	}
}

// A sequence listed only in a conflicting index must still be counted,
// or two sub-phases end up sharing it once the conflict is resolved.
func TestSequencesInUseAuthorityConflict(t *testing.T) {
	root := buildRepo(t, map[string]string{
		"phase_7/PHASE_7_INDEX.md": "# Phase 7\n\n" +
			"- [7.0001 Bootstrap](7.0001_bootstrap/README.md)\n",
		"phase_7/7.0001_bootstrap/README.md": "# Bootstrap\n",
		"phase_7_old/PHASE_7_INDEX.md": "# Phase 7 (old)\n\n" +
			"- [7.0003 Cleanup](7.0003_cleanup/README.md)\n",
	})

	seqs := sequencesInUse(scanTree(t, root), 7)
	if got := identifier.NextSequence(seqs); got != 4 {
		t.Errorf("next sequence = %d, want 4", got)
	}
}
