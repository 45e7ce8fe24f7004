package main

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"phx/internal/errors"
)

// buildRepo lays out a docs repo in a temp dir. Keys are repo-relative
// paths; a trailing slash creates a bare directory.
func buildRepo(t *testing.T, files map[string]string) string {
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

// chdir moves the test into dir and restores the old working directory
// on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestValidateUsesRootArgument(t *testing.T) {
	repo := buildRepo(t, map[string]string{
		"docs/phases/phase_7/PHASE_7_INDEX.md":           "# Phase 7\n\n- [7.0001 Bootstrap](7.0001_bootstrap/README.md)\n",
		"docs/phases/phase_7/7.0001_bootstrap/README.md": "# Bootstrap\n",
	})

	// The current directory has no phases root, so anything that falls
	// back to it fails with PHASE_NOT_FOUND instead.
	chdir(t, t.TempDir())

	if err := runValidate(validateCmd, []string{repo}); err != nil {
		t.Fatalf("runValidate(%s): %v", repo, err)
	}
}

func TestValidateDefaultsToWorkingDirectory(t *testing.T) {
	chdir(t, t.TempDir())

	err := runValidate(validateCmd, nil)
	var perr *errors.PhxError
	if !stderrors.As(err, &perr) || perr.Code != errors.PhaseNotFound {
		t.Fatalf("err = %v, want PHASE_NOT_FOUND", err)
	}
}

func TestValidateRejectsMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	err := runValidate(validateCmd, []string{missing})
	var perr *errors.PhxError
	if !stderrors.As(err, &perr) || perr.Code != errors.PhaseNotFound {
		t.Fatalf("err = %v, want PHASE_NOT_FOUND", err)
	}
}
