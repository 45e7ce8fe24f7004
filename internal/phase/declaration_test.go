package phase

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDeclFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DeclarationFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDeclarations(t *testing.T) {
	dir := t.TempDir()
	path := writeDeclFile(t, dir, `
version = 1

[[phase]]
number = 6
name = "Foundations"
owner = "@platform-team"
tags = ["core"]

[[phase]]
number = 7
name = "Data Platform"
requires = [6]
`)

	decls, err := ParseDeclarations(path)
	if err != nil {
		t.Fatalf("ParseDeclarations: %v", err)
	}

	if len(decls.Phases) != 2 {
		t.Fatalf("Phases = %d, want 2", len(decls.Phases))
	}
	if got := decls.Numbers(); len(got) != 2 || got[0] != 6 || got[1] != 7 {
		t.Errorf("Numbers = %v, want [6 7]", got)
	}

	seven := decls.ByNumber(7)
	if seven == nil {
		t.Fatal("ByNumber(7) = nil")
	}
	if seven.Name != "Data Platform" {
		t.Errorf("Name = %q, want Data Platform", seven.Name)
	}
	if len(seven.Requires) != 1 || seven.Requires[0] != 6 {
		t.Errorf("Requires = %v, want [6]", seven.Requires)
	}

	if decls.ByNumber(99) != nil {
		t.Error("ByNumber(99) should be nil")
	}
}

func TestParseDeclarationsInvalidNumber(t *testing.T) {
	dir := t.TempDir()
	path := writeDeclFile(t, dir, `
[[phase]]
number = 0
name = "Broken"
`)

	if _, err := ParseDeclarations(path); err == nil {
		t.Error("expected error for non-positive phase number")
	}
}

func TestLoadDeclarationsAbsent(t *testing.T) {
	decls, err := LoadDeclarations(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDeclarations: %v", err)
	}
	if decls != nil {
		t.Error("expected nil for absent PHASES.toml")
	}
}

func TestWriteDeclarationsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", DeclarationFile)

	in := &DeclarationsFile{
		Version: 1,
		Phases: []Declaration{
			{Number: 7, Name: "Data Platform", Tags: []string{"core", "data"}},
		},
	}
	if err := WriteDeclarations(path, in); err != nil {
		t.Fatalf("WriteDeclarations: %v", err)
	}

	out, err := ParseDeclarations(path)
	if err != nil {
		t.Fatalf("ParseDeclarations: %v", err)
	}
	if len(out.Phases) != 1 || out.Phases[0].Name != "Data Platform" {
		t.Errorf("round trip lost data: %+v", out)
	}
}
