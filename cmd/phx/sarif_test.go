package main

import (
	"encoding/json"
	"strings"
	"testing"

	"phx/internal/lint"
)

func TestFormatLintAsSARIF(t *testing.T) {
	out, err := FormatLintAsSARIF(sampleLintResult(), "1.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report SARIFReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if report.Version != "2.1.0" {
		t.Errorf("version = %q, want 2.1.0", report.Version)
	}
	if len(report.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(report.Runs))
	}

	run := report.Runs[0]
	if run.Tool.Driver.Name != "phx" {
		t.Errorf("driver name = %q", run.Tool.Driver.Name)
	}
	if len(run.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(run.Results))
	}

	// Rules are deduplicated and referenced by index.
	if len(run.Tool.Driver.Rules) != 2 {
		t.Errorf("rules = %d, want 2", len(run.Tool.Driver.Rules))
	}

	first := run.Results[0]
	if first.RuleID != "phx/DUPLICATE_SUBPHASE" {
		t.Errorf("ruleId = %q", first.RuleID)
	}
	if first.Level != "error" {
		t.Errorf("level = %q, want error", first.Level)
	}
	if first.Locations[0].PhysicalLocation.ArtifactLocation.URI != "phase_7/PHASE_7_INDEX.md" {
		t.Errorf("uri = %q", first.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	}
	if first.Locations[0].PhysicalLocation.Region.StartLine != 5 {
		t.Errorf("startLine = %d", first.Locations[0].PhysicalLocation.Region.StartLine)
	}
	if first.Fingerprints["phx/v1"] == "" {
		t.Error("fingerprint missing")
	}

	// Info findings map to the SARIF note level.
	if run.Results[1].Level != "note" {
		t.Errorf("info level = %q, want note", run.Results[1].Level)
	}

	// Error-level findings mark the invocation unsuccessful.
	if run.Invocations[0].ExecutionSuccessful {
		t.Error("invocation should not be successful with errors present")
	}
}

func TestFormatLintAsSARIFEmpty(t *testing.T) {
	result := sampleLintResult()
	result.Findings = nil
	result.Summary.BySeverity = map[lint.Severity]int{}

	out, err := FormatLintAsSARIF(result, "1.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"executionSuccessful": true`) {
		t.Errorf("empty result should be a successful invocation:\n%s", out)
	}
}
