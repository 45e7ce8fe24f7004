// Package lint judges a scanned docs tree against the numbering and
// indexing convention. All rules run and all findings are collected, so
// a single malformed phase never hides problems elsewhere.
package lint

import (
	"time"

	"phx/internal/errors"
)

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Weight returns a numeric weight for sorting.
func (s Severity) Weight() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Finding is a single rule violation.
type Finding struct {
	Rule     errors.ErrorCode `json:"rule"`
	Severity Severity         `json:"severity"`
	Phase    int              `json:"phase,omitempty"`
	ID       string           `json:"id,omitempty"`   // identifier text, when one is involved
	Path     string           `json:"path,omitempty"` // docs-root-relative file or directory
	Line     int              `json:"line,omitempty"`
	Message  string           `json:"message"`
	Fix      string           `json:"fix,omitempty"` // suggested fix, human-readable
}

// Summary provides aggregate statistics over the findings.
type Summary struct {
	Total      int                      `json:"total"`
	BySeverity map[Severity]int         `json:"bySeverity"`
	ByRule     map[errors.ErrorCode]int `json:"byRule"`
	ByPhase    map[int]int              `json:"byPhase"`

	PhasesScanned  int `json:"phasesScanned"`
	IndexesScanned int `json:"indexesScanned"`
	LegacyIDs      int `json:"legacyIds"`
}

// Result is a complete lint run.
type Result struct {
	Root     string    `json:"root"`
	Strict   bool      `json:"strict"`
	LintedAt time.Time `json:"lintedAt"`
	Duration string    `json:"duration"`
	Findings []Finding `json:"findings"`
	Summary  Summary   `json:"summary"`
}

// HasErrors reports whether any error-level finding is present. This is
// what decides the process exit code; warnings never do.
func (r *Result) HasErrors() bool {
	return r.Summary.BySeverity[SeverityError] > 0
}
