// Package phase models the roadmap domain: phases, their sub-phases,
// the index files that enumerate them, and the optional PHASES.toml
// declaration of expected phases.
package phase

import (
	"phx/internal/identifier"
)

// Status is the lifecycle state of a phase or sub-phase.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusPlanned    Status = "PLANNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
	StatusUnknown    Status = "UNKNOWN"
)

// Priority classifies how urgent a sub-phase is. Both the
// HIGH/MEDIUM/LOW and CRITICAL/IMPORTANT vocabularies appear in real
// indexes, so both are first-class.
type Priority string

const (
	PriorityCritical  Priority = "CRITICAL"
	PriorityImportant Priority = "IMPORTANT"
	PriorityHigh      Priority = "HIGH"
	PriorityMedium    Priority = "MEDIUM"
	PriorityLow       Priority = "LOW"
	PriorityNone      Priority = ""
)

// SubPhase is a child unit of exactly one phase.
type SubPhase struct {
	ID          identifier.Identifier `json:"id"`
	Slug        string                `json:"slug"`
	Name        string                `json:"name,omitempty"`
	Status      Status                `json:"status"`
	Priority    Priority              `json:"priority,omitempty"`
	Description string                `json:"description,omitempty"`
	Dir         string                `json:"dir,omitempty"` // docs-root-relative directory
}

// Phase is an ordered top-level roadmap unit.
type Phase struct {
	Number    int        `json:"number"`
	Name      string     `json:"name,omitempty"`
	Status    Status     `json:"status"`
	Updated   string     `json:"updated,omitempty"`
	Overview  string     `json:"overview,omitempty"`
	SubPhases []SubPhase `json:"subPhases,omitempty"`
	Requires  []int      `json:"requires,omitempty"`
	Blocks    []int      `json:"blocks,omitempty"`
	Archived  bool       `json:"archived,omitempty"`
}

// IndexEntry is one sub-phase row or bullet in a phase index file.
// RawID and Err are kept so the lint layer can report malformed entries
// individually instead of aborting the whole parse.
type IndexEntry struct {
	RawID     string                `json:"rawId"`
	ID        identifier.Identifier `json:"id"`
	Err       error                 `json:"-"`
	Name      string                `json:"name,omitempty"`
	Target    string                `json:"target"`              // link target, index-relative
	TargetDir string                `json:"targetDir,omitempty"` // first path segment of Target
	Status    Status                `json:"status"`
	Priority  Priority              `json:"priority,omitempty"`
	Line      int                   `json:"line"`
}

// NavLinks are the prev/next navigation links of an index file.
type NavLinks struct {
	Prev int `json:"prev,omitempty"` // 0 = absent
	Next int `json:"next,omitempty"`
}

// IndexFile is a parsed PHASE_<N>_INDEX.md.
type IndexFile struct {
	Path    string       `json:"path"` // docs-root-relative
	Phase   int          `json:"phase"`
	Meta    Frontmatter  `json:"meta"`
	Status  Status       `json:"status"`
	Entries []IndexEntry `json:"entries"`
	Nav     NavLinks     `json:"nav"`

	// Archived is true when the frontmatter says so or the file lives
	// under the archive tree. Archived indexes never claim authority.
	Archived bool `json:"archived"`
}

// EntryIdentifiers returns the successfully parsed identifiers of all
// entries, for uniqueness checking.
func (f *IndexFile) EntryIdentifiers() []identifier.Identifier {
	ids := make([]identifier.Identifier, 0, len(f.Entries))
	for _, e := range f.Entries {
		if e.Err == nil {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Sequences returns the sequence numbers of all parsed entries.
func (f *IndexFile) Sequences() []int {
	seqs := make([]int, 0, len(f.Entries))
	for _, e := range f.Entries {
		if e.Err == nil && e.ID.HasSeq {
			seqs = append(seqs, e.ID.Seq)
		}
	}
	return seqs
}
