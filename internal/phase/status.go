package phase

import (
	"strings"
)

// statusMarkers maps the emoji and word markers seen in real indexes to
// their status. Checked in order so word forms win over bare emoji when
// both are on a line.
var statusMarkers = []struct {
	marker string
	status Status
}{
	{"COMPLETE", StatusComplete},
	{"COMPLETED", StatusComplete},
	{"DONE", StatusComplete},
	{"IN_PROGRESS", StatusInProgress},
	{"IN PROGRESS", StatusInProgress},
	{"PLANNED", StatusPlanned},
	{"PENDING", StatusPending},
	{"✅", StatusComplete},
	{"🚧", StatusInProgress},
	{"📝", StatusPlanned},
	{"⏳", StatusPending},
}

// ParseStatus extracts a status from free text (an index line, a table
// cell, or a frontmatter value). Word markers must be bounded by
// non-letters, so INCOMPLETE never reads as COMPLETE. Returns
// StatusUnknown when no marker is present.
func ParseStatus(text string) Status {
	upper := strings.ToUpper(text)
	for _, m := range statusMarkers {
		if isLetter(m.marker[0]) {
			if containsWord(upper, m.marker) {
				return m.status
			}
		} else if strings.Contains(upper, m.marker) {
			return m.status
		}
	}
	return StatusUnknown
}

// priorityMarkers, highest first, so CRITICAL beats a stray LOW on the
// same line.
var priorityMarkers = []Priority{
	PriorityCritical,
	PriorityImportant,
	PriorityHigh,
	PriorityMedium,
	PriorityLow,
}

// ParsePriority extracts a priority marker from free text. Returns
// PriorityNone when no marker is present.
func ParsePriority(text string) Priority {
	upper := strings.ToUpper(text)
	for _, p := range priorityMarkers {
		if containsWord(upper, string(p)) {
			return p
		}
	}
	return PriorityNone
}

// containsWord reports whether word occurs in text bounded by
// non-letter characters, so "LOW" does not match inside "FOLLOWUP".
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(text[start-1])
		afterOK := end == len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
