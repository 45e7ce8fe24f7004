// Package errors defines the stable error taxonomy for PHX.
// Every user-visible failure carries an ErrorCode so that tooling
// consuming JSON output can react without string matching.
package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MalformedIdentifier indicates an identifier that matches neither
	// the canonical nor the legacy pattern
	MalformedIdentifier ErrorCode = "MALFORMED_IDENTIFIER"
	// DuplicateSubPhase indicates two sub-phases of one phase sharing a
	// sequence number
	DuplicateSubPhase ErrorCode = "DUPLICATE_SUBPHASE"
	// OrphanIndexEntry indicates an index entry with no matching directory
	OrphanIndexEntry ErrorCode = "ORPHAN_INDEX_ENTRY"
	// UnindexedDirectory indicates a sub-phase directory with no index entry
	UnindexedDirectory ErrorCode = "UNINDEXED_DIRECTORY"
	// LegacyFormat indicates a pre-migration identifier (informational)
	LegacyFormat ErrorCode = "LEGACY_FORMAT"
	// AuthorityConflict indicates two non-archived indexes claiming the
	// same phase number
	AuthorityConflict ErrorCode = "AUTHORITY_CONFLICT"
	// IndexMissing indicates a phase directory without an index file
	IndexMissing ErrorCode = "INDEX_MISSING"
	// PhaseNotFound indicates a requested phase does not exist in the tree
	PhaseNotFound ErrorCode = "PHASE_NOT_FOUND"
	// RenumberBlocked indicates renumbering cannot proceed (duplicates present)
	RenumberBlocked ErrorCode = "RENUMBER_BLOCKED"
	// RegistryLocked indicates another phx process holds the registry lock
	RegistryLocked ErrorCode = "REGISTRY_LOCKED"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// RenamePath suggests renaming a file or directory
	RenamePath FixActionType = "rename-path"
	// EditIndex suggests editing an index file by hand
	EditIndex FixActionType = "edit-index"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	From        string        `json:"from,omitempty"`
	To          string        `json:"to,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// PhxError represents a PHX error with code, message, and suggestions
type PhxError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new PhxError
func New(code ErrorCode, message string, cause error) *PhxError {
	return &PhxError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *PhxError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PhxError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *PhxError) WithDetails(details interface{}) *PhxError {
	e.Details = details
	return e
}

// WithFixes replaces the suggested fixes on the error
func (e *PhxError) WithFixes(fixes ...FixAction) *PhxError {
	e.SuggestedFixes = fixes
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	LegacyFormat: {
		{
			Type:        RunCommand,
			Command:     "phx renumber ${phase}",
			Safe:        true,
			Description: "Rewrite legacy identifiers to canonical 4-digit form",
		},
	},
	DuplicateSubPhase: {
		{
			Type:        EditIndex,
			Description: "Assign a fresh sequence number to one of the duplicates (phx next ${phase})",
		},
	},
	OrphanIndexEntry: {
		{
			Type:        EditIndex,
			Description: "Remove the stale entry from the phase index, or restore the missing directory",
		},
	},
	UnindexedDirectory: {
		{
			Type:        EditIndex,
			Description: "Add the directory to the phase index",
		},
	},
	AuthorityConflict: {
		{
			Type:        RunCommand,
			Command:     "phx archive ${phase}",
			Safe:        true,
			Description: "Archive the superseded index so only one claims authority",
		},
	},
	IndexMissing: {
		{
			Type:        RunCommand,
			Command:     "phx init",
			Safe:        true,
			Description: "Check PHX setup, then create the missing PHASE_<N>_INDEX.md",
		},
	},
	RegistryLocked: {
		{
			Type:        RunCommand,
			Command:     "phx status",
			Safe:        true,
			Description: "Check whether another phx command is still running",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
