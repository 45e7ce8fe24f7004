package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"phx/internal/lint"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatSARIF OutputFormat = "sarif"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *lint.Result:
		return formatValidateHuman(v)
	case *RenumberResponseCLI:
		return formatRenumberHuman(v)
	case *NextResponseCLI:
		return formatNextHuman(v)
	case *ArchiveResponseCLI:
		return formatArchiveHuman(v)
	case *StatusResponseCLI:
		return formatStatusHuman(v)
	case *DoctorResponseCLI:
		return formatDoctorHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func severityIcon(s lint.Severity) string {
	switch s {
	case lint.SeverityError:
		return "✗"
	case lint.SeverityWarning:
		return "⚠"
	default:
		return "·"
	}
}

// formatValidateHuman formats a lint result in human-readable format
func formatValidateHuman(resp *lint.Result) (string, error) {
	var b strings.Builder

	b.WriteString("Phase Index Validation\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(resp.Findings) == 0 {
		b.WriteString("✓ No problems found\n\n")
	}

	for _, f := range resp.Findings {
		location := f.Path
		if f.Line > 0 {
			location = fmt.Sprintf("%s:%d", f.Path, f.Line)
		}
		b.WriteString(fmt.Sprintf("%s [%s] %s\n", severityIcon(f.Severity), f.Rule, f.Message))
		if location != "" {
			b.WriteString(fmt.Sprintf("    at %s\n", location))
		}
		if f.Fix != "" {
			b.WriteString(fmt.Sprintf("    fix: %s\n", f.Fix))
		}
	}
	if len(resp.Findings) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Phases: %d, Indexes: %d\n",
		resp.Summary.PhasesScanned, resp.Summary.IndexesScanned))
	b.WriteString(fmt.Sprintf("Findings: %d (errors: %d, warnings: %d, info: %d)\n",
		resp.Summary.Total,
		resp.Summary.BySeverity[lint.SeverityError],
		resp.Summary.BySeverity[lint.SeverityWarning],
		resp.Summary.BySeverity[lint.SeverityInfo]))
	if resp.Summary.LegacyIDs > 0 {
		b.WriteString(fmt.Sprintf("Legacy identifiers: %d (run 'phx renumber <phase>' to migrate)\n",
			resp.Summary.LegacyIDs))
	}

	return b.String(), nil
}

// formatRenumberHuman formats a renumber response in human-readable format
func formatRenumberHuman(resp *RenumberResponseCLI) (string, error) {
	var b strings.Builder

	verb := "Renumbered"
	if resp.DryRun {
		verb = "Would renumber"
	}
	b.WriteString(fmt.Sprintf("%s phase %d\n", verb, resp.Phase))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(resp.Renames) == 0 {
		b.WriteString("Already canonical; nothing to do.\n")
		return b.String(), nil
	}

	for _, r := range resp.Renames {
		if r.OldDir != "" {
			b.WriteString(fmt.Sprintf("  %s -> %s\n", r.OldDir, r.NewDir))
		} else {
			b.WriteString(fmt.Sprintf("  %s -> %s (index only)\n", r.OldID, r.NewID))
		}
	}
	b.WriteString(fmt.Sprintf("\n%d identifiers\n", len(resp.Renames)))

	return b.String(), nil
}

// formatNextHuman formats a next response in human-readable format
func formatNextHuman(resp *NextResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(resp.NextID + "\n")
	if resp.Reserved {
		b.WriteString(fmt.Sprintf("Reserved for phase %d.\n", resp.Phase))
	}
	return b.String(), nil
}

// formatArchiveHuman formats an archive response in human-readable format
func formatArchiveHuman(resp *ArchiveResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Archived phase %d\n", resp.Phase))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Copied %d files to %s\n", resp.Files, resp.ArchivePath))
	for _, p := range resp.IndexPaths {
		b.WriteString(fmt.Sprintf("Marked archived: %s\n", p))
	}
	if resp.SnapshotPath != "" {
		b.WriteString(fmt.Sprintf("Snapshot: %s (sha256 %s)\n", resp.SnapshotPath, resp.SnapshotSHA256))
	}

	return b.String(), nil
}

// formatStatusHuman formats a status response in human-readable format
func formatStatusHuman(resp *StatusResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("PHX Status - v%s\n", resp.PhxVersion))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if !resp.Initialized {
		b.WriteString("✗ Not initialized. Run 'phx init' first.\n")
		return b.String(), nil
	}

	b.WriteString(fmt.Sprintf("Docs root: %s\n", resp.DocsRoot))
	b.WriteString(fmt.Sprintf("Phases: %d (%d archived indexes)\n", resp.Phases, resp.ArchivedIndexes))
	b.WriteString(fmt.Sprintf("Sub-phases: %d\n", resp.SubPhases))
	if resp.LegacyIDs > 0 {
		b.WriteString(fmt.Sprintf("Legacy identifiers: %d\n", resp.LegacyIDs))
	}

	if len(resp.RecentRuns) > 0 {
		b.WriteString("\nRecent runs:\n")
		for _, r := range resp.RecentRuns {
			b.WriteString(fmt.Sprintf("  %s  %-10s errors: %d, warnings: %d\n",
				r.StartedAt.Format("2006-01-02 15:04"), r.Command, r.Errors, r.Warnings))
		}
	}

	return b.String(), nil
}

// formatDoctorHuman formats a doctor response in human-readable format
func formatDoctorHuman(resp *DoctorResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString("PHX Doctor\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	healthIcon := "✓"
	healthText := "All checks passed"
	if !resp.Healthy {
		healthIcon = "✗"
		healthText = "Issues found"
	}
	b.WriteString(fmt.Sprintf("%s %s\n\n", healthIcon, healthText))

	for _, check := range resp.Checks {
		var icon string
		switch check.Status {
		case "pass":
			icon = "✓"
		case "warn":
			icon = "⚠"
		case "fail":
			icon = "✗"
		default:
			icon = "?"
		}

		b.WriteString(fmt.Sprintf("%s %s: %s\n", icon, check.Name, check.Message))

		if len(check.SuggestedFixes) > 0 {
			b.WriteString("  Suggested fixes:\n")
			for _, fix := range check.SuggestedFixes {
				b.WriteString(fmt.Sprintf("    - %s\n", fix.Description))
				if fix.Command != "" {
					b.WriteString(fmt.Sprintf("      $ %s\n", fix.Command))
				}
			}
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}
