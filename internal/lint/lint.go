package lint

import (
	"context"
	"fmt"
	"sort"
	"time"

	"phx/internal/config"
	"phx/internal/errors"
	"phx/internal/identifier"
	"phx/internal/logging"
	"phx/internal/phase"
	"phx/internal/scan"
)

// Linter runs the rule set over a scanned tree.
type Linter struct {
	cfg    *config.Config
	logger *logging.Logger
}

// NewLinter creates a linter.
func NewLinter(cfg *config.Config, logger *logging.Logger) *Linter {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Linter{cfg: cfg, logger: logger}
}

// Lint runs every rule and collects all findings.
func (l *Linter) Lint(ctx context.Context, tree *scan.Tree) (*Result, error) {
	start := time.Now()

	result := &Result{
		Root:     tree.Root,
		Strict:   l.cfg.Lint.Strict,
		LintedAt: start,
	}

	for _, idx := range tree.Indexes {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if idx.Archived {
			continue
		}
		l.checkEntries(result, idx)
		l.checkDuplicates(result, idx)
	}

	l.checkAuthority(result, tree)
	l.checkCrossReferences(result, tree)
	l.checkNavigation(result, tree)
	l.checkDeclarations(result, tree)

	for _, path := range tree.Unreadable {
		result.add(Finding{
			Rule:     errors.InternalError,
			Severity: SeverityWarning,
			Path:     path,
			Message:  "could not read or parse this path; its contents were not checked",
		})
	}

	l.finish(result, tree, start)
	return result, nil
}

// checkEntries flags malformed identifiers and legacy numbering inside
// one active index.
func (l *Linter) checkEntries(result *Result, idx *phase.IndexFile) {
	for _, e := range idx.Entries {
		if e.Err != nil {
			result.add(Finding{
				Rule:     errors.MalformedIdentifier,
				Severity: SeverityError,
				Phase:    idx.Phase,
				ID:       e.RawID,
				Path:     idx.Path,
				Line:     e.Line,
				Message:  fmt.Sprintf("entry %q does not parse as a sub-phase identifier", e.RawID),
				Fix:      fmt.Sprintf("use the canonical %d.<4-digit sequence> form", idx.Phase),
			})
			continue
		}

		if warn := identifier.ValidatePadding(e.ID); warn != nil {
			severity := SeverityInfo
			if !l.cfg.Lint.LegacyWindow {
				severity = SeverityWarning
			}
			result.Summary.LegacyIDs++
			result.add(Finding{
				Rule:     errors.LegacyFormat,
				Severity: severity,
				Phase:    idx.Phase,
				ID:       e.ID.String(),
				Path:     idx.Path,
				Line:     e.Line,
				Message:  fmt.Sprintf("identifier %s uses legacy numbering", e.ID.String()),
				Fix:      fmt.Sprintf("rename %s → %s (phx renumber %d)", e.ID.String(), e.ID.Canonical().String(), idx.Phase),
			})
		}
	}
}

// checkDuplicates flags sequence numbers claimed twice within one index.
// Legacy "7.1" and canonical "7.0001" are the same sequence.
func (l *Linter) checkDuplicates(result *Result, idx *phase.IndexFile) {
	seen := make(map[int]phase.IndexEntry)
	for _, e := range idx.Entries {
		if e.Err != nil || !e.ID.HasSeq {
			continue
		}
		if prev, ok := seen[e.ID.Seq]; ok {
			result.add(Finding{
				Rule:     errors.DuplicateSubPhase,
				Severity: SeverityError,
				Phase:    idx.Phase,
				ID:       e.ID.String(),
				Path:     idx.Path,
				Line:     e.Line,
				Message: fmt.Sprintf("sequence %d claimed by both %q (line %d) and %q",
					e.ID.Seq, prev.RawID, prev.Line, e.RawID),
				Fix: fmt.Sprintf("assign a fresh sequence to one of them (phx next %d)", idx.Phase),
			})
			continue
		}
		seen[e.ID.Seq] = e
	}
}

// checkAuthority flags phases with more than one non-archived index.
func (l *Linter) checkAuthority(result *Result, tree *scan.Tree) {
	seen := make(map[int]bool)
	for _, idx := range tree.Indexes {
		if idx.Archived || seen[idx.Phase] {
			continue
		}
		seen[idx.Phase] = true
		active := tree.ActiveIndexes(idx.Phase)
		if len(active) < 2 {
			continue
		}
		paths := make([]string, 0, len(active))
		for _, a := range active {
			paths = append(paths, a.Path)
		}
		result.add(Finding{
			Rule:     errors.AuthorityConflict,
			Severity: SeverityError,
			Phase:    idx.Phase,
			Path:     active[0].Path,
			Message:  fmt.Sprintf("%d indexes claim authority for phase %d: %v", len(active), idx.Phase, paths),
			Fix:      fmt.Sprintf("archive the superseded index (phx archive %d)", idx.Phase),
		})
	}
}

// checkCrossReferences enforces bidirectional index/directory
// consistency for every discovered phase.
func (l *Linter) checkCrossReferences(result *Result, tree *scan.Tree) {
	warnOrError := SeverityWarning
	if l.cfg.Lint.Strict {
		warnOrError = SeverityError
	}

	for _, num := range tree.PhaseNumbers() {
		pd := tree.Phases[num]
		idx := tree.ActiveIndex(num)

		// Malformed directory names are findings regardless of the index.
		for _, sub := range pd.SubDirs {
			if sub.Err != nil {
				result.add(Finding{
					Rule:     errors.MalformedIdentifier,
					Severity: SeverityError,
					Phase:    num,
					ID:       sub.Name,
					Path:     sub.Path,
					Message:  fmt.Sprintf("directory %q does not follow the <id>_<slug> convention", sub.Name),
				})
			} else if warn := identifier.ValidatePadding(sub.ID); warn != nil {
				severity := SeverityInfo
				if !l.cfg.Lint.LegacyWindow {
					severity = SeverityWarning
				}
				result.Summary.LegacyIDs++
				result.add(Finding{
					Rule:     errors.LegacyFormat,
					Severity: severity,
					Phase:    num,
					ID:       sub.ID.String(),
					Path:     sub.Path,
					Message:  fmt.Sprintf("directory %q uses legacy numbering", sub.Name),
					Fix:      fmt.Sprintf("rename %s → %s (phx renumber %d)", sub.ID.String(), sub.ID.Canonical().String(), num),
				})
			}
		}

		if idx == nil {
			if len(tree.ActiveIndexes(num)) == 0 {
				result.add(Finding{
					Rule:     errors.IndexMissing,
					Severity: warnOrError,
					Phase:    num,
					Path:     pd.Path,
					Message:  fmt.Sprintf("phase %d has no %s", num, phase.IndexFileName(num)),
					Fix:      fmt.Sprintf("create %s/%s", pd.Path, phase.IndexFileName(num)),
				})
			}
			// Authority conflicts are reported separately; without a
			// single authoritative index, cross-referencing is moot.
			continue
		}

		dirByKey := make(map[[2]int]scan.SubPhaseDir)
		dirByName := make(map[string]scan.SubPhaseDir)
		for _, sub := range pd.SubDirs {
			if sub.Err != nil {
				continue
			}
			dirByKey[[2]int{sub.ID.Phase, sub.ID.Seq}] = sub
			dirByName[sub.Name] = sub
		}

		claimed := make(map[string]bool)
		for _, e := range idx.Entries {
			if e.Err != nil {
				continue
			}
			if dir, ok := dirByName[e.TargetDir]; ok {
				claimed[dir.Name] = true
				continue
			}
			if dir, ok := dirByKey[[2]int{e.ID.Phase, e.ID.Seq}]; ok {
				claimed[dir.Name] = true
				continue
			}
			result.add(Finding{
				Rule:     errors.OrphanIndexEntry,
				Severity: warnOrError,
				Phase:    num,
				ID:       e.ID.String(),
				Path:     idx.Path,
				Line:     e.Line,
				Message:  fmt.Sprintf("index lists %s but no matching directory exists", e.ID.String()),
				Fix:      "remove the stale entry or restore the directory",
			})
		}

		for _, sub := range pd.SubDirs {
			if sub.Err != nil || claimed[sub.Name] {
				continue
			}
			result.add(Finding{
				Rule:     errors.UnindexedDirectory,
				Severity: warnOrError,
				Phase:    num,
				ID:       sub.ID.String(),
				Path:     sub.Path,
				Message:  fmt.Sprintf("directory %q has no entry in %s", sub.Name, idx.Path),
				Fix:      fmt.Sprintf("add %s to the phase index", sub.ID.String()),
			})
		}
	}
}

// checkNavigation verifies that prev/next links of active indexes point
// at phases that actually have an active index.
func (l *Linter) checkNavigation(result *Result, tree *scan.Tree) {
	for _, idx := range tree.Indexes {
		if idx.Archived {
			continue
		}
		for _, target := range []int{idx.Nav.Prev, idx.Nav.Next} {
			if target == 0 {
				continue
			}
			if len(tree.ActiveIndexes(target)) == 0 {
				result.add(Finding{
					Rule:     errors.PhaseNotFound,
					Severity: SeverityWarning,
					Phase:    idx.Phase,
					Path:     idx.Path,
					Message:  fmt.Sprintf("navigation links to phase %d, which has no active index", target),
					Fix:      "update the navigation link or restore the phase",
				})
			}
		}
	}
}

// checkDeclarations compares the tree against PHASES.toml when present.
func (l *Linter) checkDeclarations(result *Result, tree *scan.Tree) {
	if tree.Declarations == nil {
		return
	}

	for _, decl := range tree.Declarations.Phases {
		if _, ok := tree.Phases[decl.Number]; !ok {
			result.add(Finding{
				Rule:     errors.PhaseNotFound,
				Severity: SeverityWarning,
				Phase:    decl.Number,
				Path:     phase.DeclarationFile,
				Message:  fmt.Sprintf("phase %d (%s) is declared but missing from the tree", decl.Number, decl.Name),
				Fix:      fmt.Sprintf("create %s or remove the declaration", phase.PhaseDirName(decl.Number)),
			})
		}
	}
	for _, num := range tree.PhaseNumbers() {
		if tree.Declarations.ByNumber(num) == nil {
			result.add(Finding{
				Rule:     errors.PhaseNotFound,
				Severity: SeverityWarning,
				Phase:    num,
				Path:     phase.DeclarationFile,
				Message:  fmt.Sprintf("phase %d exists in the tree but is not declared", num),
				Fix:      fmt.Sprintf("add phase %d to %s", num, phase.DeclarationFile),
			})
		}
	}
}

func (r *Result) add(f Finding) {
	r.Findings = append(r.Findings, f)
}

func (l *Linter) finish(result *Result, tree *scan.Tree, start time.Time) {
	sort.Slice(result.Findings, func(i, j int) bool {
		a, b := result.Findings[i], result.Findings[j]
		if a.Severity.Weight() != b.Severity.Weight() {
			return a.Severity.Weight() > b.Severity.Weight()
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Line < b.Line
	})

	result.Summary.Total = len(result.Findings)
	result.Summary.BySeverity = make(map[Severity]int)
	result.Summary.ByRule = make(map[errors.ErrorCode]int)
	result.Summary.ByPhase = make(map[int]int)
	for _, f := range result.Findings {
		result.Summary.BySeverity[f.Severity]++
		result.Summary.ByRule[f.Rule]++
		if f.Phase != 0 {
			result.Summary.ByPhase[f.Phase]++
		}
	}
	result.Summary.PhasesScanned = len(tree.Phases)
	for _, idx := range tree.Indexes {
		if !idx.Archived {
			result.Summary.IndexesScanned++
		}
	}
	result.Duration = time.Since(start).String()

	l.logger.Debug("Lint complete", map[string]interface{}{
		"findings": result.Summary.Total,
		"phases":   result.Summary.PhasesScanned,
	})
}
