// Package renumber rewrites a phase's legacy identifiers to canonical
// 4-digit form: sub-phase directories are renamed and the phase index
// is rewritten to match. Planning and applying are separate so a dry
// run is just a plan that is printed instead of applied.
package renumber

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"phx/internal/errors"
	"phx/internal/identifier"
	"phx/internal/logging"
	"phx/internal/paths"
	"phx/internal/scan"
)

// Rename is one legacy-to-canonical rewrite.
type Rename struct {
	OldID identifier.Identifier `json:"oldId"`
	NewID identifier.Identifier `json:"newId"`

	// OldDir/NewDir are bare directory names. Empty when the legacy
	// identifier appears only in the index.
	OldDir string `json:"oldDir,omitempty"`
	NewDir string `json:"newDir,omitempty"`
}

// Plan is the full set of rewrites for one phase.
type Plan struct {
	Phase     int      `json:"phase"`
	IndexPath string   `json:"indexPath"` // docs-root-relative
	Renames   []Rename `json:"renames"`
}

// Empty reports whether the phase is already fully canonical.
// Renumbering an already-canonical phase plans nothing, which is what
// makes the operation idempotent.
func (p *Plan) Empty() bool {
	return len(p.Renames) == 0
}

// Build plans the renumbering of one phase from a scanned tree.
// It refuses to plan while duplicates exist: renumbering would have to
// pick which claimant keeps the sequence, and that is a human call.
func Build(tree *scan.Tree, phaseNum int) (*Plan, error) {
	pd := tree.Phases[phaseNum]
	if pd == nil {
		return nil, errors.New(errors.PhaseNotFound,
			fmt.Sprintf("phase %d not found under %s", phaseNum, tree.Root), nil)
	}

	active := tree.ActiveIndexes(phaseNum)
	switch {
	case len(active) == 0:
		return nil, errors.New(errors.IndexMissing,
			fmt.Sprintf("phase %d has no active index to rewrite", phaseNum), nil)
	case len(active) > 1:
		return nil, errors.New(errors.AuthorityConflict,
			fmt.Sprintf("phase %d has %d active indexes; archive one first", phaseNum, len(active)), nil)
	}
	idx := active[0]

	if err := identifier.CheckUniqueness(idx.EntryIdentifiers()); err != nil {
		return nil, errors.New(errors.RenumberBlocked,
			fmt.Sprintf("phase %d has duplicate sequence numbers", phaseNum), err)
	}

	plan := &Plan{Phase: phaseNum, IndexPath: idx.Path}
	planned := make(map[string]bool)

	add := func(id identifier.Identifier, dirName, slug string) {
		if id.IsCanonical() || planned[id.String()] {
			return
		}
		planned[id.String()] = true
		r := Rename{OldID: id, NewID: id.Canonical()}
		if dirName != "" {
			r.OldDir = dirName
			r.NewDir = identifier.DirName(id.Canonical(), slug)
		}
		plan.Renames = append(plan.Renames, r)
	}

	dirByKey := make(map[[2]int]scan.SubPhaseDir)
	for _, sub := range pd.SubDirs {
		if sub.Err == nil {
			dirByKey[[2]int{sub.ID.Phase, sub.ID.Seq}] = sub
		}
	}

	for _, e := range idx.Entries {
		if e.Err != nil {
			continue
		}
		if dir, ok := dirByKey[[2]int{e.ID.Phase, e.ID.Seq}]; ok && !dir.ID.IsCanonical() {
			add(dir.ID, dir.Name, dir.Slug)
			continue
		}
		add(e.ID, "", "")
	}

	// Legacy directories the index never mentions are still renamed:
	// the whole phase moves to canonical form in one pass.
	for _, sub := range pd.SubDirs {
		if sub.Err == nil {
			add(sub.ID, sub.Name, sub.Slug)
		}
	}

	sort.Slice(plan.Renames, func(i, j int) bool {
		return plan.Renames[i].OldID.Seq < plan.Renames[j].OldID.Seq
	})
	return plan, nil
}

// Applier executes a plan against the filesystem.
type Applier struct {
	root   string // absolute docs root
	logger *logging.Logger
}

// NewApplier creates an applier for the given docs root.
func NewApplier(root string, logger *logging.Logger) *Applier {
	return &Applier{root: root, logger: logger}
}

// Apply renames directories and rewrites the index. Directory renames
// happen first so a crash mid-way leaves the index pointing at a
// mixture the validator will flag, not silently corrupted content.
func (a *Applier) Apply(plan *Plan) error {
	if plan.Empty() {
		return nil
	}

	phaseDir := filepath.Dir(paths.JoinRoot(a.root, plan.IndexPath))

	for _, r := range plan.Renames {
		if r.OldDir == "" {
			continue
		}
		oldPath := filepath.Join(phaseDir, r.OldDir)
		newPath := filepath.Join(phaseDir, r.NewDir)
		if _, err := os.Stat(newPath); err == nil {
			return errors.New(errors.RenumberBlocked,
				fmt.Sprintf("target directory %q already exists", r.NewDir), nil)
		}
		if err := os.Rename(oldPath, newPath); err != nil {
			return errors.New(errors.InternalError,
				fmt.Sprintf("renaming %q to %q", r.OldDir, r.NewDir), err)
		}
		a.logger.Info("Renamed sub-phase directory", map[string]interface{}{
			"from": r.OldDir,
			"to":   r.NewDir,
		})
	}

	indexPath := paths.JoinRoot(a.root, plan.IndexPath)
	content, err := os.ReadFile(indexPath)
	if err != nil {
		return errors.New(errors.InternalError,
			fmt.Sprintf("reading index %s", plan.IndexPath), err)
	}

	rewritten := RewriteContent(content, plan.Renames)
	if err := os.WriteFile(indexPath, rewritten, 0644); err != nil {
		return errors.New(errors.InternalError,
			fmt.Sprintf("writing index %s", plan.IndexPath), err)
	}

	a.logger.Info("Rewrote phase index", map[string]interface{}{
		"path":    plan.IndexPath,
		"renames": len(plan.Renames),
	})
	return nil
}

// RewriteContent applies the renames to index text. Directory names are
// replaced literally first (longest first, so "7.1_a" never clobbers a
// prefix of "7.1_ab"), then bare identifier mentions are replaced on
// word boundaries so "7.1" never matches inside "7.12" or "17.1".
func RewriteContent(content []byte, renames []Rename) []byte {
	byLen := make([]Rename, len(renames))
	copy(byLen, renames)
	sort.Slice(byLen, func(i, j int) bool {
		return len(byLen[i].OldDir) > len(byLen[j].OldDir)
	})

	text := string(content)
	for _, r := range byLen {
		if r.OldDir != "" {
			text = strings.ReplaceAll(text, r.OldDir, r.NewDir)
		}
	}
	for _, r := range byLen {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(r.OldID.String()) + `\b`)
		text = re.ReplaceAllString(text, r.NewID.String())
	}
	return []byte(text)
}
