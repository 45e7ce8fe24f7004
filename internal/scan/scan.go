// Package scan discovers the phase/sub-phase layout of a docs tree:
// phase directories, their index files, sub-phase directories, and the
// archive. It only reads; judging what it finds is the lint package's
// job.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"phx/internal/config"
	"phx/internal/identifier"
	"phx/internal/logging"
	"phx/internal/paths"
	"phx/internal/phase"
)

// SubPhaseDir is a directory that names (or tries to name) a sub-phase.
type SubPhaseDir struct {
	Name      string                `json:"name"` // bare directory name
	Path      string                `json:"path"` // docs-root-relative
	ID        identifier.Identifier `json:"id"`
	Slug      string                `json:"slug,omitempty"`
	Err       error                 `json:"-"` // malformed directory name
	HasReadme bool                  `json:"hasReadme"`
}

// PhaseDir is a discovered phase_<N> directory and its contents.
type PhaseDir struct {
	Number  int           `json:"number"`
	Path    string        `json:"path"` // docs-root-relative
	SubDirs []SubPhaseDir `json:"subDirs,omitempty"`
}

// Tree is the discovered layout of a docs root.
type Tree struct {
	Root   string            `json:"root"` // absolute docs root
	Phases map[int]*PhaseDir `json:"phases"`

	// Indexes holds every parsed index file in the tree, archived ones
	// included. Multiple active indexes for one phase number are what
	// the authority-conflict rule looks for.
	Indexes []*phase.IndexFile `json:"indexes"`

	// Declarations is the parsed PHASES.toml, nil when absent.
	Declarations *phase.DeclarationsFile `json:"declarations,omitempty"`

	// Unreadable lists paths that could not be read. They are reported,
	// not fatal.
	Unreadable []string `json:"unreadable,omitempty"`
}

// ActiveIndexes returns the non-archived index files for a phase number.
func (t *Tree) ActiveIndexes(phaseNum int) []*phase.IndexFile {
	var out []*phase.IndexFile
	for _, idx := range t.Indexes {
		if idx.Phase == phaseNum && !idx.Archived {
			out = append(out, idx)
		}
	}
	return out
}

// ActiveIndex returns the single authoritative index for a phase, or
// nil when there is none or more than one.
func (t *Tree) ActiveIndex(phaseNum int) *phase.IndexFile {
	active := t.ActiveIndexes(phaseNum)
	if len(active) != 1 {
		return nil
	}
	return active[0]
}

// PhaseNumbers returns discovered phase numbers in ascending order.
func (t *Tree) PhaseNumbers() []int {
	nums := make([]int, 0, len(t.Phases))
	for n := range t.Phases {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Scanner walks a docs tree.
type Scanner struct {
	root   string
	cfg    *config.Config
	logger *logging.Logger
}

// NewScanner creates a scanner for the given absolute docs root.
func NewScanner(root string, cfg *config.Config, logger *logging.Logger) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{root: root, cfg: cfg, logger: logger}
}

// Scan walks the docs root and builds the Tree. Inaccessible entries
// are recorded and skipped. The walk stops early when ctx is done.
func (s *Scanner) Scan(ctx context.Context) (*Tree, error) {
	tree := &Tree{
		Root:   s.root,
		Phases: make(map[int]*PhaseDir),
	}

	decls, err := phase.LoadDeclarations(s.root)
	if err != nil {
		s.logger.Warn("Failed to load PHASES.toml", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		tree.Declarations = decls
	}

	walkErr := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			tree.Unreadable = append(tree.Unreadable, path)
			return nil //nolint:nilerr // skip inaccessible
		}

		rel, relErr := paths.Canonicalize(path, s.root)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			if s.excluded(info.Name(), rel) {
				return filepath.SkipDir
			}
			s.visitDir(tree, rel, info.Name())
			return nil
		}

		if _, ok := phase.MatchIndexFileName(info.Name()); ok {
			if info.Size() > int64(s.cfg.Lint.MaxIndexSizeBytes) {
				s.logger.Warn("Skipping oversized index file", map[string]interface{}{
					"path": rel,
					"size": info.Size(),
				})
				return nil
			}
			s.visitIndex(tree, path, rel)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sortTree(tree)
	return tree, nil
}

// visitDir records phase and sub-phase directories. Directory names
// that parse as neither are ignored: prose directories are common and
// not the scanner's business.
func (s *Scanner) visitDir(tree *Tree, rel, name string) {
	// Archived mirrors of the active layout never contribute phases or
	// sub-phase directories: only their index files matter, and those
	// are parsed as archived.
	if IsArchivePath(rel, s.cfg.Archive.Dir) {
		return
	}

	if n, ok := phase.MatchPhaseDirName(name); ok {
		if tree.Phases[n] == nil {
			tree.Phases[n] = &PhaseDir{Number: n, Path: rel}
		}
		return
	}

	parentRel := filepath.ToSlash(filepath.Dir(rel))
	parentNum, ok := phase.MatchPhaseDirName(filepath.Base(parentRel))
	if !ok {
		return
	}
	pd := tree.Phases[parentNum]
	if pd == nil {
		pd = &PhaseDir{Number: parentNum, Path: parentRel}
		tree.Phases[parentNum] = pd
	}

	sub := SubPhaseDir{Name: name, Path: rel}
	id, slug, err := identifier.ParseDirName(name)
	if err != nil {
		// Only directories that were plausibly meant to be sub-phases
		// get flagged; "notes" or "assets" stay invisible.
		if !looksLikeSubPhaseDir(name) {
			return
		}
		sub.Err = err
	} else {
		sub.ID = id
		sub.Slug = slug
	}

	readme := filepath.Join(s.root, filepath.FromSlash(rel), "README.md")
	if _, statErr := os.Stat(readme); statErr == nil {
		sub.HasReadme = true
	}

	pd.SubDirs = append(pd.SubDirs, sub)
}

func (s *Scanner) visitIndex(tree *Tree, absPath, rel string) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		tree.Unreadable = append(tree.Unreadable, rel)
		return
	}

	idx, err := phase.ParseIndex(rel, content)
	if err != nil {
		s.logger.Warn("Failed to parse index file", map[string]interface{}{
			"path":  rel,
			"error": err.Error(),
		})
		tree.Unreadable = append(tree.Unreadable, rel)
		return
	}
	if IsArchivePath(rel, s.cfg.Archive.Dir) {
		idx.Archived = true
	}
	tree.Indexes = append(tree.Indexes, idx)
}

func (s *Scanner) excluded(name, rel string) bool {
	for _, pattern := range s.cfg.Lint.ExcludeGlobs {
		if m, _ := filepath.Match(pattern, name); m {
			return true
		}
		if m, _ := filepath.Match(pattern, rel); m {
			return true
		}
	}
	return false
}

// looksLikeSubPhaseDir reports whether a directory name was plausibly
// meant to follow the <id>_<slug> convention: it leads with a digit.
func looksLikeSubPhaseDir(name string) bool {
	return name != "" && name[0] >= '0' && name[0] <= '9'
}

func sortTree(tree *Tree) {
	for _, pd := range tree.Phases {
		sort.Slice(pd.SubDirs, func(i, j int) bool {
			return pd.SubDirs[i].Name < pd.SubDirs[j].Name
		})
	}
	sort.Slice(tree.Indexes, func(i, j int) bool {
		if tree.Indexes[i].Phase != tree.Indexes[j].Phase {
			return tree.Indexes[i].Phase < tree.Indexes[j].Phase
		}
		return tree.Indexes[i].Path < tree.Indexes[j].Path
	})
}

// IsArchivePath reports whether a docs-root-relative path lies under
// the archive directory.
func IsArchivePath(rel, archiveDir string) bool {
	return strings.HasPrefix(rel, archiveDir+"/") || rel == archiveDir
}
