package phase

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"phx/internal/identifier"
)

// IndexFileName renders the index filename for a phase number.
func IndexFileName(phase int) string {
	return fmt.Sprintf("PHASE_%d_INDEX.md", phase)
}

var (
	indexNamePattern = regexp.MustCompile(`^PHASE_([0-9]+)_INDEX\.md$`)
	phaseDirPattern  = regexp.MustCompile(`^phase_([0-9]+)$`)
	linkPattern      = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	navTargetPattern = regexp.MustCompile(`PHASE_([0-9]+)_INDEX\.md$`)
)

// MatchIndexFileName extracts the phase number from an index filename.
func MatchIndexFileName(name string) (int, bool) {
	m := indexNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MatchPhaseDirName extracts the phase number from a "phase_<N>"
// directory name.
func MatchPhaseDirName(name string) (int, bool) {
	m := phaseDirPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// PhaseDirName renders the directory name for a phase number.
func PhaseDirName(phase int) string {
	return fmt.Sprintf("phase_%d", phase)
}

// Frontmatter is the optional YAML block at the top of an index file.
// Unknown keys are preserved through Rest so rewrites do not lose them.
type Frontmatter struct {
	Phase    int                    `yaml:"phase,omitempty" json:"phase,omitempty"`
	Name     string                 `yaml:"name,omitempty" json:"name,omitempty"`
	Status   string                 `yaml:"status,omitempty" json:"status,omitempty"`
	Updated  string                 `yaml:"updated,omitempty" json:"updated,omitempty"`
	Archived bool                   `yaml:"archived,omitempty" json:"archived,omitempty"`
	Requires []int                  `yaml:"requires,omitempty" json:"requires,omitempty"`
	Blocks   []int                  `yaml:"blocks,omitempty" json:"blocks,omitempty"`
	Rest     map[string]interface{} `yaml:",inline" json:"-"`
}

const frontmatterDelim = "---"

// SplitFrontmatter separates a leading YAML frontmatter block from the
// markdown body. Returns the raw YAML (without delimiters), the body,
// and whether a frontmatter block was present.
func SplitFrontmatter(content []byte) (front []byte, body []byte, ok bool) {
	if !bytes.HasPrefix(content, []byte(frontmatterDelim+"\n")) {
		return nil, content, false
	}
	rest := content[len(frontmatterDelim)+1:]
	end := bytes.Index(rest, []byte("\n"+frontmatterDelim))
	if end < 0 {
		return nil, content, false
	}
	front = rest[:end+1]
	body = rest[end+len(frontmatterDelim)+1:]
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}
	return front, body, true
}

// ParseIndex parses a PHASE_<N>_INDEX.md. relPath is docs-root-relative
// with forward slashes; the phase number comes from the filename.
// Malformed entries are recorded on the IndexFile rather than failing
// the parse, so one bad row does not hide the rest of the index.
func ParseIndex(relPath string, content []byte) (*IndexFile, error) {
	phaseNum, ok := MatchIndexFileName(path.Base(relPath))
	if !ok {
		return nil, fmt.Errorf("not an index file name: %s", relPath)
	}

	idx := &IndexFile{
		Path:  relPath,
		Phase: phaseNum,
	}

	front, body, hasFront := SplitFrontmatter(content)
	fmLines := 0
	if hasFront {
		if err := yaml.Unmarshal(front, &idx.Meta); err != nil {
			return nil, fmt.Errorf("parsing frontmatter of %s: %w", relPath, err)
		}
		idx.Archived = idx.Meta.Archived
		// Delimiter lines plus the block itself offset body line numbers.
		fmLines = bytes.Count(front, []byte("\n")) + 2
	}
	if strings.Contains(relPath, "archive/") {
		idx.Archived = true
	}

	if idx.Meta.Status != "" {
		idx.Status = ParseStatus(idx.Meta.Status)
	}

	lines := strings.Split(string(body), "\n")
	for i, line := range lines {
		lineNum := fmLines + i + 1

		// The first explicit status line wins when frontmatter is silent.
		if idx.Status == "" || idx.Status == StatusUnknown {
			if strings.Contains(strings.ToLower(line), "status") {
				if st := ParseStatus(line); st != StatusUnknown {
					idx.Status = st
				}
			}
		}

		for _, m := range linkPattern.FindAllStringSubmatch(line, -1) {
			text, target := m[1], m[2]
			if nav := navTargetPattern.FindStringSubmatch(target); nav != nil {
				n, _ := strconv.Atoi(nav[1])
				switch {
				case n < phaseNum && (idx.Nav.Prev == 0 || n > idx.Nav.Prev):
					idx.Nav.Prev = n
				case n > phaseNum && (idx.Nav.Next == 0 || n < idx.Nav.Next):
					idx.Nav.Next = n
				}
				continue
			}

			entry, isEntry := parseEntry(text, target, line, lineNum)
			if isEntry {
				idx.Entries = append(idx.Entries, entry)
			}
		}
	}

	if idx.Status == "" {
		idx.Status = StatusUnknown
	}
	return idx, nil
}

// parseEntry classifies a markdown link as a sub-phase entry and
// extracts its identifier. A link counts as an entry when its target
// points into a sub-phase directory or its text leads with something
// identifier-shaped.
func parseEntry(text, target, line string, lineNum int) (IndexEntry, bool) {
	targetDir := firstSegment(target)

	rawID := ""
	name := text
	if tok := firstToken(text); tok != "" && looksLikeIdentifier(tok) {
		rawID = tok
		name = strings.TrimSpace(strings.TrimPrefix(text, tok))
	}

	dirLooksLikeSubPhase := targetDir != "" && looksLikeIdentifier(idPartOfDirName(targetDir))
	if rawID == "" && !dirLooksLikeSubPhase {
		return IndexEntry{}, false
	}
	if rawID == "" {
		rawID = idPartOfDirName(targetDir)
	}

	entry := IndexEntry{
		RawID:     rawID,
		Name:      name,
		Target:    target,
		TargetDir: targetDir,
		Status:    ParseStatus(line),
		Priority:  ParsePriority(line),
		Line:      lineNum,
	}

	id, err := identifier.Parse(rawID)
	if err != nil {
		entry.Err = err
		return entry, true
	}
	if !id.HasSeq {
		// A phase-only link inside an index is a heading or dependency
		// reference, not a sub-phase entry.
		return IndexEntry{}, false
	}
	entry.ID = id
	return entry, true
}

func firstSegment(target string) string {
	target = strings.TrimPrefix(target, "./")
	if i := strings.Index(target, "/"); i >= 0 {
		return target[:i]
	}
	return ""
}

func firstToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimSuffix(fields[0], ":")
}

func idPartOfDirName(dir string) string {
	if i := strings.Index(dir, "_"); i >= 0 {
		return dir[:i]
	}
	return dir
}

// looksLikeIdentifier reports whether a token is plausibly meant to be
// a sub-phase identifier: it starts with a digit and contains a dot.
// Malformed attempts ("7.x", "7.00001") still count so they surface as
// MALFORMED_IDENTIFIER findings instead of being silently dropped.
func looksLikeIdentifier(tok string) bool {
	if tok == "" || tok[0] < '0' || tok[0] > '9' {
		return false
	}
	return strings.Contains(tok, ".")
}

// MarkArchived sets archived: true in the index frontmatter, creating
// the frontmatter block when absent. The markdown body is untouched.
func MarkArchived(content []byte) ([]byte, error) {
	front, body, hasFront := SplitFrontmatter(content)

	var meta Frontmatter
	if hasFront {
		if err := yaml.Unmarshal(front, &meta); err != nil {
			return nil, fmt.Errorf("parsing frontmatter: %w", err)
		}
	}
	meta.Archived = true

	rendered, err := yaml.Marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("rendering frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim + "\n")
	buf.Write(rendered)
	buf.WriteString(frontmatterDelim + "\n\n")
	buf.Write(bytes.TrimLeft(body, "\n"))
	return buf.Bytes(), nil
}
