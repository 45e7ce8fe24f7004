package phase

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// DeclarationFile is the default filename for phase declarations.
const DeclarationFile = "PHASES.toml"

// Declaration represents a declared phase in PHASES.toml.
type Declaration struct {
	// Number is the phase number (required, positive)
	Number int `toml:"number"`

	// Name is the human-readable name of the phase
	Name string `toml:"name"`

	// Owner is the owner reference (e.g., @team-name or user@email.com)
	Owner string `toml:"owner,omitempty"`

	// Tags are classification tags for the phase
	Tags []string `toml:"tags,omitempty"`

	// Requires lists phase numbers this phase depends on
	Requires []int `toml:"requires,omitempty"`

	// Blocks lists phase numbers blocked by this phase
	Blocks []int `toml:"blocks,omitempty"`
}

// DeclarationsFile represents the root structure of PHASES.toml.
type DeclarationsFile struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Phases is the list of declared phases
	Phases []Declaration `toml:"phase"`
}

// ParseDeclarations parses a PHASES.toml file from the given path.
func ParseDeclarations(filePath string) (*DeclarationsFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PHASES.toml: %w", err)
	}

	var decls DeclarationsFile
	if err := toml.Unmarshal(data, &decls); err != nil {
		return nil, fmt.Errorf("failed to parse PHASES.toml: %w", err)
	}

	if decls.Version < 1 {
		decls.Version = 1
	}

	for _, d := range decls.Phases {
		if d.Number < 1 {
			return nil, fmt.Errorf("phase declaration %q has invalid number %d", d.Name, d.Number)
		}
	}

	return &decls, nil
}

// LoadDeclarations loads PHASES.toml from the docs root if it exists.
// Returns nil without error when the file is absent: declarations are
// optional.
func LoadDeclarations(docsRoot string) (*DeclarationsFile, error) {
	filePath := filepath.Join(docsRoot, DeclarationFile)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	}
	return ParseDeclarations(filePath)
}

// Numbers returns the declared phase numbers in declaration order.
func (d *DeclarationsFile) Numbers() []int {
	nums := make([]int, 0, len(d.Phases))
	for _, p := range d.Phases {
		nums = append(nums, p.Number)
	}
	return nums
}

// ByNumber returns the declaration for a phase number, or nil.
func (d *DeclarationsFile) ByNumber(n int) *Declaration {
	for i := range d.Phases {
		if d.Phases[i].Number == n {
			return &d.Phases[i]
		}
	}
	return nil
}

// WriteDeclarations writes a DeclarationsFile to the given path.
func WriteDeclarations(filePath string, decls *DeclarationsFile) error {
	data, err := toml.Marshal(decls)
	if err != nil {
		return fmt.Errorf("failed to marshal PHASES.toml: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write PHASES.toml: %w", err)
	}

	return nil
}
