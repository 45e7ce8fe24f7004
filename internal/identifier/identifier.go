// Package identifier parses and formats phase/sub-phase identifiers.
//
// Two textual forms coexist during the numbering migration: the canonical
// form with a 4-digit zero-padded sequence ("7.0001") and the legacy form
// with 1-3 digits ("7.1"). Both parse into the same Identifier value,
// tagged with its Format, so downstream logic handles the pair
// exhaustively instead of juggling two ad-hoc string shapes.
package identifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"phx/internal/errors"
)

// Format tags which textual form an identifier was parsed from.
type Format string

const (
	// Canonical is the 4-digit zero-padded sub-phase form ("7.0001")
	Canonical Format = "canonical"
	// Legacy is the pre-migration 1-3 digit form ("7.1")
	Legacy Format = "legacy"
)

// SeqDigits is the sequence width mandated for canonical identifiers.
const SeqDigits = 4

// identifierPattern matches both canonical and legacy forms. The split
// into canonical vs legacy happens on the captured sequence width.
var identifierPattern = regexp.MustCompile(`^([0-9]+)(?:\.([0-9]{1,4}))?$`)

// Identifier is a parsed phase or sub-phase identifier.
type Identifier struct {
	Phase  int    `json:"phase"`
	Seq    int    `json:"seq,omitempty"`
	HasSeq bool   `json:"hasSeq"`
	Format Format `json:"format"`

	// seqWidth preserves the original digit count so String round-trips
	// legacy text exactly ("7.01" stays "7.01", not "7.1").
	seqWidth int
}

// New returns a canonical sub-phase identifier.
func New(phase, seq int) Identifier {
	return Identifier{
		Phase:    phase,
		Seq:      seq,
		HasSeq:   true,
		Format:   Canonical,
		seqWidth: SeqDigits,
	}
}

// NewPhase returns a phase-only identifier.
func NewPhase(phase int) Identifier {
	return Identifier{Phase: phase, Format: Canonical}
}

// Parse parses an identifier in canonical or legacy form.
// Fails with MALFORMED_IDENTIFIER for anything else.
func Parse(text string) (Identifier, error) {
	m := identifierPattern.FindStringSubmatch(text)
	if m == nil {
		return Identifier{}, errors.New(errors.MalformedIdentifier,
			fmt.Sprintf("cannot parse identifier %q", text), nil).
			WithDetails(map[string]interface{}{"input": text})
	}

	// Leading zeros on the phase segment would break round-tripping and
	// have never been part of the convention.
	if len(m[1]) > 1 && m[1][0] == '0' {
		return Identifier{}, errors.New(errors.MalformedIdentifier,
			fmt.Sprintf("phase number %q has leading zeros", m[1]), nil).
			WithDetails(map[string]interface{}{"input": text})
	}

	phase, err := strconv.Atoi(m[1])
	if err != nil || phase < 1 {
		return Identifier{}, errors.New(errors.MalformedIdentifier,
			fmt.Sprintf("phase number %q is not a positive integer", m[1]), nil).
			WithDetails(map[string]interface{}{"input": text})
	}

	id := Identifier{Phase: phase, Format: Canonical}
	if m[2] == "" {
		return id, nil
	}

	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return Identifier{}, errors.New(errors.MalformedIdentifier,
			fmt.Sprintf("sequence %q is not numeric", m[2]), nil)
	}

	id.Seq = seq
	id.HasSeq = true
	id.seqWidth = len(m[2])
	if id.seqWidth < SeqDigits {
		id.Format = Legacy
	}
	return id, nil
}

// MustParse parses an identifier and panics on failure. For tests and
// compile-time-known literals only.
func MustParse(text string) Identifier {
	id, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return id
}

// String renders the identifier in its original textual form.
func (id Identifier) String() string {
	if !id.HasSeq {
		return strconv.Itoa(id.Phase)
	}
	width := id.seqWidth
	if width == 0 {
		width = SeqDigits
	}
	return fmt.Sprintf("%d.%0*d", id.Phase, width, id.Seq)
}

// Canonical returns the identifier rewritten in 4-digit canonical form.
// Already-canonical identifiers are returned unchanged, so applying it
// twice is the same as applying it once.
func (id Identifier) Canonical() Identifier {
	if !id.HasSeq {
		id.Format = Canonical
		return id
	}
	id.Format = Canonical
	id.seqWidth = SeqDigits
	return id
}

// IsCanonical reports whether the identifier conforms to the 4-digit
// padding rule. Phase-only identifiers are canonical by definition.
func (id Identifier) IsCanonical() bool {
	return !id.HasSeq || id.Format == Canonical
}

// ValidatePadding checks the 4-digit padding rule. Legacy identifiers
// produce a LEGACY_FORMAT result, which callers treat as a non-fatal
// warning during the migration window, never as an error.
func ValidatePadding(id Identifier) *errors.PhxError {
	if id.IsCanonical() {
		return nil
	}
	return errors.New(errors.LegacyFormat,
		fmt.Sprintf("identifier %s uses legacy numbering; canonical form is %s",
			id.String(), id.Canonical().String()), nil).
		WithDetails(map[string]interface{}{
			"identifier": id.String(),
			"canonical":  id.Canonical().String(),
		})
}

// CheckUniqueness fails with DUPLICATE_SUBPHASE if two identifiers in
// the list resolve to the same (phase, seq) pair. Legacy "7.1" and
// canonical "7.0001" are the same sub-phase and therefore collide.
func CheckUniqueness(ids []Identifier) error {
	seen := make(map[[2]int]string, len(ids))
	for _, id := range ids {
		if !id.HasSeq {
			continue
		}
		key := [2]int{id.Phase, id.Seq}
		if prev, ok := seen[key]; ok {
			return errors.New(errors.DuplicateSubPhase,
				fmt.Sprintf("sub-phase sequence %d.%04d assigned to both %q and %q",
					id.Phase, id.Seq, prev, id.String()), nil).
				WithDetails(map[string]interface{}{
					"phase":  id.Phase,
					"seq":    id.Seq,
					"first":  prev,
					"second": id.String(),
				})
		}
		seen[key] = id.String()
	}
	return nil
}

// NextSequence returns the lowest unused sequence number strictly above
// the current maximum. Gaps left by archival are never refilled, so
// historical ordering survives. An empty phase starts at 1.
func NextSequence(existing []int) int {
	next := 1
	for _, seq := range existing {
		if seq >= next {
			next = seq + 1
		}
	}
	return next
}

// ParseDirName splits a sub-phase directory name ("7.0003_automate_etl")
// into its identifier and slug. The identifier segment must carry a
// sequence; phase-only directory names are malformed.
func ParseDirName(name string) (Identifier, string, error) {
	idPart := name
	slug := ""
	if i := strings.Index(name, "_"); i >= 0 {
		idPart = name[:i]
		slug = name[i+1:]
	}

	id, err := Parse(idPart)
	if err != nil {
		return Identifier{}, "", err
	}
	if !id.HasSeq {
		return Identifier{}, "", errors.New(errors.MalformedIdentifier,
			fmt.Sprintf("directory name %q lacks a sub-phase sequence", name), nil).
			WithDetails(map[string]interface{}{"input": name})
	}
	return id, slug, nil
}

// DirName renders the directory name for a sub-phase identifier and slug.
func DirName(id Identifier, slug string) string {
	if slug == "" {
		return id.String()
	}
	return id.String() + "_" + slug
}
