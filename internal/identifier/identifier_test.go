package identifier

import (
	stderrors "errors"
	"testing"

	phxerrors "phx/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPhase  int
		wantSeq    int
		wantHasSeq bool
		wantFormat Format
		wantErr    bool
	}{
		{"canonical sub-phase", "7.0001", 7, 1, true, Canonical, false},
		{"canonical higher seq", "7.0042", 7, 42, true, Canonical, false},
		{"legacy single digit", "7.1", 7, 1, true, Legacy, false},
		{"legacy two digits", "7.12", 7, 12, true, Legacy, false},
		{"legacy three digits", "7.123", 7, 123, true, Legacy, false},
		{"phase only", "7", 7, 0, false, Canonical, false},
		{"large phase", "12", 12, 0, false, Canonical, false},
		{"canonical phase 10", "10.0002", 10, 2, true, Canonical, false},
		{"malformed text", "phase-seven", 0, 0, false, "", true},
		{"empty string", "", 0, 0, false, "", true},
		{"trailing dot", "7.", 0, 0, false, "", true},
		{"five digit seq", "7.00001", 0, 0, false, "", true},
		{"negative phase", "-7.0001", 0, 0, false, "", true},
		{"zero phase", "0.0001", 0, 0, false, "", true},
		{"leading zero phase", "07.0001", 0, 0, false, "", true},
		{"two dots", "7.0001.2", 0, 0, false, "", true},
		{"spaces", " 7.0001", 0, 0, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) succeeded, want error", tt.input)
				}
				var phxErr *phxerrors.PhxError
				if !stderrors.As(err, &phxErr) {
					t.Fatalf("Parse(%q) error is %T, want *PhxError", tt.input, err)
				}
				if phxErr.Code != phxerrors.MalformedIdentifier {
					t.Errorf("error code = %s, want MALFORMED_IDENTIFIER", phxErr.Code)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			if id.Phase != tt.wantPhase {
				t.Errorf("Phase = %d, want %d", id.Phase, tt.wantPhase)
			}
			if id.Seq != tt.wantSeq {
				t.Errorf("Seq = %d, want %d", id.Seq, tt.wantSeq)
			}
			if id.HasSeq != tt.wantHasSeq {
				t.Errorf("HasSeq = %v, want %v", id.HasSeq, tt.wantHasSeq)
			}
			if id.Format != tt.wantFormat {
				t.Errorf("Format = %s, want %s", id.Format, tt.wantFormat)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	inputs := []string{"7", "7.1", "7.12", "7.123", "7.0001", "7.0042", "12.0100", "7.01"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			id, err := Parse(input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", input, err)
			}
			if got := id.String(); got != input {
				t.Errorf("round trip: Parse(%q).String() = %q", input, got)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"7.1", "7.0001"},
		{"7.12", "7.0012"},
		{"7.0001", "7.0001"},
		{"7", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id := MustParse(tt.input)
			if got := id.Canonical().String(); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalIdempotent(t *testing.T) {
	id := MustParse("7.3")
	once := id.Canonical()
	twice := once.Canonical()
	if once != twice {
		t.Errorf("Canonical not idempotent: once=%v twice=%v", once, twice)
	}
	if twice.String() != "7.0003" {
		t.Errorf("Canonical().String() = %q, want 7.0003", twice.String())
	}
}

func TestValidatePadding(t *testing.T) {
	if warn := ValidatePadding(MustParse("7.0002")); warn != nil {
		t.Errorf("canonical identifier flagged: %v", warn)
	}
	if warn := ValidatePadding(MustParse("7")); warn != nil {
		t.Errorf("phase-only identifier flagged: %v", warn)
	}

	warn := ValidatePadding(MustParse("7.1"))
	if warn == nil {
		t.Fatal("legacy identifier not flagged")
	}
	if warn.Code != phxerrors.LegacyFormat {
		t.Errorf("code = %s, want LEGACY_FORMAT", warn.Code)
	}
}

func TestCheckUniqueness(t *testing.T) {
	t.Run("unique", func(t *testing.T) {
		ids := []Identifier{MustParse("7.0001"), MustParse("7.0002"), MustParse("8.0001")}
		if err := CheckUniqueness(ids); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("duplicate canonical", func(t *testing.T) {
		ids := []Identifier{MustParse("7.0003"), MustParse("7.0003")}
		err := CheckUniqueness(ids)
		if err == nil {
			t.Fatal("duplicate not detected")
		}
		var phxErr *phxerrors.PhxError
		if !stderrors.As(err, &phxErr) || phxErr.Code != phxerrors.DuplicateSubPhase {
			t.Errorf("want DUPLICATE_SUBPHASE, got %v", err)
		}
	})

	t.Run("legacy collides with canonical", func(t *testing.T) {
		// 7.1 and 7.0001 are the same sub-phase in different notation.
		ids := []Identifier{MustParse("7.1"), MustParse("7.0001")}
		if err := CheckUniqueness(ids); err == nil {
			t.Error("legacy/canonical collision not detected")
		}
	})

	t.Run("phase-only ignored", func(t *testing.T) {
		ids := []Identifier{MustParse("7"), MustParse("7")}
		if err := CheckUniqueness(ids); err != nil {
			t.Errorf("phase-only identifiers should not collide: %v", err)
		}
	})
}

func TestNextSequence(t *testing.T) {
	tests := []struct {
		name     string
		existing []int
		want     int
	}{
		{"empty phase", nil, 1},
		{"sequential", []int{1, 2, 3}, 4},
		{"gaps are not refilled", []int{1, 5}, 6},
		{"unordered", []int{3, 1, 2}, 4},
		{"single", []int{7}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextSequence(tt.existing); got != tt.want {
				t.Errorf("NextSequence(%v) = %d, want %d", tt.existing, got, tt.want)
			}
		})
	}
}

func TestParseDirName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantID   string
		wantSlug string
		wantErr  bool
	}{
		{"canonical with slug", "7.0003_automate_data_collection_and_etl_processes", "7.0003", "automate_data_collection_and_etl_processes", false},
		{"legacy with slug", "7.1_bootstrap", "7.1", "bootstrap", false},
		{"no slug", "7.0001", "7.0001", "", false},
		{"phase only", "7_something", "", "", true},
		{"garbage", "notes", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, slug, err := ParseDirName(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDirName(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDirName(%q): %v", tt.input, err)
			}
			if id.String() != tt.wantID {
				t.Errorf("id = %q, want %q", id.String(), tt.wantID)
			}
			if slug != tt.wantSlug {
				t.Errorf("slug = %q, want %q", slug, tt.wantSlug)
			}
		})
	}
}

func TestDirName(t *testing.T) {
	if got := DirName(New(7, 3), "automate_etl"); got != "7.0003_automate_etl" {
		t.Errorf("DirName = %q, want 7.0003_automate_etl", got)
	}
	if got := DirName(New(7, 3), ""); got != "7.0003" {
		t.Errorf("DirName without slug = %q, want 7.0003", got)
	}
}
