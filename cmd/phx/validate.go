package main

import (
	"fmt"
	"os"

	"phx/internal/errors"
	"phx/internal/lint"
	"phx/internal/version"

	"github.com/spf13/cobra"
)

var (
	validateStrict bool
	validatePhase  int
	validateFormat string
)

var validateCmd = &cobra.Command{
	Use:   "validate [root]",
	Short: "Validate phase numbering and indexes",
	Long: `Scans the phases root and checks every sub-phase identifier, index
entry, and directory against the numbering convention. All findings are
collected in one pass. The exit code is 1 only when error-level
findings are present; warnings and informational findings never fail
the run.

The repository root defaults to the current directory; pass one as the
first argument to validate another tree.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false,
		"Escalate orphan and unindexed findings to errors")
	validateCmd.Flags().IntVar(&validatePhase, "phase", 0,
		"Restrict validation to one phase")
	validateCmd.Flags().StringVar(&validateFormat, "format", "human",
		"Output format: json, human, or sarif")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	repoRoot, err := repoRootFromArgs(args)
	if err != nil {
		return err
	}
	cfg, logger := getSetup(repoRoot)
	if validateStrict {
		cfg.Lint.Strict = true
	}

	ctx := newContext()
	tree, err := scanDocs(ctx, repoRoot, cfg, logger)
	if err != nil {
		return err
	}

	result, err := lint.NewLinter(cfg, logger).Lint(ctx, tree)
	if err != nil {
		return err
	}

	if validatePhase > 0 {
		result = filterByPhase(result, validatePhase)
	}

	// Record the run when the registry is available. Validation is
	// read-only with respect to the docs tree itself.
	if db, dbErr := openRegistry(repoRoot, logger); dbErr == nil {
		if run, runErr := db.StartRun("validate"); runErr == nil {
			_ = db.FinishRun(run,
				result.Summary.BySeverity[lint.SeverityError],
				result.Summary.BySeverity[lint.SeverityWarning])
		}
		db.Close()
	}

	var output string
	switch OutputFormat(validateFormat) {
	case FormatSARIF:
		output, err = FormatLintAsSARIF(result, version.Version)
	default:
		output, err = FormatResponse(result, OutputFormat(validateFormat))
	}
	if err != nil {
		return err
	}
	fmt.Println(output)

	if result.HasErrors() {
		os.Exit(1)
	}
	return nil
}

// filterByPhase narrows a result to findings for one phase and rebuilds
// the summary.
func filterByPhase(result *lint.Result, phaseNum int) *lint.Result {
	filtered := *result
	filtered.Findings = nil
	for _, f := range result.Findings {
		if f.Phase == phaseNum {
			filtered.Findings = append(filtered.Findings, f)
		}
	}

	filtered.Summary.Total = len(filtered.Findings)
	filtered.Summary.BySeverity = make(map[lint.Severity]int)
	filtered.Summary.ByRule = make(map[errors.ErrorCode]int)
	filtered.Summary.ByPhase = map[int]int{phaseNum: len(filtered.Findings)}
	filtered.Summary.LegacyIDs = 0
	for _, f := range filtered.Findings {
		filtered.Summary.BySeverity[f.Severity]++
		filtered.Summary.ByRule[f.Rule]++
		if f.Rule == errors.LegacyFormat {
			filtered.Summary.LegacyIDs++
		}
	}
	return &filtered
}
