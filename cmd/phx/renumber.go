package main

import (
	"fmt"

	"phx/internal/lockfile"
	"phx/internal/renumber"

	"github.com/spf13/cobra"
)

var (
	renumberDryRun bool
	renumberFormat string
)

// RenumberResponseCLI is the output of the renumber command.
type RenumberResponseCLI struct {
	Phase   int               `json:"phase"`
	DryRun  bool              `json:"dryRun"`
	Renames []renumber.Rename `json:"renames"`
}

var renumberCmd = &cobra.Command{
	Use:   "renumber <phase>",
	Short: "Migrate a phase's legacy identifiers to canonical form",
	Long: `Renames legacy sub-phase directories (7.1_slug) to canonical 4-digit
form (7.0001_slug) and rewrites the phase index to match. The operation
is idempotent: a fully canonical phase plans nothing. Renumbering is
refused while the phase has duplicate sequence numbers.`,
	Args: cobra.ExactArgs(1),
	RunE: runRenumber,
}

func init() {
	renumberCmd.Flags().BoolVar(&renumberDryRun, "dry-run", false,
		"Plan the renames without touching the tree")
	renumberCmd.Flags().StringVar(&renumberFormat, "format", "human",
		"Output format: json or human")
	rootCmd.AddCommand(renumberCmd)
}

func runRenumber(cmd *cobra.Command, args []string) error {
	phaseNum, err := parsePhaseArg(args[0])
	if err != nil {
		return err
	}

	repoRoot := mustGetRepoRoot()
	cfg, logger := getSetup(repoRoot)
	ctx := newContext()

	tree, err := scanDocs(ctx, repoRoot, cfg, logger)
	if err != nil {
		return err
	}

	plan, err := renumber.Build(tree, phaseNum)
	if err != nil {
		return err
	}

	resp := &RenumberResponseCLI{
		Phase:   phaseNum,
		DryRun:  renumberDryRun,
		Renames: plan.Renames,
	}

	if !renumberDryRun && !plan.Empty() {
		lock, err := lockfile.Acquire(stateDir(repoRoot))
		if err != nil {
			return err
		}
		defer lock.Release()

		root := docsRoot(repoRoot, cfg)
		if err := renumber.NewApplier(root, logger).Apply(plan); err != nil {
			return err
		}

		if db, dbErr := openRegistry(repoRoot, logger); dbErr == nil {
			_ = db.RecordAudit("renumber", phaseNum, plan)
			// Canonical sequences stay burned even if dirs vanish later.
			for _, r := range plan.Renames {
				_ = db.ReserveSequence(phaseNum, r.NewID.Seq)
			}
			db.Close()
		}
	}

	output, err := FormatResponse(resp, OutputFormat(renumberFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}
