package main

import (
	"fmt"

	"phx/internal/identifier"
	"phx/internal/lockfile"
	"phx/internal/scan"

	"github.com/spf13/cobra"
)

var (
	nextReserve bool
	nextFormat  string
)

// NextResponseCLI is the output of the next command.
type NextResponseCLI struct {
	Phase    int    `json:"phase"`
	NextID   string `json:"nextId"`
	Seq      int    `json:"seq"`
	Reserved bool   `json:"reserved"`
}

var nextCmd = &cobra.Command{
	Use:   "next <phase>",
	Short: "Show the next free sub-phase identifier for a phase",
	Long: `Computes the next sequence number for a phase: one past the highest
sequence seen in directories, index entries, or prior reservations.
Gaps left by deleted sub-phases are never refilled. With --reserve the
sequence is burned in the registry so no later run hands it out again.`,
	Args: cobra.ExactArgs(1),
	RunE: runNext,
}

func init() {
	nextCmd.Flags().BoolVar(&nextReserve, "reserve", false,
		"Reserve the sequence in the registry")
	nextCmd.Flags().StringVar(&nextFormat, "format", "human",
		"Output format: json or human")
	rootCmd.AddCommand(nextCmd)
}

// sequencesInUse gathers every sequence visible for a phase: sub-phase
// directories plus every non-archived index. During an authority
// conflict each claimant contributes, so a sequence listed in only one
// of them is still never handed out again.
func sequencesInUse(tree *scan.Tree, phaseNum int) []int {
	var seqs []int
	if pd := tree.Phases[phaseNum]; pd != nil {
		for _, sub := range pd.SubDirs {
			if sub.Err == nil {
				seqs = append(seqs, sub.ID.Seq)
			}
		}
	}
	for _, idx := range tree.ActiveIndexes(phaseNum) {
		seqs = append(seqs, idx.Sequences()...)
	}
	return seqs
}

func runNext(cmd *cobra.Command, args []string) error {
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

	seqs := sequencesInUse(tree, phaseNum)

	db, err := openRegistry(repoRoot, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Reserved sequences stay burned even when their directories are gone.
	maxReserved, err := db.MaxAllocatedSeq(phaseNum)
	if err != nil {
		return err
	}
	seqs = append(seqs, maxReserved)

	seq := identifier.NextSequence(seqs)
	id := identifier.New(phaseNum, seq)

	if nextReserve {
		lock, err := lockfile.Acquire(stateDir(repoRoot))
		if err != nil {
			return err
		}
		defer lock.Release()

		if err := db.ReserveSequence(phaseNum, seq); err != nil {
			return err
		}
		_ = db.RecordAudit("reserve", phaseNum, map[string]interface{}{"seq": seq, "id": id.String()})
	}

	resp := &NextResponseCLI{
		Phase:    phaseNum,
		NextID:   id.String(),
		Seq:      seq,
		Reserved: nextReserve,
	}

	output, err := FormatResponse(resp, OutputFormat(nextFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}
