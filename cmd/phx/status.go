package main

import (
	"fmt"
	"os"

	"phx/internal/registry"
	"phx/internal/version"

	"github.com/spf13/cobra"
)

var statusFormat string

// StatusResponseCLI is the output of the status command.
type StatusResponseCLI struct {
	PhxVersion      string         `json:"phxVersion"`
	Initialized     bool           `json:"initialized"`
	DocsRoot        string         `json:"docsRoot,omitempty"`
	Phases          int            `json:"phases"`
	SubPhases       int            `json:"subPhases"`
	LegacyIDs       int            `json:"legacyIds"`
	ArchivedIndexes int            `json:"archivedIndexes"`
	RecentRuns      []registry.Run `json:"recentRuns,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tree and registry status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "human",
		"Output format: json or human")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	repoRoot := mustGetRepoRoot()
	cfg, logger := getSetup(repoRoot)

	resp := &StatusResponseCLI{
		PhxVersion: version.Version,
		DocsRoot:   cfg.DocsRoot,
	}

	if _, err := os.Stat(stateDir(repoRoot)); err == nil {
		resp.Initialized = true
	}

	if resp.Initialized {
		if tree, err := scanDocs(newContext(), repoRoot, cfg, logger); err == nil {
			resp.Phases = len(tree.Phases)
			for _, pd := range tree.Phases {
				resp.SubPhases += len(pd.SubDirs)
				for _, sub := range pd.SubDirs {
					if sub.Err == nil && !sub.ID.IsCanonical() {
						resp.LegacyIDs++
					}
				}
			}
			for _, idx := range tree.Indexes {
				if idx.Archived {
					resp.ArchivedIndexes++
				}
			}
		}

		if db, err := openRegistry(repoRoot, logger); err == nil {
			if runs, runsErr := db.RecentRuns(5); runsErr == nil {
				resp.RecentRuns = runs
			}
			db.Close()
		}
	}

	output, err := FormatResponse(resp, OutputFormat(statusFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}
