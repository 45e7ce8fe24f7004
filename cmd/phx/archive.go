package main

import (
	"fmt"

	"phx/internal/archive"
	"phx/internal/lockfile"

	"github.com/spf13/cobra"
)

var archiveFormat string

// ArchiveResponseCLI is the output of the archive command.
type ArchiveResponseCLI struct {
	Phase          int      `json:"phase"`
	ArchivePath    string   `json:"archivePath"`
	IndexPaths     []string `json:"indexPaths"`
	SnapshotPath   string   `json:"snapshotPath,omitempty"`
	SnapshotSHA256 string   `json:"snapshotSha256,omitempty"`
	Files          int      `json:"files"`
}

var archiveCmd = &cobra.Command{
	Use:   "archive <phase>",
	Short: "Archive a retired phase",
	Long: `Copies the phase tree under the archive directory, marks its index
archived in place, and records a compressed snapshot with a digest in
the registry. Nothing is deleted; archived indexes simply stop counting
as phase authority.`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().StringVar(&archiveFormat, "format", "human",
		"Output format: json or human")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
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

	lock, err := lockfile.Acquire(stateDir(repoRoot))
	if err != nil {
		return err
	}
	defer lock.Release()

	root := docsRoot(repoRoot, cfg)
	result, err := archive.NewArchiver(root, stateDir(repoRoot), cfg, logger).Archive(tree, phaseNum)
	if err != nil {
		return err
	}

	if db, dbErr := openRegistry(repoRoot, logger); dbErr == nil {
		_ = db.RecordAudit("archive", phaseNum, result)
		if result.SnapshotPath != "" {
			_, _ = db.RecordSnapshot(phaseNum, result.SnapshotPath, result.SnapshotSHA256)
		}
		db.Close()
	}

	resp := &ArchiveResponseCLI{
		Phase:          result.Phase,
		ArchivePath:    result.ArchivePath,
		IndexPaths:     result.IndexPaths,
		SnapshotPath:   result.SnapshotPath,
		SnapshotSHA256: result.SnapshotSHA256,
		Files:          result.Files,
	}

	output, err := FormatResponse(resp, OutputFormat(archiveFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}
