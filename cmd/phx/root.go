package main

import (
	"phx/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "phx",
	Short: "PHX - Phase Index Toolkit",
	Long: `PHX keeps phase-based documentation trees consistent: it validates
sub-phase identifiers and index files, migrates legacy numbering to the
canonical 4-digit form, allocates new sequence numbers, and archives
retired phases without destroying history.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("PHX version {{.Version}}\n")
}
