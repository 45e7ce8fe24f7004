package main

import (
	"fmt"
	"os"
	"path/filepath"

	"phx/internal/config"
	"phx/internal/errors"
	"phx/internal/logging"

	"github.com/spf13/cobra"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize PHX configuration",
	Long:  "Creates a .phx/ directory with default configuration in the current repository root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false,
		"Force reinitialization (removes existing .phx directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.Config{
		Format: "human",
		Level:  "info",
	})

	cwd, err := os.Getwd()
	if err != nil {
		return errors.New(errors.InternalError, "Failed to get current directory", err)
	}

	phxDir := filepath.Join(cwd, config.StateDir)
	if _, statErr := os.Stat(phxDir); statErr == nil {
		if !initForce {
			// Idempotent behavior: already initialized is success (CI-friendly)
			fmt.Println("PHX already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(phxDir, "config.json"))
			fmt.Println("\nRun 'phx init --force' to reinitialize.")
			return nil
		}
		if removeErr := os.RemoveAll(phxDir); removeErr != nil {
			return errors.New(errors.InternalError, "Failed to remove existing .phx directory", removeErr)
		}
		logger.Info("Removed existing .phx directory", nil)
	}

	if mkdirErr := os.MkdirAll(phxDir, 0755); mkdirErr != nil {
		return errors.New(errors.InternalError, "Failed to create .phx directory", mkdirErr)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(cwd); err != nil {
		return errors.New(errors.InternalError, "Failed to write config file", err)
	}

	// Create the phases root so the first validate has something to scan.
	if err := os.MkdirAll(filepath.Join(cwd, filepath.FromSlash(cfg.DocsRoot)), 0755); err != nil {
		return errors.New(errors.InternalError, "Failed to create phases root", err)
	}

	logger.Info("PHX initialized", map[string]interface{}{
		"config_path": filepath.Join(phxDir, "config.json"),
	})

	fmt.Println("PHX initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", filepath.Join(phxDir, "config.json"))
	fmt.Printf("Phases root: %s\n", cfg.DocsRoot)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'phx doctor' to check your setup")
	fmt.Println("  2. Run 'phx validate' to lint the phase tree")
	return nil
}
