package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"phx/internal/config"
	"phx/internal/errors"
	"phx/internal/logging"
	"phx/internal/registry"
	"phx/internal/scan"
)

var (
	setupOnce    sync.Once
	sharedConfig *config.Config
	sharedLogger *logging.Logger
)

// getSetup loads the shared configuration and logger.
// Configuration failures fall back to defaults so read-only commands
// keep working in an uninitialized repo.
func getSetup(repoRoot string) (*config.Config, *logging.Logger) {
	setupOnce.Do(func() {
		cfg, err := config.LoadConfig(repoRoot)
		if err != nil {
			cfg = config.DefaultConfig()
		}
		logger := logging.NewLogger(logging.Config{
			Format: logging.Format(cfg.Logging.Format),
			Level:  logging.LogLevel(cfg.Logging.Level),
		})
		if err != nil {
			logger.Warn("Failed to load config, using defaults", map[string]interface{}{
				"error": err.Error(),
			})
		}
		sharedConfig = cfg
		sharedLogger = logger
	})
	return sharedConfig, sharedLogger
}

// getRepoRoot returns the repository root directory.
func getRepoRoot() (string, error) {
	return os.Getwd()
}

// mustGetRepoRoot returns the repository root or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// repoRootFromArgs resolves the repo root for commands that take an
// optional root argument; absent, the current directory is used.
func repoRootFromArgs(args []string) (string, error) {
	if len(args) == 0 {
		return getRepoRoot()
	}
	root, err := filepath.Abs(args[0])
	if err != nil {
		return "", fmt.Errorf("resolving root %q: %w", args[0], err)
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		return "", errors.New(errors.PhaseNotFound,
			fmt.Sprintf("root %s is not a directory", args[0]), statErr)
	}
	return root, nil
}

// docsRoot resolves the absolute phases root for a repo.
func docsRoot(repoRoot string, cfg *config.Config) string {
	if filepath.IsAbs(cfg.DocsRoot) {
		return cfg.DocsRoot
	}
	return filepath.Join(repoRoot, filepath.FromSlash(cfg.DocsRoot))
}

// stateDir resolves the absolute .phx directory for a repo.
func stateDir(repoRoot string) string {
	return filepath.Join(repoRoot, config.StateDir)
}

// scanDocs runs a full scan of the phases root.
func scanDocs(ctx context.Context, repoRoot string, cfg *config.Config, logger *logging.Logger) (*scan.Tree, error) {
	root := docsRoot(repoRoot, cfg)
	if _, err := os.Stat(root); err != nil {
		return nil, errors.New(errors.PhaseNotFound,
			fmt.Sprintf("phases root %s does not exist; run 'phx init' first", cfg.DocsRoot), err)
	}
	return scan.NewScanner(root, cfg, logger).Scan(ctx)
}

// openRegistry opens the registry database under .phx/.
func openRegistry(repoRoot string, logger *logging.Logger) (*registry.DB, error) {
	return registry.Open(stateDir(repoRoot), logger)
}

// parsePhaseArg parses a positional phase-number argument.
func parsePhaseArg(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, errors.New(errors.MalformedIdentifier,
			fmt.Sprintf("%q is not a valid phase number", arg), err)
	}
	return n, nil
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}
