package main

import (
	"fmt"
	"os"
	"path/filepath"

	"phx/internal/errors"
	"phx/internal/lint"
	"phx/internal/lockfile"
	"phx/internal/phase"

	"github.com/spf13/cobra"
)

var doctorFormat string

// DoctorCheck is one health check result.
type DoctorCheck struct {
	Name           string             `json:"name"`
	Status         string             `json:"status"` // pass, warn, fail
	Message        string             `json:"message"`
	SuggestedFixes []errors.FixAction `json:"suggestedFixes,omitempty"`
}

// DoctorResponseCLI is the output of the doctor command.
type DoctorResponseCLI struct {
	Healthy bool          `json:"healthy"`
	Checks  []DoctorCheck `json:"checks"`
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the PHX setup",
	Long:  "Runs health checks against the configuration, registry, and phase tree",
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "human",
		"Output format: json or human")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	repoRoot := mustGetRepoRoot()
	cfg, logger := getSetup(repoRoot)

	resp := &DoctorResponseCLI{Healthy: true}
	add := func(c DoctorCheck) {
		if c.Status == "fail" {
			resp.Healthy = false
		}
		resp.Checks = append(resp.Checks, c)
	}

	// Configuration
	configPath := filepath.Join(stateDir(repoRoot), "config.json")
	if _, err := os.Stat(configPath); err != nil {
		add(DoctorCheck{
			Name:    "config",
			Status:  "fail",
			Message: "no configuration found",
			SuggestedFixes: []errors.FixAction{{
				Type:        errors.RunCommand,
				Command:     "phx init",
				Safe:        true,
				Description: "Initialize PHX in this repository",
			}},
		})
	} else if err := cfg.Validate(); err != nil {
		add(DoctorCheck{
			Name:    "config",
			Status:  "fail",
			Message: err.Error(),
		})
	} else {
		add(DoctorCheck{Name: "config", Status: "pass", Message: "configuration valid"})
	}

	// Phases root
	root := docsRoot(repoRoot, cfg)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		add(DoctorCheck{
			Name:    "docs-root",
			Status:  "fail",
			Message: fmt.Sprintf("phases root %s does not exist", cfg.DocsRoot),
			SuggestedFixes: []errors.FixAction{{
				Type:        errors.RunCommand,
				Command:     "phx init",
				Safe:        true,
				Description: "Create the phases root",
			}},
		})
	} else {
		add(DoctorCheck{Name: "docs-root", Status: "pass", Message: cfg.DocsRoot})
	}

	// Registry
	if db, err := openRegistry(repoRoot, logger); err != nil {
		add(DoctorCheck{
			Name:    "registry",
			Status:  "fail",
			Message: fmt.Sprintf("cannot open registry: %v", err),
		})
	} else {
		db.Close()
		add(DoctorCheck{Name: "registry", Status: "pass", Message: "registry database reachable"})
	}

	// Lock: another phx process holding it means renumber and archive
	// would refuse to run.
	if lock, err := lockfile.Acquire(stateDir(repoRoot)); err != nil {
		add(DoctorCheck{
			Name:    "lock",
			Status:  "warn",
			Message: fmt.Sprintf("registry lock unavailable: %v", err),
		})
	} else {
		lock.Release()
		add(DoctorCheck{Name: "lock", Status: "pass", Message: "registry lock acquirable"})
	}

	// Declarations file, when present
	if _, err := os.Stat(filepath.Join(root, phase.DeclarationFile)); err == nil {
		if _, err := phase.LoadDeclarations(root); err != nil {
			add(DoctorCheck{
				Name:    "declarations",
				Status:  "fail",
				Message: fmt.Sprintf("%s does not parse: %v", phase.DeclarationFile, err),
			})
		} else {
			add(DoctorCheck{Name: "declarations", Status: "pass", Message: phase.DeclarationFile + " parses"})
		}
	}

	// Tree health: a quick lint pass. Errors in the tree are a warning
	// here; validate is the command whose exit code they drive.
	if tree, err := scanDocs(newContext(), repoRoot, cfg, logger); err == nil {
		if result, lintErr := lint.NewLinter(cfg, logger).Lint(newContext(), tree); lintErr == nil {
			errCount := result.Summary.BySeverity[lint.SeverityError]
			if errCount > 0 {
				add(DoctorCheck{
					Name:    "tree",
					Status:  "warn",
					Message: fmt.Sprintf("%d error-level findings", errCount),
					SuggestedFixes: []errors.FixAction{{
						Type:        errors.RunCommand,
						Command:     "phx validate",
						Safe:        true,
						Description: "List the findings",
					}},
				})
			} else {
				add(DoctorCheck{
					Name:    "tree",
					Status:  "pass",
					Message: fmt.Sprintf("%d phases, %d findings", result.Summary.PhasesScanned, result.Summary.Total),
				})
			}
		}
	}

	output, err := FormatResponse(resp, OutputFormat(doctorFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)

	if !resp.Healthy {
		os.Exit(1)
	}
	return nil
}
