package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"runtime"

	"phx/internal/lint"
)

// SARIF 2.1.0 schema types
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html

// SARIFReport is the top-level SARIF document.
type SARIFReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun represents a single analysis run.
type SARIFRun struct {
	Tool        SARIFTool         `json:"tool"`
	Results     []SARIFResult     `json:"results,omitempty"`
	Invocations []SARIFInvocation `json:"invocations,omitempty"`
}

// SARIFTool describes the analysis tool.
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver describes the primary analysis component.
type SARIFDriver struct {
	Name            string      `json:"name"`
	Version         string      `json:"version,omitempty"`
	InformationURI  string      `json:"informationUri,omitempty"`
	Rules           []SARIFRule `json:"rules,omitempty"`
	SemanticVersion string      `json:"semanticVersion,omitempty"`
}

// SARIFRule describes a rule that detected an issue.
type SARIFRule struct {
	ID                   string                  `json:"id"`
	Name                 string                  `json:"name,omitempty"`
	ShortDescription     *SARIFMessage           `json:"shortDescription,omitempty"`
	DefaultConfiguration *SARIFRuleConfiguration `json:"defaultConfiguration,omitempty"`
}

// SARIFRuleConfiguration describes the default configuration for a rule.
type SARIFRuleConfiguration struct {
	Level string `json:"level,omitempty"` // error, warning, note, none
}

// SARIFResult represents a single finding.
type SARIFResult struct {
	RuleID       string                 `json:"ruleId"`
	RuleIndex    int                    `json:"ruleIndex,omitempty"`
	Level        string                 `json:"level,omitempty"`
	Message      SARIFMessage           `json:"message"`
	Locations    []SARIFLocation        `json:"locations,omitempty"`
	Fingerprints map[string]string      `json:"fingerprints,omitempty"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// SARIFMessage contains text in various formats.
type SARIFMessage struct {
	Text string `json:"text,omitempty"`
}

// SARIFLocation describes where a result was found.
type SARIFLocation struct {
	PhysicalLocation *SARIFPhysicalLocation `json:"physicalLocation,omitempty"`
}

// SARIFPhysicalLocation identifies a file and region.
type SARIFPhysicalLocation struct {
	ArtifactLocation *SARIFArtifactLocation `json:"artifactLocation,omitempty"`
	Region           *SARIFRegion           `json:"region,omitempty"`
}

// SARIFArtifactLocation identifies a file.
type SARIFArtifactLocation struct {
	URI       string `json:"uri,omitempty"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

// SARIFRegion identifies a region within a file.
type SARIFRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// SARIFInvocation describes a single invocation of the tool.
type SARIFInvocation struct {
	ExecutionSuccessful bool                   `json:"executionSuccessful"`
	CommandLine         string                 `json:"commandLine,omitempty"`
	WorkingDirectory    *SARIFArtifactLocation `json:"workingDirectory,omitempty"`
	Machine             string                 `json:"machine,omitempty"`
}

// FormatLintAsSARIF converts a lint result to SARIF format.
func FormatLintAsSARIF(result *lint.Result, version string) (string, error) {
	// Build rules from findings (deduplicated)
	ruleMap := make(map[string]SARIFRule)
	ruleIndex := make(map[string]int)

	for _, f := range result.Findings {
		ruleID := fmt.Sprintf("phx/%s", f.Rule)
		if _, exists := ruleMap[ruleID]; !exists {
			rule := SARIFRule{
				ID:   ruleID,
				Name: string(f.Rule),
				ShortDescription: &SARIFMessage{
					Text: f.Message,
				},
				DefaultConfiguration: &SARIFRuleConfiguration{
					Level: severityToSARIFLevel(f.Severity),
				},
			}
			ruleIndex[ruleID] = len(ruleMap)
			ruleMap[ruleID] = rule
		}
	}

	// Convert map to slice in stable order
	rules := make([]SARIFRule, len(ruleMap))
	for id, rule := range ruleMap {
		rules[ruleIndex[id]] = rule
	}

	// Build results
	results := make([]SARIFResult, 0, len(result.Findings))
	for _, f := range result.Findings {
		ruleID := fmt.Sprintf("phx/%s", f.Rule)

		sarifResult := SARIFResult{
			RuleID:    ruleID,
			RuleIndex: ruleIndex[ruleID],
			Level:     severityToSARIFLevel(f.Severity),
			Message: SARIFMessage{
				Text: f.Message,
			},
			Fingerprints: map[string]string{
				"phx/v1": findingFingerprint(f),
			},
			Properties: map[string]interface{}{
				"phase": f.Phase,
			},
		}
		if f.ID != "" {
			sarifResult.Properties["identifier"] = f.ID
		}
		if f.Fix != "" {
			sarifResult.Properties["fix"] = f.Fix
		}
		if f.Path != "" {
			sarifResult.Locations = []SARIFLocation{
				{
					PhysicalLocation: &SARIFPhysicalLocation{
						ArtifactLocation: &SARIFArtifactLocation{
							URI:       f.Path,
							URIBaseID: "%SRCROOT%",
						},
						Region: &SARIFRegion{
							StartLine: f.Line,
						},
					},
				},
			}
		}

		results = append(results, sarifResult)
	}

	// Build the complete report
	report := SARIFReport{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []SARIFRun{
			{
				Tool: SARIFTool{
					Driver: SARIFDriver{
						Name:            "phx",
						Version:         version,
						SemanticVersion: version,
					},
				},
				Results: results,
				Invocations: []SARIFInvocation{
					{
						ExecutionSuccessful: !result.HasErrors(),
						WorkingDirectory: &SARIFArtifactLocation{
							URI: "file://" + result.Root,
						},
						Machine: runtime.GOOS + "/" + runtime.GOARCH,
					},
				},
			},
		},
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal SARIF: %w", err)
	}
	return string(data), nil
}

// severityToSARIFLevel maps lint severities to SARIF levels.
func severityToSARIFLevel(s lint.Severity) string {
	switch s {
	case lint.SeverityError:
		return "error"
	case lint.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// findingFingerprint produces a stable fingerprint for deduplication
// across runs.
func findingFingerprint(f lint.Finding) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d", f.Rule, f.Path, f.ID, f.Line)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
