package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RulesFile is the optional operator-tunable rules document. Anything left
// unset falls back to built-in defaults; the file only has to name what it
// overrides.
type RulesFile struct {
	Scoring struct {
		LeaseCritical     []string `yaml:"lease_critical"`
		LeaseOptional     []string `yaml:"lease_optional"`
		AmendmentCritical []string `yaml:"amendment_critical"`
		AmendmentOptional []string `yaml:"amendment_optional"`
	} `yaml:"scoring"`

	Tolerances struct {
		SquareFeet float64 `yaml:"square_feet"`
		MoneyCents int     `yaml:"money_cents"`
	} `yaml:"tolerances"`

	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// LoadRules reads the rules file at path. An empty path returns a zero
// RulesFile, meaning built-in defaults everywhere.
func LoadRules(path string) (RulesFile, error) {
	var rules RulesFile
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("parse rules file: %w", err)
	}
	return rules, nil
}
