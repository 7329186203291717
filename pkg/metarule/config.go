package metarule

import (
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig bundles the knobs a CLI invocation needs to drive Unify, the
// backward prover, and checkpoint persistence, following version.go's
// struct-with-serialization-tags idiom (extended from json to yaml).
type RunConfig struct {
	// UnifyDepthLimit bounds Unify's recursive subproblem splitting
	// (spec.md §4.5).
	UnifyDepthLimit int `yaml:"unify_depth_limit"`
	// WeightLimit bounds the backward prover's total rule-weight budget
	// (spec.md §4.6).
	WeightLimit float64 `yaml:"weight_limit"`
	// OnTheFlyProposal enables the backward prover's zero-premise
	// self-proposal for concrete goals (spec.md §4.6).
	OnTheFlyProposal bool `yaml:"on_the_fly_proposal"`
	// RulesPath, if set, names a weighted-rule file (blocks separated by
	// "===" lines, see ParseWeightedRules) to load before proving.
	RulesPath string `yaml:"rules_path,omitempty"`
	// CheckpointPath, if set, names a vocabulary checkpoint to load
	// before parsing and save after a run completes.
	CheckpointPath string `yaml:"checkpoint_path,omitempty"`
	// LogLevel selects the zap level name ("debug", "info", "warn",
	// "error") for log.go's logger construction.
	LogLevel string `yaml:"log_level,omitempty"`
}

// DefaultRunConfig returns the configuration the CLI falls back to when no
// config file is given: generous but finite depth/budget limits, proposal
// disabled, info-level logging.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		UnifyDepthLimit:  10,
		WeightLimit:      1.0,
		OnTheFlyProposal: false,
		LogLevel:         "info",
	}
}

// LoadRunConfig reads a YAML RunConfig from path, starting from
// DefaultRunConfig so an omitted field keeps its default rather than
// zeroing out.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, wrapInputContractError(err, "read config %q", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, wrapInputContractError(err, "parse config %q", path)
	}
	return cfg, nil
}

// SaveRunConfig writes cfg to path as YAML.
func SaveRunConfig(cfg RunConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return wrapInputContractError(err, "marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapInputContractError(err, "write config %q", path)
	}
	return nil
}
