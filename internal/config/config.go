// Package config implements EvaluatorConfig (SPEC_FULL.md's AMBIENT
// STACK Configuration section): per-category diagnostic severity
// overrides, numeric-defaulting policy, print flags, and the cache
// growth threshold, loadable from a YAML file via gopkg.in/yaml.v3.
// Grounded on internal/module/resolver.go's project-marker/config-file
// convention (findProjectRoot's upward marker-file walk), retargeted
// from locating a stdlib directory to locating a config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/typeeval/core/internal/cache"
	"github.com/typeeval/core/internal/diagnostics"
)

// PrintFlags controls internal/evaluator's printType/printFunctionParts
// rendering.
type PrintFlags struct {
	// PrintUnknownWithAny renders Unknown as Any in printed output.
	PrintUnknownWithAny bool `yaml:"print_unknown_with_any"`
	// OmitTypeArgumentsIfAny drops a generic's type arguments when every
	// one of them is Any.
	OmitTypeArgumentsIfAny bool `yaml:"omit_type_arguments_if_any"`
	// PEP604 renders unions with `|` instead of `Union[...]`.
	PEP604 bool `yaml:"pep604"`
}

// DefaultPrintFlags renders the friendliest form by default.
func DefaultPrintFlags() PrintFlags {
	return PrintFlags{PrintUnknownWithAny: true, PEP604: true}
}

// NumericDefaultingPolicy controls how bare numeric literals without
// an expected type default during bidirectional inference; "int" keeps
// the narrowest literal type, "float" widens every bare numeric
// literal eagerly — useful for code bases that lean on the numeric
// tower rather than literal types.
type NumericDefaultingPolicy string

const (
	NumericDefaultInt   NumericDefaultingPolicy = "int"
	NumericDefaultFloat NumericDefaultingPolicy = "float"
)

// EvaluatorConfig is the full set of evaluator-wide knobs a driver may
// load from a YAML file and hand to internal/evaluator at
// construction.
type EvaluatorConfig struct {
	// Severities maps a rule code (diagnostics.TC001, etc.) to a
	// severity name ("error"/"warning"/"information") loaded straight
	// from the YAML file; codes absent here keep their registry
	// default. SeverityOverrides is derived from this after Load.
	Severities map[string]string `yaml:"severities"`

	// SeverityOverrides is the parsed form of Severities, populated by
	// Load; not itself a YAML field.
	SeverityOverrides map[string]diagnostics.Severity `yaml:"-"`

	NumericDefaulting NumericDefaultingPolicy `yaml:"numeric_defaulting"`
	Print             PrintFlags              `yaml:"print"`

	// CacheGrowthThreshold overrides cache.GrowthThreshold; zero means
	// use the package default.
	CacheGrowthThreshold int `yaml:"cache_growth_threshold"`
}

// Default returns the evaluator's out-of-the-box configuration: no
// severity overrides, int-biased numeric defaulting, and the friendly
// print flags.
func Default() *EvaluatorConfig {
	return &EvaluatorConfig{
		Severities:           map[string]string{},
		SeverityOverrides:    map[string]diagnostics.Severity{},
		NumericDefaulting:    NumericDefaultInt,
		Print:                DefaultPrintFlags(),
		CacheGrowthThreshold: cache.GrowthThreshold,
	}
}

var severityNames = map[string]diagnostics.Severity{
	"error":       diagnostics.SeverityError,
	"warning":     diagnostics.SeverityWarning,
	"information": diagnostics.SeverityInformation,
}

// Load reads an EvaluatorConfig from a YAML file at path.
func Load(path string) (*EvaluatorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading evaluator config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing evaluator config %s: %w", path, err)
	}
	for code, name := range cfg.Severities {
		sev, ok := severityNames[name]
		if !ok {
			return nil, fmt.Errorf("evaluator config %s: unknown severity %q for rule %s", path, name, code)
		}
		cfg.SeverityOverrides[code] = sev
	}
	if cfg.CacheGrowthThreshold == 0 {
		cfg.CacheGrowthThreshold = cache.GrowthThreshold
	}
	return cfg, nil
}

// SeverityFor returns the effective severity for code: the config
// override if one is set, else diagnostics.Registry's default.
func (c *EvaluatorConfig) SeverityFor(code string) diagnostics.Severity {
	if sev, ok := c.SeverityOverrides[code]; ok {
		return sev
	}
	if info, ok := diagnostics.Lookup(code); ok {
		return info.Default
	}
	return diagnostics.SeverityError
}

// FindConfigFile walks upward from dir looking for
// ".typeeval.yaml"/".typeeval.yml", the same marker-file convention
// internal/module/resolver.go's findProjectRoot uses for project-root
// discovery.
func FindConfigFile(dir string) (string, bool) {
	candidates := []string{".typeeval.yaml", ".typeeval.yml"}
	for {
		for _, name := range candidates {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
