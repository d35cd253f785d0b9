package batch

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fireworks/internal/config"
)

// Scenario is a scripted list of configurations run one after another.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Entries     []ScenarioStep `yaml:"runs"`
}

// ScenarioStep starts from a preset (or the defaults) and overrides it
// with the inline config. Repeat > 1 turns it into a seeded batch.
type ScenarioStep struct {
	Label   string         `yaml:"label"`
	Preset  string         `yaml:"preset"`
	Repeat  int            `yaml:"repeat"`
	Workers int            `yaml:"workers"`
	Config  map[string]any `yaml:"config"`
}

// StepResult pairs a scenario step with its batch summary.
type StepResult struct {
	Label   string
	Summary *Summary
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if len(scenario.Entries) == 0 {
		return nil, fmt.Errorf("scenario %s: no runs", path)
	}
	return &scenario, nil
}

// Resolve builds the configuration a step runs with.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets())
		}
	}
	if len(s.Config) > 0 {
		// Round-trip the overrides through YAML so they land on the same
		// field names a config file uses.
		data, err := yaml.Marshal(s.Config)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RunScenario executes every step in order and stops at the first error.
func RunScenario(ctx context.Context, scenario *Scenario, logger *log.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = log.Default()
	}
	results := make([]StepResult, 0, len(scenario.Entries))

	for i, step := range scenario.Entries {
		label := step.Label
		if label == "" {
			label = fmt.Sprintf("run %d", i+1)
		}
		logger.Info("scenario step", "step", i+1, "of", len(scenario.Entries), "label", label)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		repeat := step.Repeat
		if repeat <= 0 {
			repeat = 1
		}

		summary, err := Run(ctx, cfg.Params(), repeat, step.Workers, logger)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, StepResult{Label: label, Summary: summary})
	}
	return results, nil
}
