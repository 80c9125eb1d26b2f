package main

import (
	"fmt"
	"os"

	"github.com/edp1096/toy-mna/pkg/analysis"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout: top-level keys apply to every capability,
// entries under "capabilities" override them for one capability.
//
//	value_min: 10
//	value_max: 10000
//	capabilities:
//	  root:
//	    target_voltage: 5
type fileConfig struct {
	Params       map[string]any            `yaml:",inline"`
	Capabilities map[string]map[string]any `yaml:"capabilities"`
}

// loadConfig merges the YAML file (if any) with key=value overrides. The
// overrides win.
func loadConfig(path, capability string, sets []string) (analysis.Config, error) {
	cfg := analysis.Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read the config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
		cfg = cfg.Merge(fc.Params).Merge(fc.Capabilities[capability])
	}

	for _, s := range sets {
		key, value, err := analysis.ParseAssignment(s)
		if err != nil {
			return nil, err
		}
		cfg[key] = value
	}
	return cfg, nil
}
