package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/katyanaveka/BAT/sim"
)

// LoadParams returns the strategy parameters: the tuned defaults, overlaid
// with whatever keys the YAML file at path sets. An empty path keeps the
// defaults.
func LoadParams(path string) (sim.Params, error) {
	params := sim.DefaultParams()
	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("read params file: %w", err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("parse params file %s: %w", path, err)
	}
	return params, nil
}
