package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyEstimator = "estimator"
	keyRouting   = "routing"
	keyEngine    = "engine"
	keyServer    = "server"
	keyOutput    = "output"
	keyLogging   = "logging"
)

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// target. A section present in the file is decoded over the existing
// section, so fields the file omits keep their current values. Unknown
// top-level keys are ignored.
func ShallowMergeYAML(target *Config, path string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing config YAML from %s: %w", path, err)
	}

	for key, node := range overlay {
		dst := section(target, key)
		if dst == nil {
			continue
		}
		if err = node.Decode(dst); err != nil {
			return fmt.Errorf("applying config section %q: %w", key, err)
		}
	}
	return nil
}

func section(c *Config, key string) any {
	switch key {
	case keyEstimator:
		return &c.Estimator
	case keyRouting:
		return &c.Routing
	case keyEngine:
		return &c.Engine
	case keyServer:
		return &c.Server
	case keyOutput:
		return &c.Output
	case keyLogging:
		return &c.Logging
	default:
		return nil
	}
}
