package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads config.yaml over top of the built-in defaults, applies an
// optional .env secrets overlay into the process environment first (so
// config.yaml's own `${VAR}`-free fields can still be hand-edited per
// environment without a templating layer), and merges a JSONC
// mapping-table override on top of config.yaml's own custom_mapping, if
// one is configured.
//
// A missing configPath is not an error: the gateway can run warm-started
// from environment/flags alone. A missing envPath is likewise silently
// skipped — the .env overlay is optional by nature.
func Load(configPath, envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load %s: %w", envPath, err)
		}
	}

	cfg := defaults()

	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
			}
		case os.IsNotExist(err):
			// fall through with defaults only
		default:
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	if cfg.MappingFile != "" {
		override, err := loadMappingOverride(cfg.MappingFile)
		if err != nil {
			return nil, fmt.Errorf("config: load mapping override %s: %w", cfg.MappingFile, err)
		}
		cfg.CustomMapping = mergeMapping(cfg.CustomMapping, override)
	}

	return cfg, nil
}

// mergeMapping overlays override on top of base, override winning on key
// collision ( Mapping Table: the JSONC file is an override, not a merge
// of equals).
func mergeMapping(base, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
