package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads an optional YAML file of environment defaults and applies each
// entry only where the variable is not already set, so real env always wins.
// The file path comes from CONFIG_PATH, falling back to ./config.yaml when
// that file exists. A missing file is not an error; a malformed one is.
func Load() error {
	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if path == "" {
		if _, err := os.Stat("config.yaml"); err != nil {
			return nil
		}
		path = "config.yaml"
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && strings.TrimSpace(os.Getenv("CONFIG_PATH")) == "" {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	defaults := map[string]string{}
	if err := yaml.Unmarshal(raw, &defaults); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	for key, value := range defaults {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if strings.TrimSpace(os.Getenv(key)) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s from config: %w", key, err)
		}
	}
	return nil
}
