package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if COMBATLOG_CONFIG is set
//  3. env (prefix COMBATLOG_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("COMBATLOG_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: COMBATLOG_LOG_FOLDER, COMBATLOG_GAP_MINUTES, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("COMBATLOG_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "combatlog_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.LogFolder == "" {
		return nil, errors.New("log_folder must not be empty")
	}
	if cfg.GapMinutes <= 0 {
		return nil, errors.New("gap_minutes must be positive")
	}
	return &cfg, nil
}
