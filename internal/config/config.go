// Package config defines process configuration and its loading rules.
package config

// Config contains process configuration for a parsing run.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFolder is the directory of chat/combat log files to parse.
	LogFolder string `koanf:"log_folder"`

	// OutFolder receives per-fight CSV output.
	OutFolder string `koanf:"out_folder"`

	// StorePath is the SQLite database for cross-run memory. ":memory:"
	// disables persistence.
	StorePath string `koanf:"store_path"`

	// SDEPath points at the invTypes CSV used as the reference item-name
	// dictionary. Optional; classification degrades gracefully without it.
	SDEPath string `koanf:"sde_path"`

	// GapMinutes is the quiet period that splits fights.
	GapMinutes int `koanf:"gap_minutes"`

	// LookupEnabled turns the external affiliation API on.
	LookupEnabled bool `koanf:"lookup_enabled"`

	// LookupBaseURL overrides the API root, mainly for tests.
	LookupBaseURL string `koanf:"lookup_base_url"`

	// LookupDelayMS is the pause after every API call.
	LookupDelayMS int `koanf:"lookup_delay_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFolder:     ".",
		OutFolder:     "out",
		StorePath:     "combatlog.db",
		GapMinutes:    15,
		LookupEnabled: false,
		LookupDelayMS: 250,
	}
}
