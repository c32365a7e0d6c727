package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jayp120/syncly/internal/notes"
)

// Config holds the CLI configuration. Values come from a YAML file with
// environment variable overrides on top; flags override both.
type Config struct {
	// DBPath is the SQLite database file path.
	DBPath string `yaml:"db"`

	// DefinitionsDir holds the CUE series definitions.
	DefinitionsDir string `yaml:"definitions"`

	// CalendarDir, when set, enables ICS export of finalized sessions.
	CalendarDir string `yaml:"calendar_dir,omitempty"`

	// Actor is attributed on tasks created by finalize.
	Actor string `yaml:"actor,omitempty"`

	// Mentions is the user directory available to the note parser.
	Mentions []MentionEntry `yaml:"mentions,omitempty"`
}

// MentionEntry is one entry of the mention directory.
type MentionEntry struct {
	Display string `yaml:"display"`
	ID      string `yaml:"id"`
}

// DefaultConfigFile is consulted when --config is not given.
const DefaultConfigFile = "syncly.yaml"

// Environment variable overrides.
const (
	EnvDBPath         = "SYNCLY_DB"
	EnvDefinitionsDir = "SYNCLY_DEFINITIONS"
	EnvCalendarDir    = "SYNCLY_CALENDAR_DIR"
	EnvActor          = "SYNCLY_ACTOR"
)

// LoadConfig reads the configuration for a command run.
//
// If path is empty, syncly.yaml in the working directory is used when it
// exists; otherwise defaults apply. Environment variables override file
// values. A missing explicit --config path is an error; a missing default
// file is not.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		DBPath:         "syncly.db",
		DefinitionsDir: "definitions",
		Actor:          "cli",
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No default config file; proceed with defaults.
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg.DBPath = envOrDefault(EnvDBPath, cfg.DBPath)
	cfg.DefinitionsDir = envOrDefault(EnvDefinitionsDir, cfg.DefinitionsDir)
	cfg.CalendarDir = envOrDefault(EnvCalendarDir, cfg.CalendarDir)
	cfg.Actor = envOrDefault(EnvActor, cfg.Actor)

	return cfg, nil
}

// MentionCandidates converts the configured directory for the parser.
func (c *Config) MentionCandidates() []notes.Mention {
	out := make([]notes.Mention, len(c.Mentions))
	for i, m := range c.Mentions {
		out[i] = notes.Mention{Display: m.Display, ID: m.ID}
	}
	return out
}

// envOrDefault retrieves an environment variable value, returning the
// fallback if the variable is not set.
func envOrDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
