package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DefaultConfiguration is the build configuration used when none is set.
const DefaultConfiguration = "debug"

// Config is the environment-sourced configuration of a build.
// It is read once at start-up and passed explicitly to every component.
type Config struct {
	// Configuration is the compiler build configuration label (e.g. debug, release).
	Configuration string `mapstructure:"config"`
	// BuildNumber is the CI build number; empty for local builds.
	BuildNumber string `mapstructure:"BUILD_NUMBER"`
	// Connection is written verbatim to the test connection file.
	Connection string `mapstructure:"connection"`

	// ProjectFile is the project file to load; empty looks for kiln.yaml in Dir.
	ProjectFile string `mapstructure:"KILN_FILE"`
	// Dir is the working directory that relative project paths resolve against.
	Dir string `mapstructure:"KILN_DIR"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"KILN_LOG_LEVEL"`
}

// FromEnviron decodes a Config from KEY=VALUE pairs as returned by os.Environ.
// Keys are matched exactly, so "config" and "CONFIG" are different variables.
func FromEnviron(environ []string) (Config, error) {
	values := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		values[k] = v
	}

	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:    &cfg,
		MatchName: func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := dec.Decode(values); err != nil {
		return Config{}, fmt.Errorf("failed to decode environment: %w", err)
	}

	return cfg.withDefaults(), nil
}

// Load reads the process environment.
func Load() (Config, error) {
	return FromEnviron(os.Environ())
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Configuration) == "" {
		c.Configuration = DefaultConfiguration
	}
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	return c
}

// FromCI reports whether a CI build number was supplied.
func (c Config) FromCI() bool {
	return strings.TrimSpace(c.BuildNumber) != ""
}
