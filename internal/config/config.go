// Package config loads the YAML configuration file cmd/idasql accepts
// via --config, grounded on the teacher's GeneratorConfig/
// ParseGeneratorConfig (database/database.go): a plain struct decoded
// with gopkg.in/yaml.v3's strict KnownFields(true) mode, so a typo'd
// key fails fast instead of silently being ignored.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of an idasql config file. Every field is
// optional; CLI flags override whatever a config file sets (spec §6
// CLI surface, cmd/idasql/main.go).
type Config struct {
	// Database is the default --db path.
	Database string `yaml:"database"`

	// Cache/Undo/Batch seed the session's initial policy (spec §4.G),
	// overridable at runtime via config(key,value).
	Cache *bool `yaml:"cache"`
	Undo  *bool `yaml:"undo"`
	Batch *bool `yaml:"batch"`

	// ExportTables restricts export to a subset of tables (spec §4.H
	// "caller-supplied subset"); empty means every non-virtual table.
	ExportTables []string `yaml:"export_tables"`

	// ExportPath is the default --export output path.
	ExportPath string `yaml:"export_path"`

	// LogLevel seeds LOG_LEVEL when the environment variable is unset
	// (internal/logging.Init reads the environment directly; main.go
	// applies this field to the environment before calling Init).
	LogLevel string `yaml:"log_level"`
}

// Load reads and strictly decodes the YAML file at path. An empty path
// returns a zero Config, matching the teacher's "no config file is not
// an error" convention.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(buf)
}

// Parse strictly decodes YAML bytes into a Config.
func Parse(buf []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// ParseString is Parse for an in-memory YAML string (test convenience,
// mirrors the teacher's ParseGeneratorConfigString).
func ParseString(yamlText string) (Config, error) {
	if strings.TrimSpace(yamlText) == "" {
		return Config{}, nil
	}
	return Parse([]byte(yamlText))
}

// Merge overrides base with every field override sets, the same
// "non-zero override wins" convention as the teacher's
// MergeGeneratorConfig.
func Merge(base, override Config) Config {
	result := base
	if override.Database != "" {
		result.Database = override.Database
	}
	if override.Cache != nil {
		result.Cache = override.Cache
	}
	if override.Undo != nil {
		result.Undo = override.Undo
	}
	if override.Batch != nil {
		result.Batch = override.Batch
	}
	if override.ExportTables != nil {
		result.ExportTables = override.ExportTables
	}
	if override.ExportPath != "" {
		result.ExportPath = override.ExportPath
	}
	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}
	return result
}
