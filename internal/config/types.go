package config

import (
	"slices"
)

// Config is the root configuration aggregate containing all sections.
type Config struct {
	Serialization SerializationConfig `yaml:"serialization"`
	System        SystemConfig        `yaml:"system"`
	Bench         BenchConfig         `yaml:"bench"`
}

// SerializationConfig holds the defaults used when encoding messages.
// Flag lists use the flag keys understood by csp.ParseCommonFlags and
// csp.ParseDataFlags (for example "big_endian").
type SerializationConfig struct {
	ProtocolVersion int      `yaml:"protocol_version"`
	CommonFlagNames []string `yaml:"common_flags"`
	DataFlagNames   []string `yaml:"data_flags"`
	Charset         string   `yaml:"charset"`
	InitialCapacity int      `yaml:"initial_capacity"`
	MaxDepth        int      `yaml:"max_depth"`
	PlanCacheSize   int      `yaml:"plan_cache_size"`
}

// SystemConfig represents the system configuration section.
type SystemConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	NoColor        bool   `yaml:"no_color"`
	NonInteractive bool   `yaml:"non_interactive"`
}

// BenchConfig configures `gocsp bench`.
type BenchConfig struct {
	Count   int `yaml:"count"`
	Workers int `yaml:"workers"`
	// Retries is how often a round trip answered with a transient status
	// is resent.
	Retries int `yaml:"retries"`
}

var sectionNames = []string{"serialization", "system", "bench"}

// IsValidSectionName checks if the given name is a valid section name.
func IsValidSectionName(name string) bool {
	return slices.Contains(sectionNames, name)
}

// ValidSectionNames returns all valid section names.
func ValidSectionNames() []string {
	return slices.Clone(sectionNames)
}

// Each section file wraps its content under a top-level key.

type serializationFileWrapper struct {
	Serialization SerializationConfig `yaml:"serialization"`
}

type systemFileWrapper struct {
	System SystemConfig `yaml:"system"`
}

type benchFileWrapper struct {
	Bench BenchConfig `yaml:"bench"`
}
