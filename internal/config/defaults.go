package config

import (
	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
	"github.com/andreygs/gocsp/pkg/csp/processing"
)

// Default value constants to avoid magic numbers and strings.
const (
	DefaultProtocolVersion = int(csp.LatestProtocolVersion)
	DefaultInitialCapacity = buffer.DefaultCapacity
	DefaultMaxDepth        = processing.DefaultMaxDepth
	DefaultPlanCacheSize   = processing.DefaultPlanCacheSize

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultBenchCount   = 10000
	DefaultBenchWorkers = 4
	DefaultBenchRetries = 2
)

// NewDefaultConfig returns a Config with all fields set to compiled defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Serialization: NewDefaultSerializationConfig(),
		System:        NewDefaultSystemConfig(),
		Bench:         NewDefaultBenchConfig(),
	}
}

// NewDefaultSerializationConfig mirrors the message builder defaults:
// big-endian messages of the latest protocol version with unmanaged
// pointers allowed.
func NewDefaultSerializationConfig() SerializationConfig {
	return SerializationConfig{
		ProtocolVersion: DefaultProtocolVersion,
		CommonFlagNames: csp.BigEndian.Keys(),
		DataFlagNames:   csp.DefaultDataFlags.Keys(),
		Charset:         csp.DefaultCharset.String(),
		InitialCapacity: DefaultInitialCapacity,
		MaxDepth:        DefaultMaxDepth,
		PlanCacheSize:   DefaultPlanCacheSize,
	}
}

// NewDefaultSystemConfig returns a SystemConfig with default values.
func NewDefaultSystemConfig() SystemConfig {
	return SystemConfig{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// NewDefaultBenchConfig returns a BenchConfig with default values.
func NewDefaultBenchConfig() BenchConfig {
	return BenchConfig{
		Count:   DefaultBenchCount,
		Workers: DefaultBenchWorkers,
		Retries: DefaultBenchRetries,
	}
}
