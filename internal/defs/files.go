package defs

// Directory layout of a gocsp workspace.
const (
	// GocspDir is the per-project configuration root.
	GocspDir = ".gocsp"

	// ConfigSubdir holds configuration under GocspDir.
	ConfigSubdir = "config"

	// SectionsSubdir holds one YAML file per configuration section.
	SectionsSubdir = "sections"
)

// Section YAML file names under .gocsp/config/sections/.
const (
	SerializationYAML = "serialization.yaml"
	SystemYAML        = "system.yaml"
	BenchYAML         = "bench.yaml"
)

// Environment variables read by the config layer.
const (
	EnvConfigDir       = "GOCSP_CONFIG_DIR"
	EnvLogLevel        = "GOCSP_LOG_LEVEL"
	EnvLogFormat       = "GOCSP_LOG_FORMAT"
	EnvNoColor         = "GOCSP_NO_COLOR"
	EnvProtocolVersion = "GOCSP_PROTOCOL_VERSION"
	EnvCharset         = "GOCSP_CHARSET"
)

// StdinPath names standard input wherever a file argument is accepted.
const StdinPath = "-"
