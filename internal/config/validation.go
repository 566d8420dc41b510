package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/andreygs/gocsp/pkg/csp"
)

// Dynamic token patterns that must not appear in configuration values.
// They indicate template variables that were never expanded.
var dynamicTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\{[^}]+\}`),        // ${VAR}
	regexp.MustCompile(`\{\{[^}]+\}\}`),      // {{VAR}}
	regexp.MustCompile(`\$[A-Z_][A-Z0-9_]*`), // $VAR
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks the configuration for correctness and reports every
// failure at once as *ValidationErrors.
func Validate(cfg *Config) error {
	var errs []ValidationError

	errs = append(errs, validateDynamicTokens(cfg)...)
	errs = append(errs, validateSerialization(&cfg.Serialization)...)
	errs = append(errs, validateSystem(&cfg.System)...)
	errs = append(errs, validateBench(&cfg.Bench)...)

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

func validateSerialization(s *SerializationConfig) []ValidationError {
	var errs []ValidationError

	if s.ProtocolVersion < 0 || s.ProtocolVersion > 0xff || !csp.ProtocolVersion(s.ProtocolVersion).IsSupported() {
		errs = append(errs, ValidationError{
			Field:   "serialization.protocol_version",
			Message: fmt.Sprintf("must be one of: %s", joinVersions(csp.SupportedProtocolVersions())),
			Value:   s.ProtocolVersion,
			Wrapped: ErrUnsupportedProtocol,
		})
	}

	if _, err := csp.ParseCommonFlags(s.CommonFlagNames); err != nil {
		errs = append(errs, ValidationError{
			Field:   "serialization.common_flags",
			Message: infoOf(err),
			Value:   s.CommonFlagNames,
			Wrapped: ErrUnknownFlag,
		})
	}
	if _, err := csp.ParseDataFlags(s.DataFlagNames); err != nil {
		errs = append(errs, ValidationError{
			Field:   "serialization.data_flags",
			Message: infoOf(err),
			Value:   s.DataFlagNames,
			Wrapped: ErrUnknownFlag,
		})
	}

	if s.Charset != "" {
		if _, err := csp.ParseCharset(s.Charset); err != nil {
			errs = append(errs, ValidationError{
				Field:   "serialization.charset",
				Message: "unknown charset",
				Value:   s.Charset,
				Wrapped: ErrUnknownCharset,
			})
		}
	}

	for _, f := range []struct {
		field string
		value int
	}{
		{"serialization.initial_capacity", s.InitialCapacity},
		{"serialization.max_depth", s.MaxDepth},
		{"serialization.plan_cache_size", s.PlanCacheSize},
	} {
		if f.value <= 0 {
			errs = append(errs, ValidationError{
				Field:   f.field,
				Message: "must be positive",
				Value:   f.value,
				Wrapped: ErrInvalidConfig,
			})
		}
	}
	return errs
}

func validateSystem(s *SystemConfig) []ValidationError {
	var errs []ValidationError

	if !slices.Contains(validLogLevels, strings.ToLower(s.LogLevel)) {
		errs = append(errs, ValidationError{
			Field:   "system.log_level",
			Message: "must be one of: " + strings.Join(validLogLevels, ", "),
			Value:   s.LogLevel,
			Wrapped: ErrInvalidConfig,
		})
	}
	if !slices.Contains(validLogFormats, strings.ToLower(s.LogFormat)) {
		errs = append(errs, ValidationError{
			Field:   "system.log_format",
			Message: "must be one of: " + strings.Join(validLogFormats, ", "),
			Value:   s.LogFormat,
			Wrapped: ErrInvalidConfig,
		})
	}
	return errs
}

func validateBench(b *BenchConfig) []ValidationError {
	var errs []ValidationError

	if b.Count <= 0 {
		errs = append(errs, ValidationError{
			Field:   "bench.count",
			Message: "must be positive",
			Value:   b.Count,
			Wrapped: ErrInvalidConfig,
		})
	}
	if b.Workers <= 0 {
		errs = append(errs, ValidationError{
			Field:   "bench.workers",
			Message: "must be positive",
			Value:   b.Workers,
			Wrapped: ErrInvalidConfig,
		})
	}
	if b.Retries < 0 {
		errs = append(errs, ValidationError{
			Field:   "bench.retries",
			Message: "must not be negative",
			Value:   b.Retries,
			Wrapped: ErrInvalidConfig,
		})
	}
	return errs
}

// validateDynamicTokens checks all string fields for unexpanded dynamic tokens.
func validateDynamicTokens(cfg *Config) []ValidationError {
	var errs []ValidationError

	errs = append(errs, checkStringField("serialization.charset", cfg.Serialization.Charset)...)
	for i, name := range cfg.Serialization.CommonFlagNames {
		errs = append(errs, checkStringField(fmt.Sprintf("serialization.common_flags[%d]", i), name)...)
	}
	for i, name := range cfg.Serialization.DataFlagNames {
		errs = append(errs, checkStringField(fmt.Sprintf("serialization.data_flags[%d]", i), name)...)
	}
	errs = append(errs, checkStringField("system.log_level", cfg.System.LogLevel)...)
	errs = append(errs, checkStringField("system.log_format", cfg.System.LogFormat)...)

	return errs
}

// checkStringField checks a single string field for dynamic token patterns.
func checkStringField(field, value string) []ValidationError {
	if value == "" {
		return nil
	}
	for _, pattern := range dynamicTokenPatterns {
		if match := pattern.FindString(value); match != "" {
			return []ValidationError{
				{
					Field:   field,
					Message: fmt.Sprintf("contains unexpanded dynamic token: %s", match),
					Value:   value,
					Wrapped: ErrDynamicToken,
				},
			}
		}
	}
	return nil
}

func joinVersions(vs []csp.ProtocolVersion) string {
	strs := make([]string, len(vs))
	for i, v := range vs {
		strs[i] = fmt.Sprintf("%d", uint8(v))
	}
	return strings.Join(strs, ", ")
}

func infoOf(err error) string {
	var cspErr *csp.Error
	if errors.As(err, &cspErr) {
		return cspErr.Info
	}
	return err.Error()
}
