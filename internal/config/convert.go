package config

import (
	"fmt"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/message"
	"github.com/andreygs/gocsp/pkg/csp/processing"
)

// CommonFlags converts the configured flag names to a mask.
func (s SerializationConfig) CommonFlags() (csp.CommonFlags, error) {
	f, err := csp.ParseCommonFlags(s.CommonFlagNames)
	if err != nil {
		return 0, fmt.Errorf("serialization.common_flags: %w", err)
	}
	return f, nil
}

// DataFlags converts the configured flag names to a mask.
func (s SerializationConfig) DataFlags() (csp.DataFlags, error) {
	f, err := csp.ParseDataFlags(s.DataFlagNames)
	if err != nil {
		return 0, fmt.Errorf("serialization.data_flags: %w", err)
	}
	return f, nil
}

// CharsetValue resolves the configured charset. An empty name is the
// protocol default.
func (s SerializationConfig) CharsetValue() (csp.Charset, error) {
	if s.Charset == "" {
		return csp.DefaultCharset, nil
	}
	cs, err := csp.ParseCharset(s.Charset)
	if err != nil {
		return 0, fmt.Errorf("serialization.charset: %w", err)
	}
	return cs, nil
}

// ContextOptions returns the processing options shared by encoding and
// decoding: string charset and recursion depth.
func (s SerializationConfig) ContextOptions() ([]processing.ContextOption, error) {
	cs, err := s.CharsetValue()
	if err != nil {
		return nil, err
	}
	opts := []processing.ContextOption{processing.WithCharset(cs)}
	if s.MaxDepth > 0 {
		opts = append(opts, processing.WithMaxDepth(s.MaxDepth))
	}
	return opts, nil
}

// BuilderOptions converts the section into message builder options.
func (s SerializationConfig) BuilderOptions() ([]message.Option, error) {
	common, err := s.CommonFlags()
	if err != nil {
		return nil, err
	}
	data, err := s.DataFlags()
	if err != nil {
		return nil, err
	}
	ctxOpts, err := s.ContextOptions()
	if err != nil {
		return nil, err
	}

	opts := []message.Option{
		message.WithProtocolVersion(csp.ProtocolVersion(s.ProtocolVersion)),
		message.WithCommonFlags(common),
		message.WithDataFlags(data),
		message.WithContextOptions(ctxOpts...),
	}
	if s.InitialCapacity > 0 {
		opts = append(opts, message.WithInitialCapacity(s.InitialCapacity))
	}
	return opts, nil
}

// NewRegistry creates a processor registry sized from the section.
func (s SerializationConfig) NewRegistry() (*processing.Registry, error) {
	var opts []processing.RegistryOption
	if s.PlanCacheSize > 0 {
		opts = append(opts, processing.WithPlanCacheSize(s.PlanCacheSize))
	}
	return processing.NewRegistry(opts...)
}
