package message

import (
	"cmp"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/buffer"
	"github.com/andreygs/gocsp/pkg/csp/processing"
)

// Option configures message encoding.
type Option func(*options)

type options struct {
	capacity    int
	strategy    buffer.ResizeStrategy
	protocol    csp.ProtocolVersion
	commonFlags csp.CommonFlags
	version     csp.InterfaceVersion
	dataFlags   csp.DataFlags
	registry    *processing.Registry
	context     []processing.ContextOption
}

func defaultOptions() options {
	return options{
		capacity:    buffer.DefaultCapacity,
		strategy:    buffer.DefaultResizeStrategy,
		protocol:    csp.LatestProtocolVersion,
		commonFlags: csp.BigEndian,
		dataFlags:   csp.DefaultDataFlags,
		registry:    processing.DefaultRegistry,
	}
}

func WithInitialCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

func WithResizeStrategy(s buffer.ResizeStrategy) Option {
	return func(o *options) { o.strategy = s }
}

func WithProtocolVersion(v csp.ProtocolVersion) Option {
	return func(o *options) { o.protocol = v }
}

// WithCommonFlags sets the requested common flags. Platform bits are
// recomputed when the message is written.
func WithCommonFlags(f csp.CommonFlags) Option {
	return func(o *options) { o.commonFlags = f }
}

// WithInterfaceVersion serializes for v instead of the value's own version.
// An older v requires the value to implement processing.VersionConverter.
func WithInterfaceVersion(v csp.InterfaceVersion) Option {
	return func(o *options) { o.version = v }
}

// WithDataFlags sets the data flags. The mandatory flags are always added.
func WithDataFlags(f csp.DataFlags) Option {
	return func(o *options) { o.dataFlags = f }
}

func WithRegistry(r *processing.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithContextOptions passes options such as processing.WithCharset or
// processing.WithMaxDepth to the body serializer.
func WithContextOptions(opts ...processing.ContextOption) Option {
	return func(o *options) { o.context = append(o.context[:len(o.context):len(o.context)], opts...) }
}

// header validates the protocol version and common flags and returns the
// header to write.
func (o options) header(t csp.MessageType) (Header, error) {
	if !o.protocol.IsSupported() {
		return Header{}, csp.Errorf(csp.NotSupportedProtocolVersion, "protocol version %d", o.protocol)
	}
	if !o.commonFlags.IsValid() {
		return Header{}, csp.Errorf(csp.NotCompatibleCommonFlagsSettings, "unknown common flag bits 0x%04x", uint16(o.commonFlags))
	}
	return Header{
		ProtocolVersion: o.protocol,
		CommonFlags:     PlatformFlags(o.commonFlags),
		MessageType:     t,
	}, nil
}

func (o options) newBuffer(h Header) *buffer.SerializationBuffer {
	return buffer.NewSerializationBuffer(
		buffer.WithCapacity(o.capacity),
		buffer.WithResizeStrategy(o.strategy),
		buffer.WithByteOrder(h.ByteOrder()),
	)
}

// DataMessageBuilder writes data messages. A builder is immutable once
// created and safe for concurrent use.
type DataMessageBuilder struct {
	opts options
}

// NewDataMessageBuilder creates a builder with the given options applied
// over the defaults.
func NewDataMessageBuilder(opts ...Option) *DataMessageBuilder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &DataMessageBuilder{opts: o}
}

// With returns a copy of the builder with more options applied.
func (b *DataMessageBuilder) With(opts ...Option) *DataMessageBuilder {
	o := b.opts
	for _, opt := range opts {
		opt(&o)
	}
	return &DataMessageBuilder{opts: o}
}

// Serialize produces a complete data message for v.
func (b *DataMessageBuilder) Serialize(v Serializable) ([]byte, error) {
	o := b.opts
	h, err := o.header(csp.MessageTypeData)
	if err != nil {
		return nil, err
	}
	if !o.dataFlags.IsValid() {
		return nil, csp.Errorf(csp.NotCompatibleDataFlagsSettings, "unknown data flag bits 0x%08x", uint32(o.dataFlags))
	}
	flags := o.dataFlags | csp.MandatoryDataFlags

	version, body, err := bodyForVersion(v, o.version)
	if err != nil {
		return nil, err
	}

	buf := o.newBuffer(h)
	h.encode(buf)
	id := v.CSPStructID()
	buf.WriteBytes(id[:])
	buf.WriteUint32(version.RawVersion())
	buf.WriteUint32(uint32(flags))

	ctxOpts := append([]processing.ContextOption{
		processing.WithRegistry(o.registry),
		processing.WithInterfaceVersion(version),
	}, o.context...)
	ctx := processing.NewSerializationContext(buf, flags, ctxOpts...)
	if err := processing.Serialize(ctx, body); err != nil {
		return nil, err
	}
	return buf.Commit()
}

// bodyForVersion picks the value to serialize for the requested version.
func bodyForVersion(v Serializable, requested csp.InterfaceVersion) (csp.InterfaceVersion, any, error) {
	own := v.CSPInterfaceVersion()
	if requested == nil {
		return own, v, nil
	}
	switch cmp.Compare(requested.RawVersion(), own.RawVersion()) {
	case 0:
		return requested, v, nil
	case 1:
		return nil, nil, csp.Errorf(csp.NotSupportedInterfaceVersion,
			"%T cannot be written as version %d, its version is %d", v, requested.RawVersion(), own.RawVersion())
	}

	conv, ok := v.(processing.VersionConverter)
	if !ok {
		return nil, nil, csp.Errorf(csp.NotSupportedInterfaceVersion,
			"%T has no converter to version %d", v, requested.RawVersion())
	}
	old, err := conv.ToOlderVersion(requested)
	if err != nil {
		return nil, nil, err
	}
	if old == nil {
		return nil, nil, csp.Errorf(csp.NotSupportedInterfaceVersion, "no layout for version %d", requested.RawVersion())
	}
	return requested, old, nil
}

// Marshal serializes v as a data message.
func Marshal(v Serializable, opts ...Option) ([]byte, error) {
	return NewDataMessageBuilder(opts...).Serialize(v)
}

// EncodeStatus builds a status message.
func EncodeStatus(status csp.Status, opts ...Option) ([]byte, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	h, err := o.header(csp.MessageTypeStatus)
	if err != nil {
		return nil, err
	}
	buf := buffer.NewSerializationBuffer(buffer.WithCapacity(HeaderSize+4), buffer.WithByteOrder(h.ByteOrder()))
	h.encode(buf)
	buf.WriteInt32(int32(status))
	return buf.Commit()
}
