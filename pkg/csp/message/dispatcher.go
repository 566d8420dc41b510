package message

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/processing"
)

// Handler answers a data message. The returned value is serialized back
// with the request's protocol version and flags; a nil value is answered
// with a csp.NoError status message.
type Handler func(ctx context.Context, req *DataMessage) (Serializable, error)

type route struct {
	version csp.InterfaceVersion
	handler Handler
}

// Dispatcher routes data messages to handlers by struct UUID and answers
// GetSettings requests. It is safe for concurrent use.
type Dispatcher struct {
	mu     sync.RWMutex
	routes map[uuid.UUID]route

	base     Settings
	registry *processing.Registry
	ctxOpts  []processing.ContextOption
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the request logger. Requests are not logged by default.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithBaseSettings sets the protocol versions and common flag constraints
// the dispatcher advertises and enforces.
func WithBaseSettings(s Settings) DispatcherOption {
	return func(d *Dispatcher) { d.base = s }
}

// WithDispatcherRegistry sets the processor registry used for replies.
func WithDispatcherRegistry(r *processing.Registry) DispatcherOption {
	return func(d *Dispatcher) {
		if r != nil {
			d.registry = r
		}
	}
}

// WithDispatcherContextOptions sets the processing options used to encode
// replies. Handlers should decode requests with the same options.
func WithDispatcherContextOptions(opts ...processing.ContextOption) DispatcherOption {
	return func(d *Dispatcher) { d.ctxOpts = append(d.ctxOpts, opts...) }
}

// NewDispatcher creates a Dispatcher with no routes.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		routes:   make(map[uuid.UUID]route),
		base:     DefaultSettings(),
		registry: processing.DefaultRegistry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register routes messages for id to h. Messages newer than version are
// rejected with csp.NotSupportedInterfaceVersion.
func (d *Dispatcher) Register(id uuid.UUID, version csp.InterfaceVersion, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[id] = route{version: version, handler: h}
}

// Unregister removes the route for id and reports whether it existed.
func (d *Dispatcher) Unregister(id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.routes[id]
	delete(d.routes, id)
	return ok
}

// Settings returns the base settings plus the registered interfaces,
// ordered by UUID.
func (d *Dispatcher) Settings() Settings {
	d.mu.RLock()
	entries := make([]InterfaceEntry, 0, len(d.routes))
	for id, r := range d.routes {
		entries = append(entries, InterfaceEntry{ID: id, Version: csp.RawInterfaceVersion(r.version.RawVersion())})
	}
	d.mu.RUnlock()

	slices.SortFunc(entries, func(a, b InterfaceEntry) int {
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	s := d.base
	s.ProtocolVersions = slices.Clone(d.base.ProtocolVersions)
	s.Interfaces = entries
	return s
}

// Handle answers one request. CSP failures are answered with a status
// message; the returned error is non-nil only when ctx ends or a reply
// cannot be encoded.
func (d *Dispatcher) Handle(ctx context.Context, req []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	msg, err := Parse(req)
	if err != nil {
		d.logger.Warn("rejected malformed request", "error", err, "size", len(req))
		return EncodeStatus(csp.StatusOf(err))
	}
	h := msg.MessageHeader()
	reply := []Option{WithProtocolVersion(h.ProtocolVersion), WithCommonFlags(h.CommonFlags)}

	resp, err := d.handle(ctx, msg, reply)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		d.logger.Warn("request failed",
			"type", h.MessageType,
			"status", csp.StatusOf(err),
			"error", err,
			"duration", time.Since(start),
		)
		return EncodeStatus(csp.StatusOf(err), reply...)
	}
	d.logger.Debug("request handled", "type", h.MessageType, "size", len(resp), "duration", time.Since(start))
	return resp, nil
}

func (d *Dispatcher) handle(ctx context.Context, msg Message, reply []Option) ([]byte, error) {
	if err := d.base.Accepts(msg.MessageHeader()); err != nil {
		return nil, err
	}

	switch m := msg.(type) {
	case *SettingsMessage:
		if !m.Request {
			return nil, csp.NewError(csp.InvalidArgument, "settings response sent as a request")
		}
		return EncodeSettingsResponse(d.Settings(), reply...)

	case *DataMessage:
		d.mu.RLock()
		r, ok := d.routes[m.StructID]
		d.mu.RUnlock()
		if !ok {
			return nil, csp.Errorf(csp.NoSuchHandler, "no handler for %s", m.StructID)
		}
		if !m.DataFlags.IsValid() || !csp.IsSet(m.DataFlags, csp.SimplyAssignableTagsOptimizationsAreTurnedOff) {
			return nil, csp.Errorf(csp.NotCompatibleDataFlagsSettings, "data flags 0x%08x", uint32(m.DataFlags))
		}
		if m.InterfaceVersion.RawVersion() > r.version.RawVersion() {
			return nil, csp.Errorf(csp.NotSupportedInterfaceVersion,
				"version %d is newer than %d", m.InterfaceVersion, r.version.RawVersion())
		}

		out, err := r.handler(ctx, m)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return EncodeStatus(csp.NoError, reply...)
		}
		return Marshal(out, append(reply,
			WithDataFlags(m.DataFlags),
			WithRegistry(d.registry),
			WithContextOptions(d.ctxOpts...),
		)...)
	}

	return nil, csp.Errorf(csp.InvalidType, "%s is not a request", msg.MessageHeader().MessageType)
}
