package message

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/processing"
)

func newGreetingDispatcher(t *testing.T, opts ...DispatcherOption) *Dispatcher {
	t.Helper()

	d := NewDispatcher(opts...)
	d.Register(greetingID, csp.RawInterfaceVersion(1), func(_ context.Context, req *DataMessage) (Serializable, error) {
		var in greeting
		if err := req.DecodeBody(&in); err != nil {
			return nil, err
		}
		switch in.Text {
		case "fail":
			return nil, errors.New("handler exploded")
		case "silent":
			return nil, nil
		}
		return greeting{Text: strings.ToUpper(in.Text), Count: in.Count + 1}, nil
	})
	return d
}

func statusOf(t *testing.T, data []byte) csp.Status {
	t.Helper()

	msg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse reply: %v", err)
	}
	sm, ok := msg.(*StatusMessage)
	if !ok {
		t.Fatalf("reply is %T, want a status message", msg)
	}
	return sm.Status
}

func TestDispatcherRoutesDataMessages(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	d := newGreetingDispatcher(t, WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	for _, flags := range []csp.CommonFlags{csp.BigEndian, 0} {
		req, err := Marshal(greeting{Text: "hi", Count: 1}, WithCommonFlags(flags))
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		resp, err := d.Handle(context.Background(), req)
		if err != nil {
			t.Fatalf("Handle: %v", err)
		}

		msg, err := Parse(resp)
		if err != nil {
			t.Fatalf("Parse reply: %v", err)
		}
		if got := msg.MessageHeader().CommonFlags &^ (csp.Bitness32 | csp.EndiannessDifference); got != flags {
			t.Errorf("reply common flags: got %v, want %v", got, flags)
		}
		var out greeting
		if err := Unmarshal(resp, &out); err != nil {
			t.Fatalf("Unmarshal reply: %v", err)
		}
		if diff := cmp.Diff(greeting{Text: "HI", Count: 2}, out); diff != "" {
			t.Errorf("reply mismatch (-want +got):\n%s", diff)
		}
	}

	if !strings.Contains(logs.String(), "request handled") {
		t.Errorf("request was not logged:\n%s", logs.String())
	}
}

func TestDispatcherStatusReplies(t *testing.T) {
	t.Parallel()

	d := newGreetingDispatcher(t)
	mustMarshal := func(v Serializable, opts ...Option) []byte {
		data, err := Marshal(v, opts...)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		return data
	}
	status, err := EncodeStatus(csp.NoError)
	if err != nil {
		t.Fatalf("EncodeStatus: %v", err)
	}
	response, err := EncodeSettingsResponse(DefaultSettings())
	if err != nil {
		t.Fatalf("EncodeSettingsResponse: %v", err)
	}

	tests := []struct {
		name string
		req  []byte
		want csp.Status
	}{
		{"unknown struct", mustMarshal(pointV1{}), csp.NoSuchHandler},
		{"handler error", mustMarshal(greeting{Text: "fail"}), csp.Internal},
		{"no reply value", mustMarshal(greeting{Text: "silent"}), csp.NoError},
		{"malformed", []byte{2, 2}, csp.DataCorrupted},
		{"status as request", status, csp.InvalidType},
		{"settings response as request", response, csp.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := d.Handle(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if got := statusOf(t, resp); got != tt.want {
				t.Errorf("status: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDispatcherRejectsNewerInterface(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	d.Register(pointID, csp.RawInterfaceVersion(1), func(context.Context, *DataMessage) (Serializable, error) {
		return nil, nil
	})
	req, err := Marshal(pointV2{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	resp, err := d.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := statusOf(t, resp); got != csp.NotSupportedInterfaceVersion {
		t.Errorf("status: got %v, want NotSupportedInterfaceVersion", got)
	}
}

func TestDispatcherEnforcesBaseSettings(t *testing.T) {
	t.Parallel()

	d := newGreetingDispatcher(t, WithBaseSettings(Settings{
		ProtocolVersions:     []csp.ProtocolVersion{csp.ProtocolVersion2},
		ForbiddenCommonFlags: csp.BigEndian,
	}))

	bigEndian, err := Marshal(greeting{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	v1, err := Marshal(greeting{}, WithCommonFlags(0), WithProtocolVersion(csp.ProtocolVersion1))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	for req, want := range map[*[]byte]csp.Status{
		&bigEndian: csp.NotCompatibleCommonFlagsSettings,
		&v1:        csp.NotSupportedProtocolVersion,
	} {
		resp, err := d.Handle(context.Background(), *req)
		if err != nil {
			t.Fatalf("Handle: %v", err)
		}
		if got := statusOf(t, resp); got != want {
			t.Errorf("status: got %v, want %v", got, want)
		}
	}
}

func TestDispatcherSettings(t *testing.T) {
	t.Parallel()

	d := newGreetingDispatcher(t)
	d.Register(pointID, csp.SemanticVersion{Major: 0, Minor: 2}, func(context.Context, *DataMessage) (Serializable, error) {
		return nil, nil
	})

	req, err := EncodeSettingsRequest(WithCommonFlags(0))
	if err != nil {
		t.Fatalf("EncodeSettingsRequest: %v", err)
	}
	resp, err := d.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	msg, err := Parse(resp)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sm, ok := msg.(*SettingsMessage)
	if !ok || sm.Request {
		t.Fatalf("reply is %T (request=%v), want a settings response", msg, ok && sm.Request)
	}

	want := Settings{
		ProtocolVersions: csp.SupportedProtocolVersions(),
		Interfaces: []InterfaceEntry{
			{ID: pointID, Version: 2},
			{ID: greetingID, Version: 1},
		},
	}
	if diff := cmp.Diff(want, sm.Settings); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}

	if !d.Unregister(pointID) || d.Unregister(pointID) {
		t.Error("Unregister should report presence exactly once")
	}
	if n := len(d.Settings().Interfaces); n != 1 {
		t.Errorf("interfaces after Unregister: got %d, want 1", n)
	}
}

func TestDispatcherCancelledContext(t *testing.T) {
	t.Parallel()

	d := newGreetingDispatcher(t)
	req, err := Marshal(greeting{Text: "hi"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Handle(ctx, req); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	d.Register(pointID, csp.RawInterfaceVersion(1), func(context.Context, *DataMessage) (Serializable, error) {
		cancel()
		return pointV1{}, nil
	})
	req, err = Marshal(pointV1{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := d.Handle(ctx, req); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled during handling: got %v, want context.Canceled", err)
	}
}

func TestDispatcherConcurrentRequests(t *testing.T) {
	t.Parallel()

	d := newGreetingDispatcher(t)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range 32 {
		g.Go(func() error {
			if i%8 == 0 {
				d.Register(uuid.New(), csp.RawInterfaceVersion(1), nil)
			}
			req, err := Marshal(greeting{Text: "x", Count: uint32(i)})
			if err != nil {
				return err
			}
			resp, err := d.Handle(ctx, req)
			if err != nil {
				return err
			}
			var out greeting
			if err := Unmarshal(resp, &out); err != nil {
				return err
			}
			if out.Count != uint32(i)+1 {
				return csp.Errorf(csp.Internal, "request %d answered with count %d", i, out.Count)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if n := len(d.Settings().Interfaces); n != 5 {
		t.Errorf("interfaces: got %d, want 5", n)
	}
}

func TestDispatcherReplyContextOptions(t *testing.T) {
	t.Parallel()

	utf8 := processing.WithCharset(csp.CharsetUTF8)
	d := NewDispatcher(WithDispatcherContextOptions(utf8))
	d.Register(greetingID, csp.RawInterfaceVersion(1), func(_ context.Context, req *DataMessage) (Serializable, error) {
		var in greeting
		if err := req.DecodeBody(&in, utf8); err != nil {
			return nil, err
		}
		return greeting{Text: in.Text + "!", Count: in.Count}, nil
	})

	req, err := Marshal(greeting{Text: "hé"}, WithContextOptions(utf8))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	resp, err := d.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	msg, err := Parse(resp)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dm, ok := msg.(*DataMessage)
	if !ok {
		t.Fatalf("reply is %T, status %v", msg, statusOf(t, resp))
	}
	// uint64 length 4, then the UTF-8 octets of "hé!"
	if body := dm.Body; len(body) < 12 || !bytes.Equal(body[8:12], []byte("hé!")) {
		t.Errorf("reply body: % x", dm.Body)
	}

	var out greeting
	if err := Unmarshal(resp, &out, utf8); err != nil || out.Text != "hé!" {
		t.Errorf("Unmarshal: got %+v, %v", out, err)
	}
}

var outlineID = uuid.MustParse("5c3e9a10-7b2d-4f61-8a0e-2d4c6b8f1a37")

type outline struct {
	Sections []outline
}

func (outline) CSPStructID() uuid.UUID                    { return outlineID }
func (outline) CSPInterfaceVersion() csp.InterfaceVersion { return csp.RawInterfaceVersion(1) }

func TestDeeplyNestedBodyIsRejected(t *testing.T) {
	t.Parallel()

	shallow, err := Marshal(outline{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// The body of an empty outline is its final count word; replace it with
	// a long chain of single sections.
	data := bytes.Clone(shallow[:len(shallow)-8])
	for range 1 << 18 {
		data = binary.BigEndian.AppendUint64(data, 1)
	}
	data = binary.BigEndian.AppendUint64(data, 0)

	var out outline
	if err := Unmarshal(data, &out, processing.WithMaxDepth(256)); csp.StatusOf(err) != csp.Overflow {
		t.Errorf("Unmarshal: got %v, want Overflow", err)
	}

	d := NewDispatcher()
	d.Register(outlineID, csp.RawInterfaceVersion(1), func(_ context.Context, req *DataMessage) (Serializable, error) {
		var in outline
		if err := req.DecodeBody(&in); err != nil {
			return nil, err
		}
		return in, nil
	})
	resp, err := d.Handle(context.Background(), data)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := statusOf(t, resp); got != csp.Overflow {
		t.Errorf("status: got %v, want Overflow", got)
	}
}
