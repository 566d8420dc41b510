package message

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/andreygs/gocsp/pkg/csp"
)

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	req, err := EncodeSettingsRequest()
	if err != nil {
		t.Fatalf("EncodeSettingsRequest: %v", err)
	}
	msg, err := Parse(req)
	if err != nil {
		t.Fatalf("Parse request: %v", err)
	}
	if sm, ok := msg.(*SettingsMessage); !ok || !sm.Request {
		t.Fatalf("got %T, want a settings request", msg)
	}

	want := Settings{
		ProtocolVersions:     []csp.ProtocolVersion{csp.ProtocolVersion2},
		MandatoryCommonFlags: csp.BigEndian,
		ForbiddenCommonFlags: csp.Bitness32,
		Interfaces: []InterfaceEntry{
			{ID: greetingID, Version: 1},
			{ID: uuid.MustParse("11111111-2222-4333-8444-555555555555"), Version: 0x00010002},
		},
	}
	for _, flags := range []csp.CommonFlags{csp.BigEndian, 0} {
		resp, err := EncodeSettingsResponse(want, WithCommonFlags(flags))
		if err != nil {
			t.Fatalf("EncodeSettingsResponse: %v", err)
		}
		msg, err := Parse(resp)
		if err != nil {
			t.Fatalf("Parse response: %v", err)
		}
		sm, ok := msg.(*SettingsMessage)
		if !ok || sm.Request {
			t.Fatalf("got %T, want a settings response", msg)
		}
		if diff := cmp.Diff(want, sm.Settings); diff != "" {
			t.Errorf("flags %v: settings mismatch (-want +got):\n%s", flags, diff)
		}
	}
}

func TestSettingsResponseRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    Settings
	}{
		{"too many versions", Settings{ProtocolVersions: make([]csp.ProtocolVersion, 256)}},
		{"unknown mandatory flag", Settings{MandatoryCommonFlags: 0x8000}},
		{"unknown forbidden flag", Settings{ForbiddenCommonFlags: 0x8000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := EncodeSettingsResponse(tt.s); csp.StatusOf(err) != csp.InvalidArgument {
				t.Errorf("got %v, want InvalidArgument", err)
			}
		})
	}
}

func TestParseSettingsCorrupt(t *testing.T) {
	t.Parallel()

	resp, err := EncodeSettingsResponse(Settings{
		ProtocolVersions: csp.SupportedProtocolVersions(),
		Interfaces:       []InterfaceEntry{{ID: greetingID, Version: 1}},
	})
	if err != nil {
		t.Fatalf("EncodeSettingsResponse: %v", err)
	}
	req, err := EncodeSettingsRequest()
	if err != nil {
		t.Fatalf("EncodeSettingsRequest: %v", err)
	}

	badKind := append([]byte(nil), req...)
	badKind[HeaderSize] = 7
	// the interface count follows the kind, versions and both flag words
	hugeCount := append([]byte(nil), resp...)
	countAt := HeaderSize + 1 + 1 + 2 + 2 + 2
	hugeCount[countAt], hugeCount[countAt+1] = 0xff, 0xff

	tests := []struct {
		name string
		data []byte
	}{
		{"unknown kind", badKind},
		{"request with payload", append(append([]byte(nil), req...), 0)},
		{"truncated entry", resp[:len(resp)-3]},
		{"trailing octets", append(append([]byte(nil), resp...), 0)},
		{"count exceeds payload", hugeCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse(tt.data); csp.StatusOf(err) != csp.DataCorrupted {
				t.Errorf("got %v, want DataCorrupted", err)
			}
		})
	}
}

func TestSettingsAccepts(t *testing.T) {
	t.Parallel()

	s := Settings{
		ProtocolVersions:     []csp.ProtocolVersion{csp.ProtocolVersion2},
		MandatoryCommonFlags: csp.BigEndian,
		ForbiddenCommonFlags: csp.EndiannessDifference,
	}

	tests := []struct {
		name string
		h    Header
		want csp.Status
	}{
		{"accepted", Header{ProtocolVersion: csp.ProtocolVersion2, CommonFlags: csp.BigEndian | csp.Bitness32}, csp.NoError},
		{"old protocol", Header{ProtocolVersion: csp.ProtocolVersion1, CommonFlags: csp.BigEndian}, csp.NotSupportedProtocolVersion},
		{"missing mandatory", Header{ProtocolVersion: csp.ProtocolVersion2}, csp.NotCompatibleCommonFlagsSettings},
		{"forbidden set", Header{ProtocolVersion: csp.ProtocolVersion2, CommonFlags: csp.BigEndian | csp.EndiannessDifference}, csp.NotCompatibleCommonFlagsSettings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := csp.StatusOf(s.Accepts(tt.h)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
