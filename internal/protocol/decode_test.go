package protocol

import (
	"errors"
	"testing"
)

func TestDecodeClient_Accepts(t *testing.T) {
	m, err := DecodeClient([]byte(`{"type":"direction_change","direction":{"x":0,"z":1}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != TypeDirectionChange || m.Direction == nil || m.Direction.Z != 1 || m.Direction.X != 0 {
		t.Fatalf("unexpected msg: %+v", m)
	}

	m, err = DecodeClient([]byte(`{"type":"sprint_change","isSprinting":false}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.IsSprinting == nil || *m.IsSprinting {
		t.Fatalf("isSprinting: %+v", m.IsSprinting)
	}

	// Extra fields from older clients are tolerated.
	m, err = DecodeClient([]byte(`{"type":"restart_game","direction":{"x":1,"z":0},"id":123}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != TypeRestartGame || m.Direction != nil {
		t.Fatalf("restart should carry no payload: %+v", m)
	}
}

func TestDecodeClient_RejectsWithCode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		code string
	}{
		{"not json", `{"type":`, ErrProtoBadRequest},
		{"array", `[1,2]`, ErrProtoBadRequest},
		{"unknown type", `{"type":"teleport"}`, ErrUnknownType},
		{"missing type", `{"direction":{"x":1,"z":0}}`, ErrUnknownType},
		{"server type", `{"type":"world_update"}`, ErrUnknownType},
		{"missing direction", `{"type":"direction_change"}`, ErrSchema},
		{"missing z", `{"type":"direction_change","direction":{"x":1}}`, ErrSchema},
		{"string coord", `{"type":"direction_change","direction":{"x":"1","z":0}}`, ErrSchema},
		{"fractional", `{"type":"direction_change","direction":{"x":0.5,"z":0}}`, ErrSchema},
		{"too large", `{"type":"direction_change","direction":{"x":2,"z":0}}`, ErrSchema},
		{"diagonal", `{"type":"direction_change","direction":{"x":1,"z":1}}`, ErrBadDirection},
		{"zero", `{"type":"direction_change","direction":{"x":0,"z":0}}`, ErrBadDirection},
		{"missing flag", `{"type":"sprint_change"}`, ErrSchema},
		{"flag type", `{"type":"sprint_change","isSprinting":"yes"}`, ErrSchema},
	}
	for _, tc := range cases {
		_, err := DecodeClient([]byte(tc.in))
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("%s: expected *DecodeError, got %v", tc.name, err)
		}
		if de.Code != tc.code {
			t.Fatalf("%s: code=%s want %s (%v)", tc.name, de.Code, tc.code, err)
		}
	}
}
