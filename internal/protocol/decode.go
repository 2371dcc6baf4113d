package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var clientTypes = map[string]struct{}{
	TypeDirectionChange: {},
	TypeSprintChange:    {},
	TypeRestartGame:     {},
}

// DecodeClient parses one inbound frame into a ClientMsg.
// Any failure is a *DecodeError; callers drop the frame and keep the connection.
func DecodeClient(b []byte) (ClientMsg, error) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return ClientMsg{}, decodeErr(ErrProtoBadRequest, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return ClientMsg{}, decodeErr(ErrProtoBadRequest, errors.New("frame is not an object"))
	}
	typ, _ := obj["type"].(string)
	if _, ok := clientTypes[typ]; !ok {
		return ClientMsg{}, decodeErr(ErrUnknownType, fmt.Errorf("type %q", typ))
	}

	s, err := Schema(typ)
	if err != nil {
		return ClientMsg{}, decodeErr(ErrSchema, err)
	}
	if err := s.Validate(raw); err != nil {
		return ClientMsg{}, decodeErr(ErrSchema, err)
	}

	var m ClientMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return ClientMsg{}, decodeErr(ErrSchema, err)
	}
	switch m.Type {
	case TypeDirectionChange:
		d := m.Direction
		if d == nil || abs(d.X)+abs(d.Z) != 1 || d.Y != 0 {
			return ClientMsg{}, decodeErr(ErrBadDirection, fmt.Errorf("direction %+v is not a unit step", d))
		}
	case TypeSprintChange:
		if m.IsSprinting == nil {
			return ClientMsg{}, decodeErr(ErrSchema, errors.New("missing isSprinting"))
		}
	case TypeRestartGame:
		m.Direction = nil
		m.IsSprinting = nil
	}
	return m, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
