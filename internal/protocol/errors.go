package protocol

import "fmt"

const (
	// Frame could not be parsed at all.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	// Parsed, but the type is not a client intent.
	ErrUnknownType = "E_UNKNOWN_TYPE"
	// Schema violation: missing or mistyped fields.
	ErrSchema = "E_SCHEMA"
	// direction_change with a non-unit vector.
	ErrBadDirection = "E_BAD_DIRECTION"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrUnknownType:     {},
	ErrSchema:          {},
	ErrBadDirection:    {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// DecodeError is returned for inbound frames that must be dropped.
type DecodeError struct {
	Code string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(code string, err error) *DecodeError {
	return &DecodeError{Code: code, Err: err}
}
