package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding selects how server -> client frames are serialized.
type Encoding uint8

const (
	EncodingJSON Encoding = iota
	EncodingMsgpack
)

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return EncodingJSON, nil
	case "msgpack":
		return EncodingMsgpack, nil
	}
	return EncodingJSON, fmt.Errorf("unsupported encoding %q", s)
}

func (e Encoding) String() string {
	if e == EncodingMsgpack {
		return "msgpack"
	}
	return "json"
}

// Binary reports whether frames of this encoding go out as binary messages.
func (e Encoding) Binary() bool { return e == EncodingMsgpack }

func Marshal(e Encoding, v any) ([]byte, error) {
	if e == EncodingMsgpack {
		return msgpack.Marshal(v)
	}
	return json.Marshal(v)
}

func Unmarshal(e Encoding, b []byte, v any) error {
	if e == EncodingMsgpack {
		return msgpack.Unmarshal(b, v)
	}
	return json.Unmarshal(b, v)
}
