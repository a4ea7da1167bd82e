package xcmp

import (
	"encoding/binary"

	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// Message is a decoded XCMP frame: type, opcode, an optional result
// (present only on responses) and an opaque payload. Typed views in
// this package decode Payload into owned structs; they never hold a
// reference back into the wire bytes (spec's "typed-view-over-byte-
// buffer" redesign note).
type Message struct {
	Type      Type
	Opcode    Opcode
	Result    ResultCode
	HasResult bool
	Payload   []byte
}

// NewRequest builds a request Message for opcode with the given payload.
func NewRequest(op Opcode, payload []byte) Message {
	return Message{Type: TypeRequest, Opcode: op, Payload: payload}
}

// NewResponse builds a response Message for opcode with the given
// result code and payload.
func NewResponse(op Opcode, result ResultCode, payload []byte) Message {
	return Message{Type: TypeResponse, Opcode: op, Result: result, HasResult: true, Payload: payload}
}

// Encode serialises a Message to its XCMP wire form (spec section on
// the XCMP frame): two big-endian length bytes, a two-byte header, an
// optional result byte, then the payload.
func Encode(m Message) ([]byte, error) {
	if m.Opcode > 0x0FFF {
		return nil, xcmperr.New(xcmperr.FramingError, "opcode %#x exceeds 12 bits", m.Opcode)
	}

	hasResult := m.Type == TypeResponse
	extra := 0
	if hasResult {
		extra = 1
	}
	length := 2 + extra + len(m.Payload)

	buf := make([]byte, 2+length)
	binary.BigEndian.PutUint16(buf[0:2], uint16(length))
	binary.BigEndian.PutUint16(buf[2:4], packHeader(m.Type, m.Opcode))

	idx := 4
	if hasResult {
		buf[idx] = byte(m.Result)
		idx++
	}
	copy(buf[idx:], m.Payload)
	return buf, nil
}

// Decode parses a Message from its XCMP wire form, validating the
// declared length against the available bytes (spec invariant i).
func Decode(data []byte) (Message, error) {
	if len(data) < 4 {
		return Message{}, xcmperr.New(xcmperr.FramingError, "frame too short: %d bytes", len(data))
	}

	length := binary.BigEndian.Uint16(data[0:2])
	if int(length) != len(data)-2 {
		return Message{}, xcmperr.New(xcmperr.FramingError,
			"declared length %d does not match available %d bytes", length, len(data)-2)
	}

	header := binary.BigEndian.Uint16(data[2:4])
	typ, op := unpackHeader(header)

	idx := 4
	var result ResultCode
	hasResult := typ == TypeResponse
	if hasResult {
		if len(data) < 5 {
			return Message{}, xcmperr.New(xcmperr.FramingError, "response frame missing result byte")
		}
		result = ResultCode(data[4])
		idx = 5
	}

	payload := append([]byte(nil), data[idx:]...)
	return Message{Type: typ, Opcode: op, Result: result, HasResult: hasResult, Payload: payload}, nil
}
