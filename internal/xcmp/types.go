// Package xcmp implements the outer XCMP control-message framing: a
// length-prefixed, typed request/response/broadcast wire format, plus
// typed views over a handful of opcode payloads the client needs.
package xcmp

// Type is the XCMP message type, packed into the top nibble of the
// frame header.
type Type byte

const (
	TypeRequest   Type = 0x0
	TypeBroadcast Type = 0x4
	TypeResponse  Type = 0x8
)

func (t Type) String() string {
	switch t {
	case TypeRequest:
		return "request"
	case TypeBroadcast:
		return "broadcast"
	case TypeResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Opcode is a flat 12-bit enumeration of XCMP operations.
type Opcode uint16

// ResultCode enumerates the outcome of a response. Only a handful of
// categories are named here; the full catalogue of device-specific
// result codes is out of scope (mere constants consumed by the core).
type ResultCode byte

const (
	ResultSuccess          ResultCode = 0x00
	ResultGeneralFailure   ResultCode = 0x01
	ResultBadParameter     ResultCode = 0x02
	ResultUnsupported      ResultCode = 0x03
	ResultNotReady         ResultCode = 0x04
	ResultAuthRequired     ResultCode = 0x05
)

// packHeader combines a type and opcode into the 16-bit on-wire header.
func packHeader(t Type, op Opcode) uint16 {
	return uint16(t)<<12 | uint16(op)&0x0FFF
}

// unpackHeader splits a 16-bit on-wire header back into type and opcode.
func unpackHeader(header uint16) (Type, Opcode) {
	return Type(header >> 12), Opcode(header & 0x0FFF)
}
