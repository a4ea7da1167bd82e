package xcmp

import (
	"encoding/binary"

	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// SoftpotOp selects the operation a SOFTPOT message performs.
type SoftpotOp byte

const (
	SoftpotRead         SoftpotOp = 0
	SoftpotWrite        SoftpotOp = 1
	SoftpotUpdate       SoftpotOp = 2
	SoftpotReadMin      SoftpotOp = 3
	SoftpotReadMax      SoftpotOp = 4
	SoftpotReadAll      SoftpotOp = 5
	SoftpotReadAllFreq  SoftpotOp = 6
)

// SoftpotType is a device-specific calibration-parameter selector. The
// full catalogue of softpot types is out of scope (mere constants).
type SoftpotType byte

// Softpot is the decoded/owned form of a SOFTPOT payload. Values holds
// zero entries for a bare read request, one entry for a scalar
// read/write reply, or several for read-all/read-all-freq replies.
type Softpot struct {
	Op     SoftpotOp
	Type   SoftpotType
	Width  byte // 1, 2 or 4
	Values []uint32
}

func validateWidth(width byte) error {
	switch width {
	case 1, 2, 4:
		return nil
	default:
		return xcmperr.New(xcmperr.UnsupportedWidth, "softpot value width %d is not 1, 2 or 4", width)
	}
}

// EncodeSoftpot serialises a Softpot value to its XCMP payload. The
// little-endian value width only applies to the Values that follow the
// two-byte op/type header.
func EncodeSoftpot(m Softpot) ([]byte, error) {
	buf := []byte{byte(m.Op), byte(m.Type)}
	if len(m.Values) == 0 {
		return buf, nil
	}
	if err := validateWidth(m.Width); err != nil {
		return nil, err
	}
	for _, v := range m.Values {
		b := make([]byte, m.Width)
		switch m.Width {
		case 1:
			b[0] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(b, uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(b, v)
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// DecodeSoftpot parses a SOFTPOT payload into a Softpot value. width
// must be supplied by the caller (it is carried by the softpot-type
// catalogue, not by the wire payload itself).
func DecodeSoftpot(data []byte, width byte) (Softpot, error) {
	if len(data) < 2 {
		return Softpot{}, xcmperr.New(xcmperr.FramingError, "softpot payload too short: %d bytes", len(data))
	}
	m := Softpot{Op: SoftpotOp(data[0]), Type: SoftpotType(data[1])}

	rest := data[2:]
	if len(rest) == 0 {
		return m, nil
	}
	if err := validateWidth(width); err != nil {
		return Softpot{}, err
	}
	m.Width = width
	if len(rest)%int(width) != 0 {
		return Softpot{}, xcmperr.New(xcmperr.FramingError,
			"softpot value span %d is not a multiple of width %d", len(rest), width)
	}

	for i := 0; i < len(rest); i += int(width) {
		var v uint32
		switch width {
		case 1:
			v = uint32(rest[i])
		case 2:
			v = uint32(binary.LittleEndian.Uint16(rest[i : i+2]))
		case 4:
			v = binary.LittleEndian.Uint32(rest[i : i+4])
		}
		m.Values = append(m.Values, v)
	}
	return m, nil
}
