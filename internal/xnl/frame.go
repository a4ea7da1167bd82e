// Package xnl implements the XNL session layer: fixed 12-byte frame
// header codec, and a session state machine providing master discovery,
// TEA-based authentication, connection, and DATA_MSG/DATA_MSG_ACK
// reliability tagging over an arbitrary byte transport.
package xnl

import (
	"encoding/binary"

	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// ProtocolID names the payload's protocol within an XNL frame.
type ProtocolID byte

const (
	ProtocolXNLCtrl ProtocolID = 0
	ProtocolXCMP    ProtocolID = 1
)

const (
	flagRolloverMask byte = 0x07
	flagAckNeeded    byte = 0x08
)

const HeaderSize = 12

// Frame is a decoded XNL frame.
type Frame struct {
	Opcode        Opcode
	Protocol      ProtocolID
	Rollover      byte // 3 bits
	AckNeeded     bool
	Destination   uint16
	Source        uint16
	TransactionID uint16
	Payload       []byte
}

// Encode serialises a Frame to its 12-byte-header-plus-payload wire form.
func Encode(f Frame) []byte {
	buf := make([]byte, HeaderSize+len(f.Payload))
	binary.BigEndian.PutUint16(buf[0:2], uint16(f.Opcode))
	buf[2] = byte(f.Protocol)
	flags := f.Rollover & flagRolloverMask
	if f.AckNeeded {
		flags |= flagAckNeeded
	}
	buf[3] = flags
	binary.BigEndian.PutUint16(buf[4:6], f.Destination)
	binary.BigEndian.PutUint16(buf[6:8], f.Source)
	binary.BigEndian.PutUint16(buf[8:10], f.TransactionID)
	binary.BigEndian.PutUint16(buf[10:12], uint16(len(f.Payload)))
	copy(buf[HeaderSize:], f.Payload)
	return buf
}

// Decode parses a Frame from its wire form. Payload-length is
// authoritative; any trailing bytes beyond header+payload-length are
// dropped here without being logged (the transport already delivers
// exactly one frame's worth of bytes in this stack's usage).
func Decode(data []byte) (Frame, error) {
	if len(data) < HeaderSize {
		return Frame{}, xcmperr.New(xcmperr.FramingError, "xnl frame too short: %d bytes", len(data))
	}
	payloadLen := binary.BigEndian.Uint16(data[10:12])
	if int(payloadLen) > len(data)-HeaderSize {
		return Frame{}, xcmperr.New(xcmperr.FramingError,
			"xnl payload length %d exceeds available %d bytes", payloadLen, len(data)-HeaderSize)
	}
	flags := data[3]
	f := Frame{
		Opcode:        Opcode(binary.BigEndian.Uint16(data[0:2])),
		Protocol:      ProtocolID(data[2]),
		Rollover:      flags & flagRolloverMask,
		AckNeeded:     flags&flagAckNeeded != 0,
		Destination:   binary.BigEndian.Uint16(data[4:6]),
		Source:        binary.BigEndian.Uint16(data[6:8]),
		TransactionID: binary.BigEndian.Uint16(data[8:10]),
	}
	f.Payload = append([]byte(nil), data[HeaderSize:HeaderSize+int(payloadLen)]...)
	return f, nil
}
