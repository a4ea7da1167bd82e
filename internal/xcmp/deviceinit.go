package xcmp

import (
	"encoding/binary"

	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// InitType distinguishes the three DEVICE_INIT_STATUS broadcast kinds.
type InitType byte

const (
	InitStatus       InitType = 0
	InitComplete     InitType = 1
	InitStatusUpdate InitType = 2
)

// StatusFatal is the bit in DeviceInitStatus.Status marking the status
// as fatal (spec: "MSB = fatal").
const StatusFatal uint16 = 0x8000

// Attribute is a single (id, value) pair carried by a device-init-status
// broadcast. Per spec invariant v, each entry occupies 2 bytes on the
// wire (one byte id, one byte value), even though attribute-length
// counts entries rather than bytes.
type Attribute struct {
	ID    byte
	Value byte
}

// DeviceInitStatus is the decoded/owned form of a DEVICE_INIT_STATUS
// broadcast payload.
type DeviceInitStatus struct {
	ProtocolVersion uint32
	InitType        InitType
	DeviceType      byte
	Status          uint16
	Attributes      []Attribute
}

// Fatal reports whether the status bitfield's MSB is set.
func (d DeviceInitStatus) Fatal() bool { return d.Status&StatusFatal != 0 }

const deviceInitHeaderSize = 10 // version(4) + initType(1) + deviceType(1) + status(2) + attrLen(1) + reserved(1)

// EncodeDeviceInitStatus serialises a DeviceInitStatus to its payload.
func EncodeDeviceInitStatus(m DeviceInitStatus) ([]byte, error) {
	if len(m.Attributes) > 0xFF {
		return nil, xcmperr.New(xcmperr.FramingError, "%d attributes exceeds the one-byte attribute-length field", len(m.Attributes))
	}
	buf := make([]byte, deviceInitHeaderSize, deviceInitHeaderSize+2*len(m.Attributes))
	binary.BigEndian.PutUint32(buf[0:4], m.ProtocolVersion)
	buf[4] = byte(m.InitType)
	buf[5] = m.DeviceType
	binary.BigEndian.PutUint16(buf[6:8], m.Status)
	buf[8] = byte(len(m.Attributes))
	buf[9] = 0 // reserved
	for _, a := range m.Attributes {
		buf = append(buf, a.ID, a.Value)
	}
	return buf, nil
}

// DecodeDeviceInitStatus parses a DEVICE_INIT_STATUS broadcast payload.
func DecodeDeviceInitStatus(data []byte) (DeviceInitStatus, error) {
	if len(data) < deviceInitHeaderSize {
		return DeviceInitStatus{}, xcmperr.New(xcmperr.FramingError,
			"device-init-status payload too short: %d bytes", len(data))
	}
	m := DeviceInitStatus{
		ProtocolVersion: binary.BigEndian.Uint32(data[0:4]),
		InitType:        InitType(data[4]),
		DeviceType:      data[5],
		Status:          binary.BigEndian.Uint16(data[6:8]),
	}
	attrLen := int(data[8])
	// data[9] is reserved.
	need := deviceInitHeaderSize + 2*attrLen
	if len(data) != need {
		return DeviceInitStatus{}, xcmperr.New(xcmperr.FramingError,
			"attribute-length %d declares a %d-byte span but payload is %d bytes", attrLen, need, len(data))
	}
	m.Attributes = make([]Attribute, 0, attrLen)
	for i := 0; i < attrLen; i++ {
		off := deviceInitHeaderSize + 2*i
		m.Attributes = append(m.Attributes, Attribute{ID: data[off], Value: data[off+1]})
	}
	return m, nil
}
