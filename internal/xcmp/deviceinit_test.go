package xcmp

import (
	"bytes"
	"testing"
)

func TestDeviceInitStatusRoundTrip(t *testing.T) {
	msg := DeviceInitStatus{
		ProtocolVersion: 0x00010203,
		InitType:        InitStatusUpdate,
		DeviceType:      0x07,
		Status:          StatusFatal | 0x0001,
		Attributes: []Attribute{
			{ID: 1, Value: 10},
			{ID: 2, Value: 20},
		},
	}
	encoded, err := EncodeDeviceInitStatus(msg)
	if err != nil {
		t.Fatalf("EncodeDeviceInitStatus: %v", err)
	}
	decoded, err := DecodeDeviceInitStatus(encoded)
	if err != nil {
		t.Fatalf("DecodeDeviceInitStatus: %v", err)
	}
	if decoded.ProtocolVersion != msg.ProtocolVersion || decoded.InitType != msg.InitType ||
		decoded.DeviceType != msg.DeviceType || decoded.Status != msg.Status {
		t.Fatalf("decoded header mismatch: got %+v, want %+v", decoded, msg)
	}
	if !decoded.Fatal() {
		t.Fatal("expected Fatal() to be true")
	}
	if len(decoded.Attributes) != len(msg.Attributes) {
		t.Fatalf("decoded %d attributes, want %d", len(decoded.Attributes), len(msg.Attributes))
	}
	for i := range msg.Attributes {
		if decoded.Attributes[i] != msg.Attributes[i] {
			t.Fatalf("attribute[%d] = %+v, want %+v", i, decoded.Attributes[i], msg.Attributes[i])
		}
	}
	reEncoded, err := EncodeDeviceInitStatus(decoded)
	if err != nil {
		t.Fatalf("re-EncodeDeviceInitStatus: %v", err)
	}
	if !bytes.Equal(encoded, reEncoded) {
		t.Fatalf("round trip mismatch: % X vs % X", encoded, reEncoded)
	}
}

func TestDeviceInitStatusAttributeSpan(t *testing.T) {
	// attribute-length counts entries, so 3 entries need 6 trailing bytes.
	data := make([]byte, deviceInitHeaderSize)
	data[8] = 3
	_, err := DecodeDeviceInitStatus(data)
	if err == nil {
		t.Fatal("expected a framing error when declared attribute span exceeds payload")
	}
}

func TestDeviceInitStatusNoAttributes(t *testing.T) {
	msg := DeviceInitStatus{ProtocolVersion: 1, InitType: InitComplete, DeviceType: 1, Status: 0}
	encoded, err := EncodeDeviceInitStatus(msg)
	if err != nil {
		t.Fatalf("EncodeDeviceInitStatus: %v", err)
	}
	if len(encoded) != deviceInitHeaderSize {
		t.Fatalf("expected exactly the header for zero attributes, got %d bytes", len(encoded))
	}
}
