package xcmp

import (
	"bytes"
	"testing"
)

func TestEncodePing(t *testing.T) {
	got, err := Encode(NewRequest(OpPing, nil))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x00, 0x02, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode(ping request) = % X, want % X", got, want)
	}
}

func TestDecodePingResponse(t *testing.T) {
	data := []byte{0x00, 0x03, 0x80, 0x00, 0x00}
	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Type != TypeResponse || msg.Opcode != OpPing || msg.Result != ResultSuccess {
		t.Fatalf("unexpected message: %#v", msg)
	}
	if len(msg.Payload) != 0 {
		t.Fatalf("expected empty payload, got %v", msg.Payload)
	}
}

func TestHeaderPackRoundTrip(t *testing.T) {
	for _, typ := range []Type{TypeRequest, TypeBroadcast, TypeResponse} {
		for _, op := range []Opcode{0x000, 0x001, 0x400, 0xFFF} {
			h := packHeader(typ, op)
			gotType, gotOp := unpackHeader(h)
			if gotType != typ || gotOp != op {
				t.Fatalf("packHeader/unpackHeader round trip failed for (%v,%#x): got (%v,%#x)", typ, op, gotType, gotOp)
			}
		}
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"request no payload", NewRequest(OpPing, nil)},
		{"request with payload", NewRequest(OpTxFrequency, []byte{0x0A, 0x25, 0x15, 0x84})},
		{"response success", NewResponse(OpSerialNumber, ResultSuccess, []byte("ABC123"))},
		{"response failure", NewResponse(OpSoftpot, ResultBadParameter, nil)},
		{"broadcast", Message{Type: TypeBroadcast, Opcode: OpDeviceInitStatus, Payload: []byte{1, 2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			reEncoded, err := Encode(decoded)
			if err != nil {
				t.Fatalf("re-Encode: %v", err)
			}
			if !bytes.Equal(encoded, reEncoded) {
				t.Fatalf("decode(M).encode() != M: % X vs % X", reEncoded, encoded)
			}
		})
	}
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	_, err := Decode([]byte{0x00, 0xFF, 0x00, 0x00})
	if err == nil {
		t.Fatal("expected a framing error")
	}
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	_, err := Decode([]byte{0x00})
	if err == nil {
		t.Fatal("expected a framing error for a too-short frame")
	}
}
