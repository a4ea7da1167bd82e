package xnl

import (
	"encoding/binary"

	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// deviceTypePCApplication is the DEVICE_CONN_REQUEST device-type value
// this client always presents.
const deviceTypePCApplication = 0x0A

// authLevelInternal is the only auth-level this client requests.
const authLevelInternal = 0x00

// authKeyReply is DEVICE_AUTH_KEY_REPLY's payload: a temporary source
// address and the peer's 8-byte challenge plaintext.
type authKeyReply struct {
	TempSourceAddress uint16
	Challenge         [8]byte
}

func decodeAuthKeyReply(data []byte) (authKeyReply, error) {
	if len(data) < 10 {
		return authKeyReply{}, xcmperr.New(xcmperr.FramingError, "auth-key-reply payload too short: %d bytes", len(data))
	}
	var r authKeyReply
	r.TempSourceAddress = binary.BigEndian.Uint16(data[0:2])
	copy(r.Challenge[:], data[2:10])
	return r, nil
}

// connRequestPayload builds DEVICE_CONN_REQUEST's 12-byte payload.
func connRequestPayload(encryptedResponse [8]byte) []byte {
	buf := make([]byte, 12)
	buf[2] = deviceTypePCApplication
	buf[3] = authLevelInternal
	copy(buf[4:12], encryptedResponse[:])
	return buf
}

// connReply is DEVICE_CONN_REPLY's decoded payload.
type connReply struct {
	Result            byte
	TransactionIDBase byte
	FinalSourceAddr   uint16
	LogicalAddress    uint16
	Echo              [8]byte
}

func decodeConnReply(data []byte) (connReply, error) {
	if len(data) < 14 {
		return connReply{}, xcmperr.New(xcmperr.FramingError, "conn-reply payload too short: %d bytes", len(data))
	}
	var r connReply
	r.Result = data[0]
	r.TransactionIDBase = data[1]
	r.FinalSourceAddr = binary.BigEndian.Uint16(data[2:4])
	r.LogicalAddress = binary.BigEndian.Uint16(data[4:6])
	copy(r.Echo[:], data[6:14])
	return r, nil
}

const connReplySuccess = 0x00
