package client

import (
	"bytes"

	"github.com/w3axl/xcmpgo/internal/xcmp"
)

// identityString reads a response payload as a null-terminated ASCII
// string, the format the spec's SERIAL_NUMBER example establishes.
func identityString(payload []byte) string {
	if i := bytes.IndexByte(payload, 0); i >= 0 {
		payload = payload[:i]
	}
	return string(payload)
}

func (c *Client) getIdentityString(op xcmp.Opcode) (string, error) {
	reply, err := c.send(xcmp.NewRequest(op, nil), xcmp.TypeResponse)
	if err != nil {
		return "", err
	}
	return identityString(reply.Payload), nil
}

// GetSerial reads the radio's serial number.
func (c *Client) GetSerial() (string, error) { return c.getIdentityString(xcmp.OpSerialNumber) }

// GetModel reads the radio's model number.
func (c *Client) GetModel() (string, error) { return c.getIdentityString(xcmp.OpModelNumber) }

// GetHostVersion reads the host software version string.
func (c *Client) GetHostVersion() (string, error) { return c.getIdentityString(xcmp.OpHostVersion) }

// GetDSPVersion reads the DSP software version string.
func (c *Client) GetDSPVersion() (string, error) { return c.getIdentityString(xcmp.OpDSPVersion) }

// Ping issues a PING request and reports whether the radio answered
// with a success result.
func (c *Client) Ping() (bool, error) {
	_, err := c.send(xcmp.NewRequest(xcmp.OpPing, nil), xcmp.TypeResponse)
	if err != nil {
		return false, err
	}
	return true, nil
}
