// Package client implements XcmpClient: request/response correlation
// over a transport.ByteTransport (possibly an *xnl.Session), plus the
// high-level device operations built on top of it.
package client

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/w3axl/xcmpgo/internal/transport"
	"github.com/w3axl/xcmpgo/internal/xcmp"
	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// sendBytesTimeout bounds sendBytesUntilMatch's polling loop (spec.md §5).
const sendBytesTimeout = 5 * time.Second

// replyMarkerOffset is added to an outgoing opcode to recognise its
// reply in the raw sendBytes path.
const replyMarkerOffset = 0x8000

// Client wraps a single ByteTransport and enforces the stack's
// single-threaded, strictly synchronous discipline: every Send is
// immediately followed by a blocking Receive, never interleaved with
// another in-flight operation on the same Client (spec.md §5).
type Client struct {
	transport transport.ByteTransport

	Serial      string
	Model       string
	HostVersion string
	DSPVersion  string
}

// New builds a Client over an already-constructed transport (a raw
// socket, a PPP transport, or an *xnl.Session — Client never knows the
// difference).
func New(t transport.ByteTransport) *Client {
	return &Client{transport: t}
}

// Connect brings up the underlying transport. Unless skipIdentity is
// set (used by tests exercising Connect in isolation), it then issues
// GetSerial, GetModel and both GetVersion calls to populate identity,
// mirroring the teacher's "connect" composing a fixed sequence of
// startup queries.
func (c *Client) Connect(ctx context.Context, skipIdentity bool) error {
	if err := c.transport.Connect(ctx); err != nil {
		return err
	}
	if skipIdentity {
		return nil
	}

	var err error
	if c.Serial, err = c.GetSerial(); err != nil {
		return err
	}
	if c.Model, err = c.GetModel(); err != nil {
		return err
	}
	if c.HostVersion, err = c.GetHostVersion(); err != nil {
		return err
	}
	if c.DSPVersion, err = c.GetDSPVersion(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"serial": c.Serial, "model": c.Model,
		"hostVersion": c.HostVersion, "dspVersion": c.DSPVersion,
	}).Info("client: identity populated")
	return nil
}

// Disconnect releases the underlying transport.
func (c *Client) Disconnect() error {
	return c.transport.Disconnect()
}

// send writes message's bytes, reads one frame back, and validates the
// reply's type, opcode, and result before returning it (spec.md §4.7).
func (c *Client) send(msg xcmp.Message, expectedType xcmp.Type) (xcmp.Message, error) {
	if !c.transport.Connected() {
		return xcmp.Message{}, xcmperr.New(xcmperr.NotConnected, "send before connect")
	}

	encoded, err := xcmp.Encode(msg)
	if err != nil {
		return xcmp.Message{}, err
	}
	if err := c.transport.Send(encoded); err != nil {
		return xcmp.Message{}, err
	}

	raw, err := c.transport.Receive()
	if err != nil {
		return xcmp.Message{}, err
	}
	reply, err := xcmp.Decode(raw)
	if err != nil {
		return xcmp.Message{}, err
	}

	if reply.Type != expectedType {
		return xcmp.Message{}, xcmperr.New(xcmperr.UnexpectedReplyType,
			"expected type %s, got %s", expectedType, reply.Type)
	}
	if reply.Opcode != msg.Opcode {
		return xcmp.Message{}, xcmperr.New(xcmperr.OpcodeMismatch,
			"response opcode %#x does not match request opcode %#x", reply.Opcode, msg.Opcode)
	}
	if reply.HasResult && reply.Result != xcmp.ResultSuccess {
		return xcmp.Message{}, xcmperr.WithResult(byte(reply.Result),
			"opcode %#x returned non-success result %#x", msg.Opcode, reply.Result)
	}
	return reply, nil
}

// write fires a message with no expectation of a reply.
func (c *Client) write(msg xcmp.Message) error {
	if !c.transport.Connected() {
		return xcmperr.New(xcmperr.NotConnected, "write before connect")
	}
	encoded, err := xcmp.Encode(msg)
	if err != nil {
		return err
	}
	return c.transport.Send(encoded)
}

// sendBytesUntilMatch performs the raw opcode-first byte exchange: it
// builds a length-prefixed frame from raw (whose first two bytes are a
// big-endian opcode), sends it, then polls Receive for up to 5 seconds
// until a frame's first two payload bytes equal the outgoing opcode
// plus the reply-marker offset. This is the one place above the
// transport where this stack still polls, grounded on the teacher's
// callFunction retry loop — adapted here to a time-bounded wait for a
// specific marker rather than a fixed retry count.
func (c *Client) sendBytesUntilMatch(raw []byte) ([]byte, error) {
	if len(raw) < 2 {
		return nil, xcmperr.New(xcmperr.FramingError, "sendBytes requires at least a 2-byte opcode prefix")
	}
	if !c.transport.Connected() {
		return nil, xcmperr.New(xcmperr.NotConnected, "sendBytes before connect")
	}

	opcode := binary.BigEndian.Uint16(raw[0:2])
	wantMarker := opcode + replyMarkerOffset

	frame := make([]byte, 2+len(raw))
	binary.BigEndian.PutUint16(frame[0:2], uint16(len(raw)))
	copy(frame[2:], raw)
	if err := c.transport.Send(frame); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(sendBytesTimeout)
	for {
		if time.Now().After(deadline) {
			return nil, xcmperr.New(xcmperr.Timeout,
				"sendBytes: no reply matching marker %#x within %s", wantMarker, sendBytesTimeout)
		}
		resp, err := c.transport.Receive()
		if err != nil {
			return nil, err
		}
		if len(resp) < 4 {
			continue
		}
		length := binary.BigEndian.Uint16(resp[0:2])
		if int(length) != len(resp)-2 {
			continue
		}
		payload := resp[2:]
		if len(payload) < 2 {
			continue
		}
		if binary.BigEndian.Uint16(payload[0:2]) == wantMarker {
			return payload, nil
		}
	}
}
