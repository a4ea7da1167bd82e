// Package transport provides the byte-oriented links XCMP/XNL frames
// travel over: a bare TCP/UDP socket, and a PPP-over-serial bring-up
// for radios whose control port is an internal modem.
package transport

import "context"

// ByteTransport is the abstraction every layer above it programs
// against — client.Client and xnl.Session are both agnostic to whether
// the underlying link is a socket or a serial-dialled PPP session.
type ByteTransport interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Send(data []byte) error
	Receive() ([]byte, error)
	Connected() bool
}
