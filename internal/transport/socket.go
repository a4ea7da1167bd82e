package transport

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// Network selects the socket transport's wire protocol.
type Network string

const (
	NetworkTCP Network = "tcp"
	NetworkUDP Network = "udp"
)

const udpBindDeadline = time.Second

// udpReadTimeout is the default per-Receive deadline NewSocket gives a
// UDP socket.
const udpReadTimeout = time.Second

// Framing tells Socket.Receive how to recognise one complete frame's
// worth of bytes out of a TCP stream. A single conn.Read can return a
// frame split across several underlying packets, or leave a frame
// partially read, so Socket has to reassemble one complete frame
// itself rather than handing back whatever one Read call returned
// (spec.md §4.1: Receive blocks until at least one full frame has
// arrived).
type Framing int

const (
	// FramingXCMP frames are a 2-byte big-endian length prefix
	// followed by that many more bytes (spec.md §3).
	FramingXCMP Framing = iota
	// FramingXNL frames are a fixed 12-byte header, with the payload
	// length as the big-endian uint16 at header offset 10, followed
	// by that many more bytes (spec.md §3 "XNL frame").
	FramingXNL
)

const (
	xcmpPrefixLen = 2
	xnlPrefixLen  = 12
)

func (f Framing) prefixLen() int {
	if f == FramingXNL {
		return xnlPrefixLen
	}
	return xcmpPrefixLen
}

func (f Framing) remainingLen(prefix []byte) int {
	if f == FramingXNL {
		return int(binary.BigEndian.Uint16(prefix[10:12]))
	}
	return int(binary.BigEndian.Uint16(prefix[0:2]))
}

// Socket is a ByteTransport over a plain TCP or UDP connection. UDP
// binds and connects a local socket to the peer address with a
// one-second dial deadline; as UDP dialling sends nothing, Connect does
// not detect an unreachable peer.
type Socket struct {
	network Network
	addr    string
	framing Framing

	// ReadTimeout bounds each Receive call. Zero means no deadline.
	// NewSocket sets it to one second for UDP and leaves it zero for TCP.
	ReadTimeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

// NewSocket builds a Socket transport for the given network ("tcp" or
// "udp"), "host:port" address, and frame shape. Connect must be called
// before use. Callers speaking raw XCMP pass FramingXCMP; xnl.Session
// (and anything dialling a socket on its behalf) uses FramingXNL
// instead, since the two protocols declare a frame's length in
// different places.
func NewSocket(network Network, addr string, framing Framing) *Socket {
	s := &Socket{network: network, addr: addr, framing: framing}
	if network == NetworkUDP {
		s.ReadTimeout = udpReadTimeout
	}
	return s
}

func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	dialer := net.Dialer{}
	if s.network == NetworkUDP {
		dialer.Deadline = time.Now().Add(udpBindDeadline)
	}
	if d, ok := ctx.Deadline(); ok {
		dialer.Deadline = d
	}

	conn, err := dialer.DialContext(ctx, string(s.network), s.addr)
	if err != nil {
		return xcmperr.Wrap(xcmperr.TransportError, err, "dial %s %s", s.network, s.addr)
	}
	s.conn = conn
	logrus.WithFields(logrus.Fields{"network": s.network, "addr": s.addr}).Debug("transport: socket connected")
	return nil
}

func (s *Socket) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return xcmperr.Wrap(xcmperr.TransportError, err, "close socket")
	}
	return nil
}

func (s *Socket) Send(data []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return xcmperr.New(xcmperr.NotConnected, "socket send before connect")
	}
	if _, err := conn.Write(data); err != nil {
		return xcmperr.Wrap(xcmperr.TransportError, err, "socket write")
	}
	return nil
}

// Receive reads one datagram (UDP) or one complete frame's worth of
// stream bytes (TCP), with a per-call deadline mirroring switchboard's
// applyReadContext: the deadline unblocks a pending read the same way
// Disconnect does, without needing a shared cancellation context here.
// UDP datagrams already arrive as whole frames, so only TCP needs
// frame reassembly.
func (s *Socket) Receive() ([]byte, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return nil, xcmperr.New(xcmperr.NotConnected, "socket receive before connect")
	}

	if s.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
	}

	if s.network == NetworkUDP {
		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		if err != nil {
			return nil, xcmperr.Wrap(xcmperr.TransportError, err, "socket read")
		}
		return buf[:n], nil
	}

	return readFrame(conn, s.framing)
}

// readFrame accumulates exactly one frame off r: the framing's
// fixed-size prefix via io.ReadFull, then however many more bytes the
// prefix declares, also via io.ReadFull. This is the
// switchboard/internal/protocol/frame.go fixed-header-then-payload
// discipline (and the teacher's uartTransaction accumulate-until-
// complete loop), generalised to whichever framing is in play, so a
// frame TCP delivers across several reads is reassembled instead of
// handed back partial.
func readFrame(r io.Reader, framing Framing) ([]byte, error) {
	prefix := make([]byte, framing.prefixLen())
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, xcmperr.Wrap(xcmperr.TransportError, err, "read frame prefix")
	}

	remaining := framing.remainingLen(prefix)
	frame := make([]byte, len(prefix)+remaining)
	copy(frame, prefix)
	if remaining > 0 {
		if _, err := io.ReadFull(r, frame[len(prefix):]); err != nil {
			return nil, xcmperr.Wrap(xcmperr.TransportError, err, "read frame body")
		}
	}
	return frame, nil
}

func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}
