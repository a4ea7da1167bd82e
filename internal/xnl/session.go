package xnl

import (
	"context"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/w3axl/xcmpgo/internal/tea"
	"github.com/w3axl/xcmpgo/internal/transport"
	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// State is one of the five session states of spec.md §4.6.
type State int

const (
	StateIdle State = iota
	StateQuerying
	StateAuthenticating
	StateConnecting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQuerying:
		return "querying"
	case StateAuthenticating:
		return "authenticating"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Keys bundles the TEA key material, which is calibration data supplied
// by the caller and never derived or stored by this package.
type Keys struct {
	Words tea.Keys
	Delta uint32
}

// Session is the XNL session state machine. It implements
// transport.ByteTransport itself, so client.Client cannot tell an
// authenticated, connected Session from a raw socket — mirroring the
// teacher's TranscieverModel.Model abstraction, which hides UART
// framing from the layer above it the same way Session hides XNL
// framing and authentication here.
type Session struct {
	under transport.ByteTransport
	keys  Keys

	mu    sync.Mutex
	state State

	masterAddr      uint16
	sourceAddr      uint16
	txnBase         byte
	logicalAddr     uint16
	rollover        byte
}

// New builds a Session layered over an already-constructed byte
// transport (a socket, or a PPP transport). Connect drives the
// discover/authenticate/connect sequence before the session is usable.
func New(under transport.ByteTransport, keys Keys) *Session {
	return &Session{under: under, keys: keys, state: StateIdle}
}

// StateNow reports the session's current state, chiefly for tests and
// diagnostics.
func (s *Session) StateNow() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) sendFrame(f Frame) error {
	return s.under.Send(Encode(f))
}

func (s *Session) recvFrame() (Frame, error) {
	raw, err := s.under.Receive()
	if err != nil {
		return Frame{}, err
	}
	return Decode(raw)
}

// Connect drives the full Idle -> Querying -> Authenticating ->
// Connecting -> Ready sequence. Any failure along the way is fatal: the
// session is left disconnected and a fresh Connect is required to
// recover (spec.md §7).
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateReady {
		return nil
	}

	if err := s.under.Connect(ctx); err != nil {
		return err
	}

	s.state = StateQuerying
	if err := s.query(); err != nil {
		_ = s.under.Disconnect()
		s.state = StateIdle
		return err
	}

	s.state = StateAuthenticating
	challenge, tempAddr, err := s.authenticate()
	if err != nil {
		_ = s.under.Disconnect()
		s.state = StateIdle
		return err
	}
	s.sourceAddr = tempAddr

	s.state = StateConnecting
	if err := s.connectHandshake(challenge); err != nil {
		_ = s.under.Disconnect()
		s.state = StateIdle
		return err
	}

	s.state = StateReady
	logrus.WithFields(logrus.Fields{
		"master":  s.masterAddr,
		"source":  s.sourceAddr,
		"logical": s.logicalAddr,
	}).Info("xnl: session ready")
	return nil
}

func (s *Session) query() error {
	if err := s.sendFrame(Frame{Opcode: OpDeviceMasterQuery, Protocol: ProtocolXNLCtrl}); err != nil {
		return err
	}
	f, err := s.recvFrame()
	if err != nil {
		return err
	}
	if f.Opcode != OpMasterStatusBcast {
		return xcmperr.New(xcmperr.UnexpectedReplyType, "expected MASTER_STATUS_BROADCAST, got opcode %#x", f.Opcode)
	}
	s.masterAddr = f.Source
	return nil
}

func (s *Session) authenticate() (challenge [8]byte, tempAddr uint16, err error) {
	req := Frame{Opcode: OpDeviceAuthKeyRequest, Protocol: ProtocolXNLCtrl, Destination: s.masterAddr}
	if err := s.sendFrame(req); err != nil {
		return challenge, 0, err
	}
	f, err := s.recvFrame()
	if err != nil {
		return challenge, 0, err
	}
	if f.Opcode != OpDeviceAuthKeyReply {
		return challenge, 0, xcmperr.New(xcmperr.UnexpectedReplyType, "expected DEVICE_AUTH_KEY_REPLY, got opcode %#x", f.Opcode)
	}
	reply, err := decodeAuthKeyReply(f.Payload)
	if err != nil {
		return challenge, 0, err
	}
	return reply.Challenge, reply.TempSourceAddress, nil
}

func (s *Session) connectHandshake(challenge [8]byte) error {
	response := tea.EncryptBlock(challenge, s.keys.Words, s.keys.Delta)

	req := Frame{
		Opcode:      OpDeviceConnRequest,
		Protocol:    ProtocolXNLCtrl,
		Destination: s.masterAddr,
		Source:      s.sourceAddr,
		Payload:     connRequestPayload(response),
	}
	if err := s.sendFrame(req); err != nil {
		return err
	}
	f, err := s.recvFrame()
	if err != nil {
		return err
	}
	if f.Opcode != OpDeviceConnReply {
		return xcmperr.New(xcmperr.UnexpectedReplyType, "expected DEVICE_CONN_REPLY, got opcode %#x", f.Opcode)
	}
	reply, err := decodeConnReply(f.Payload)
	if err != nil {
		return err
	}
	if reply.Result != connReplySuccess {
		return xcmperr.WithResult(reply.Result, "DEVICE_CONN_REPLY result %#x is not success", reply.Result)
	}
	s.txnBase = reply.TransactionIDBase
	s.sourceAddr = reply.FinalSourceAddr
	s.logicalAddr = reply.LogicalAddress
	return nil
}

func (s *Session) newTransactionID() uint16 {
	return uint16(s.txnBase)<<8 | uint16(byte(rand.Intn(256)))
}

// Disconnect tears down the underlying transport and resets session
// state. It is idempotent, per spec.md's lifecycle invariant.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return nil
	}
	err := s.under.Disconnect()
	s.state = StateIdle
	s.rollover = 0
	return err
}

// Connected reports whether the session has completed the handshake
// and is in the Ready state.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady
}

// Send wraps data in a DATA_MSG with ack-needed set, writes it, then
// blocks for the matching DATA_MSG_ACK (identical rollover and
// transaction id) before advancing the rollover counter (spec.md §4.6
// invariant iii).
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return xcmperr.New(xcmperr.NotConnected, "xnl session not ready (state=%s)", s.state)
	}

	txnID := s.newTransactionID()
	rollover := s.rollover

	f := Frame{
		Opcode:        OpDataMsg,
		Protocol:      ProtocolXCMP,
		Rollover:      rollover,
		AckNeeded:     true,
		Destination:   s.masterAddr,
		Source:        s.sourceAddr,
		TransactionID: txnID,
		Payload:       data,
	}
	if err := s.sendFrame(f); err != nil {
		return err
	}

	ack, err := s.recvFrame()
	if err != nil {
		return err
	}
	if ack.Opcode != OpDataMsgAck {
		return xcmperr.New(xcmperr.UnexpectedReplyType, "expected DATA_MSG_ACK, got opcode %#x", ack.Opcode)
	}
	if ack.Rollover != rollover || ack.TransactionID != txnID {
		return xcmperr.New(xcmperr.AckMismatch,
			"DATA_MSG_ACK rollover/transaction mismatch: got (%d,%#x), want (%d,%#x)",
			ack.Rollover, ack.TransactionID, rollover, txnID)
	}

	s.rollover = (s.rollover + 1) % 8
	return nil
}

// Receive reads one XNL frame and returns its payload regardless of
// protocol id. On a DATA_MSG carrying ack-needed, it emits the
// DATA_MSG_ACK before returning, per spec.md's description of the
// source's (incomplete) Receive() path. Unsolicited XNL-CTRL
// broadcasts (e.g. a re-announced MASTER_STATUS_BROADCAST or a
// DEVICE_INIT_STATUS push) are returned as-is with no ACK emitted —
// the source never ACKs anything but an ack-needed DATA_MSG, and the
// spec leaves broadcast ACK behaviour an open question that this
// implementation resolves as "never ACK a broadcast".
func (s *Session) Receive() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return nil, xcmperr.New(xcmperr.NotConnected, "xnl session not ready (state=%s)", s.state)
	}

	f, err := s.recvFrame()
	if err != nil {
		return nil, err
	}

	if f.Opcode == OpDataMsg && f.AckNeeded {
		ackFrame := Frame{
			Opcode:        OpDataMsgAck,
			Protocol:      ProtocolXNLCtrl,
			Rollover:      f.Rollover,
			Destination:   f.Source,
			Source:        s.sourceAddr,
			TransactionID: f.TransactionID,
		}
		if err := s.sendFrame(ackFrame); err != nil {
			return nil, err
		}
	}

	return f.Payload, nil
}
