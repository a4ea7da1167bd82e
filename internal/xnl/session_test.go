package xnl

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/w3axl/xcmpgo/internal/tea"
)

// pipeTransport is an in-memory transport.ByteTransport that hands
// each Send to a channel a test-side "master" goroutine reads, and
// reads replies from a channel that goroutine writes to. It exists
// purely to drive Session's state machine without a real socket.
type pipeTransport struct {
	toMaster   chan []byte
	fromMaster chan []byte
	connected  bool
}

func newPipeTransport() *pipeTransport {
	return &pipeTransport{
		toMaster:   make(chan []byte, 4),
		fromMaster: make(chan []byte, 4),
	}
}

func (p *pipeTransport) Connect(ctx context.Context) error { p.connected = true; return nil }
func (p *pipeTransport) Disconnect() error                 { p.connected = false; return nil }
func (p *pipeTransport) Connected() bool                   { return p.connected }

func (p *pipeTransport) Send(data []byte) error {
	cp := append([]byte(nil), data...)
	p.toMaster <- cp
	return nil
}

func (p *pipeTransport) Receive() ([]byte, error) {
	return <-p.fromMaster, nil
}

const (
	testMasterAddr  uint16 = 0x0002
	testTempAddr    uint16 = 0x00AA
	testFinalAddr   uint16 = 0x00BB
	testLogicalAddr uint16 = 0x0001
	testTxnBase     byte   = 0x42
)

var testKeys = Keys{Words: tea.Keys{0x11111111, 0x22222222, 0x33333333, 0x44444444}, Delta: 0x9E3779B9}

// runMaster answers exactly the handshake sequence of spec.md §4.6
// (master query, auth key, connection request) and then returns; tests
// that exchange DATA_MSGs answer those themselves.
func runMaster(t *testing.T, p *pipeTransport, challenge [8]byte) {
	t.Helper()

	// DEVICE_MASTER_QUERY -> MASTER_STATUS_BROADCAST
	req := <-p.toMaster
	f, err := Decode(req)
	if err != nil || f.Opcode != OpDeviceMasterQuery {
		t.Errorf("expected DEVICE_MASTER_QUERY, got %+v err=%v", f, err)
	}
	p.fromMaster <- Encode(Frame{Opcode: OpMasterStatusBcast, Protocol: ProtocolXNLCtrl, Source: testMasterAddr})

	// DEVICE_AUTH_KEY_REQUEST -> DEVICE_AUTH_KEY_REPLY
	req = <-p.toMaster
	f, err = Decode(req)
	if err != nil || f.Opcode != OpDeviceAuthKeyRequest {
		t.Errorf("expected DEVICE_AUTH_KEY_REQUEST, got %+v err=%v", f, err)
	}
	authPayload := make([]byte, 10)
	binary.BigEndian.PutUint16(authPayload[0:2], testTempAddr)
	copy(authPayload[2:10], challenge[:])
	p.fromMaster <- Encode(Frame{Opcode: OpDeviceAuthKeyReply, Protocol: ProtocolXNLCtrl, Payload: authPayload})

	// DEVICE_CONN_REQUEST -> DEVICE_CONN_REPLY
	req = <-p.toMaster
	f, err = Decode(req)
	if err != nil || f.Opcode != OpDeviceConnRequest {
		t.Errorf("expected DEVICE_CONN_REQUEST, got %+v err=%v", f, err)
	}
	wantResponse := tea.EncryptBlock(challenge, testKeys.Words, testKeys.Delta)
	if f.Payload[2] != deviceTypePCApplication {
		t.Errorf("conn-request device type = %#x, want %#x", f.Payload[2], deviceTypePCApplication)
	}
	var gotResponse [8]byte
	copy(gotResponse[:], f.Payload[4:12])
	if gotResponse != wantResponse {
		t.Errorf("conn-request encrypted response = % X, want % X", gotResponse, wantResponse)
	}
	connReplyPayload := make([]byte, 14)
	connReplyPayload[0] = connReplySuccess
	connReplyPayload[1] = testTxnBase
	binary.BigEndian.PutUint16(connReplyPayload[2:4], testFinalAddr)
	binary.BigEndian.PutUint16(connReplyPayload[4:6], testLogicalAddr)
	p.fromMaster <- Encode(Frame{Opcode: OpDeviceConnReply, Protocol: ProtocolXNLCtrl, Payload: connReplyPayload})
}

func TestSessionConnectReachesReady(t *testing.T) {
	p := newPipeTransport()
	challenge := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	done := make(chan struct{})
	go func() {
		runMaster(t, p, challenge)
		close(done)
	}()

	s := New(p, testKeys)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	<-done

	if s.StateNow() != StateReady {
		t.Fatalf("state = %v, want %v", s.StateNow(), StateReady)
	}
	if s.masterAddr != testMasterAddr || s.sourceAddr != testFinalAddr || s.logicalAddr != testLogicalAddr {
		t.Fatalf("session fields = master=%#x source=%#x logical=%#x",
			s.masterAddr, s.sourceAddr, s.logicalAddr)
	}
}

func TestSessionSendWaitsForMatchingAck(t *testing.T) {
	p := newPipeTransport()
	challenge := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	done := make(chan struct{})
	go func() {
		runMaster(t, p, challenge)
		close(done)
	}()

	s := New(p, testKeys)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	<-done

	go func() {
		req := <-p.toMaster
		f, err := Decode(req)
		if err != nil {
			t.Errorf("decode data msg: %v", err)
			return
		}
		p.fromMaster <- Encode(Frame{
			Opcode:        OpDataMsgAck,
			Protocol:      ProtocolXNLCtrl,
			Rollover:      f.Rollover,
			TransactionID: f.TransactionID,
		})
	}()

	if err := s.Send([]byte{0xAB, 0xCD}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if s.rollover != 1 {
		t.Fatalf("rollover = %d, want 1", s.rollover)
	}
}

func TestSessionSendRejectsMismatchedAck(t *testing.T) {
	p := newPipeTransport()
	challenge := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	done := make(chan struct{})
	go func() {
		runMaster(t, p, challenge)
		close(done)
	}()

	s := New(p, testKeys)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	<-done

	go func() {
		req := <-p.toMaster
		f, _ := Decode(req)
		p.fromMaster <- Encode(Frame{
			Opcode:        OpDataMsgAck,
			Protocol:      ProtocolXNLCtrl,
			Rollover:      (f.Rollover + 1) % 8,
			TransactionID: f.TransactionID,
		})
	}()

	if err := s.Send([]byte{0x01}); err == nil {
		t.Fatal("expected an ack-mismatch error")
	}
}

func TestSessionSendBeforeReadyIsNotConnected(t *testing.T) {
	s := New(newPipeTransport(), testKeys)
	if err := s.Send([]byte{0x01}); err == nil {
		t.Fatal("expected a not-connected error before Connect")
	}
}

func TestSessionReceivePassesThroughUnackedBroadcast(t *testing.T) {
	p := newPipeTransport()
	challenge := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	done := make(chan struct{})
	go func() {
		runMaster(t, p, challenge)
		close(done)
	}()

	s := New(p, testKeys)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	<-done

	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	p.fromMaster <- Encode(Frame{
		Opcode:   OpMasterStatusBcast,
		Protocol: ProtocolXNLCtrl,
		Source:   testMasterAddr,
		Payload:  want,
	})

	got, err := s.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("Receive() payload = % X, want % X", got, want)
	}
	select {
	case sent := <-p.toMaster:
		t.Fatalf("expected no ACK for an unsolicited broadcast, got frame % X", sent)
	default:
	}
}

func TestSessionReceiveAcksDataMsgWithAckNeeded(t *testing.T) {
	p := newPipeTransport()
	challenge := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	done := make(chan struct{})
	go func() {
		runMaster(t, p, challenge)
		close(done)
	}()

	s := New(p, testKeys)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	<-done

	want := []byte{0x01, 0x02}
	p.fromMaster <- Encode(Frame{
		Opcode:        OpDataMsg,
		Protocol:      ProtocolXCMP,
		Rollover:      3,
		AckNeeded:     true,
		Source:        testMasterAddr,
		TransactionID: 0x55AA,
		Payload:       want,
	})

	got, err := s.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("Receive() payload = % X, want % X", got, want)
	}

	ackRaw := <-p.toMaster
	ack, err := Decode(ackRaw)
	if err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Opcode != OpDataMsgAck || ack.Rollover != 3 || ack.TransactionID != 0x55AA {
		t.Fatalf("ack = %+v, want opcode=DATA_MSG_ACK rollover=3 txn=0x55AA", ack)
	}
}
