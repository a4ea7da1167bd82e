package transport

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

const (
	atReset  = "ATZ\r"
	atDial   = "ATDT8002\r"
	okReply  = "OK"
	connOK   = "CONNECT"
	atReadTO = 5 * time.Second
)

var pppdRemoteIPPattern = regexp.MustCompile(`remote IP address (\d+\.\d+\.\d+\.\d+)`)

// PPPTransport bootstraps a PPP link over a radio's internal serial
// modem, then hands off to an inner Socket dialled at the
// address pppd negotiates. It owns both the serial port and the pppd
// subprocess, killing the latter on Disconnect.
type PPPTransport struct {
	PortName string
	Baud     int
	PPPDPath string // defaults to "pppd" on PATH if empty
	RemotePort string // "host:port" suffix applied once the remote IP is known
	// Framing is the frame shape of whatever protocol rides the inner
	// socket once PPP is up: FramingXCMP for a raw client, FramingXNL
	// when an xnl.Session will be layered over this transport.
	Framing Framing

	port  *serial.Port
	pppd  *exec.Cmd
	inner *Socket
}

// NewPPPTransport builds a serial-dialled PPP transport. remotePort is
// the XCMP/XNL service port the radio listens on once PPP is up, e.g.
// ":7070". framing selects how the inner socket reassembles frames.
func NewPPPTransport(portName string, baud int, remotePort string, framing Framing) *PPPTransport {
	return &PPPTransport{PortName: portName, Baud: baud, RemotePort: remotePort, Framing: framing}
}

func (p *PPPTransport) Connect(ctx context.Context) error {
	if p.port != nil {
		return nil
	}

	cfg := &serial.Config{Name: p.PortName, Baud: p.Baud, ReadTimeout: atReadTO}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return xcmperr.Wrap(xcmperr.TransportError, err, "open serial port %s", p.PortName)
	}
	p.port = port

	if err := p.atCommand(atReset, okReply); err != nil {
		_ = port.Close()
		p.port = nil
		return err
	}
	if err := p.atCommand(atDial, connOK); err != nil {
		_ = port.Close()
		p.port = nil
		return err
	}

	pppdPath := p.PPPDPath
	if pppdPath == "" {
		pppdPath = "pppd"
	}
	cmd := exec.CommandContext(ctx, pppdPath, p.PortName, "noauth", "nodetach")
	out, err := cmd.StdoutPipe()
	if err != nil {
		_ = port.Close()
		p.port = nil
		return xcmperr.Wrap(xcmperr.TransportError, err, "pppd stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		_ = port.Close()
		p.port = nil
		return xcmperr.Wrap(xcmperr.TransportError, err, "start pppd")
	}
	p.pppd = cmd

	remoteIP, err := scrapeRemoteIP(out)
	if err != nil {
		_ = p.Disconnect()
		return err
	}
	logrus.WithField("remoteIP", remoteIP).Info("transport: ppp link established")

	p.inner = NewSocket(NetworkTCP, remoteIP+p.RemotePort, p.Framing)
	if err := p.inner.Connect(ctx); err != nil {
		_ = p.Disconnect()
		return err
	}
	return nil
}

func (p *PPPTransport) atCommand(cmd, want string) error {
	if _, err := p.port.Write([]byte(cmd)); err != nil {
		return xcmperr.Wrap(xcmperr.TransportError, err, "write AT command %q", strings.TrimSpace(cmd))
	}
	reply := make([]byte, 128)
	n, err := p.port.Read(reply)
	if err != nil {
		return xcmperr.Wrap(xcmperr.TransportError, err, "read reply to %q", strings.TrimSpace(cmd))
	}
	if !strings.Contains(string(reply[:n]), want) {
		return xcmperr.New(xcmperr.TransportError, "modem did not reply %q to %q", want, strings.TrimSpace(cmd))
	}
	return nil
}

func scrapeRemoteIP(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if m := pppdRemoteIPPattern.FindStringSubmatch(scanner.Text()); m != nil {
			return m[1], nil
		}
	}
	return "", xcmperr.New(xcmperr.TransportError, "pppd output ended before a remote IP was reported")
}

func (p *PPPTransport) Disconnect() error {
	if p.inner != nil {
		_ = p.inner.Disconnect()
		p.inner = nil
	}
	if p.pppd != nil && p.pppd.Process != nil {
		_ = p.pppd.Process.Kill()
		_ = p.pppd.Wait()
		p.pppd = nil
	}
	if p.port != nil {
		err := p.port.Close()
		p.port = nil
		if err != nil {
			return xcmperr.Wrap(xcmperr.TransportError, err, "close serial port")
		}
	}
	return nil
}

func (p *PPPTransport) Send(data []byte) error {
	if p.inner == nil {
		return xcmperr.New(xcmperr.NotConnected, "ppp transport send before connect")
	}
	return p.inner.Send(data)
}

func (p *PPPTransport) Receive() ([]byte, error) {
	if p.inner == nil {
		return nil, xcmperr.New(xcmperr.NotConnected, "ppp transport receive before connect")
	}
	return p.inner.Receive()
}

func (p *PPPTransport) Connected() bool {
	return p.inner != nil && p.inner.Connected()
}
