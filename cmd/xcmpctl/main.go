// Command xcmpctl is a thin smoke-check binary: it brings up a
// transport, optionally layers an XNL session over it, connects a
// client, and prints the radio's identity and a ping result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/w3axl/xcmpgo/internal/client"
	"github.com/w3axl/xcmpgo/internal/tea"
	"github.com/w3axl/xcmpgo/internal/transport"
	"github.com/w3axl/xcmpgo/internal/xnl"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "host:port of the radio's control port")
	network := flag.String("network", "tcp", "tcp or udp")
	useXNL := flag.Bool("xnl", false, "layer an XNL session over the socket before connecting the client")
	timeout := flag.Duration("timeout", 5*time.Second, "connect timeout")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	framing := transport.FramingXCMP
	if *useXNL {
		framing = transport.FramingXNL
	}
	sock := transport.NewSocket(transport.Network(*network), *addr, framing)
	sock.ReadTimeout = time.Second

	var under transport.ByteTransport = sock
	if *useXNL {
		under = xnl.New(sock, xnl.Keys{Words: tea.Keys{0, 0, 0, 0}, Delta: 0x9E3779B9})
	}

	c := client.New(under)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := c.Connect(ctx, false); err != nil {
		logrus.WithError(err).Fatal("xcmpctl: connect failed")
	}
	defer c.Disconnect()

	ok, err := c.Ping()
	if err != nil {
		logrus.WithError(err).Fatal("xcmpctl: ping failed")
	}

	fmt.Printf("serial=%s model=%s host=%s dsp=%s ping=%v\n", c.Serial, c.Model, c.HostVersion, c.DSPVersion, ok)
	os.Exit(0)
}
