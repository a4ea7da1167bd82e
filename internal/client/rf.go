package client

import "github.com/w3axl/xcmpgo/internal/xcmp"

// SetTxFrequency sets the transmit frequency in Hz.
func (c *Client) SetTxFrequency(hz uint32) error {
	b := frequencyToBytes(hz)
	_, err := c.send(xcmp.NewRequest(xcmp.OpTxFrequency, b[:]), xcmp.TypeResponse)
	return err
}

// RxConfig is an opaque RX-chain configuration payload; the full
// per-field catalogue of RX_CONFIGURE is device-specific and out of
// scope, so callers build the payload bytes themselves.
type RxConfig struct {
	Payload []byte
}

// ConfigureRx pushes an RX-chain configuration.
func (c *Client) ConfigureRx(cfg RxConfig) error {
	_, err := c.send(xcmp.NewRequest(xcmp.OpRxConfigure, cfg.Payload), xcmp.TypeResponse)
	return err
}

// Keyup keys the transmitter.
func (c *Client) Keyup() error {
	_, err := c.send(xcmp.NewRequest(xcmp.OpKeyRadio, nil), xcmp.TypeResponse)
	return err
}

// Dekey releases the transmitter.
func (c *Client) Dekey() error {
	_, err := c.send(xcmp.NewRequest(xcmp.OpDekeyRadio, nil), xcmp.TypeResponse)
	return err
}
