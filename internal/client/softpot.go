package client

import (
	"github.com/w3axl/xcmpgo/internal/xcmp"
	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// SoftpotGetValue reads a single scalar softpot value of the given type
// and wire width, verifying the reply echoes the requested type (spec
// invariant iv).
func (c *Client) SoftpotGetValue(typ xcmp.SoftpotType, width byte) (uint32, error) {
	vals, err := c.softpotRead(xcmp.SoftpotRead, typ, width)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, nil
	}
	return vals[0], nil
}

// SoftpotGetParams reads a softpot type's full parameter array (its
// read-all variant): current value, minimum and maximum, depending on
// what the device populates.
func (c *Client) SoftpotGetParams(typ xcmp.SoftpotType, width byte) ([]uint32, error) {
	return c.softpotRead(xcmp.SoftpotReadAll, typ, width)
}

// SoftpotSetValue writes a single scalar softpot value of the given
// type and wire width, verifying the reply echoes the requested type
// (spec invariant iv) the same way the read path does.
func (c *Client) SoftpotSetValue(typ xcmp.SoftpotType, width byte, value uint32) error {
	reqPayload, err := xcmp.EncodeSoftpot(xcmp.Softpot{Op: xcmp.SoftpotWrite, Type: typ, Width: width, Values: []uint32{value}})
	if err != nil {
		return err
	}
	reply, err := c.send(xcmp.NewRequest(xcmp.OpSoftpot, reqPayload), xcmp.TypeResponse)
	if err != nil {
		return err
	}
	_, err = c.sendSoftpotReply(reply.Payload, typ, width)
	return err
}

func (c *Client) softpotRead(op xcmp.SoftpotOp, typ xcmp.SoftpotType, width byte) ([]uint32, error) {
	reqPayload, err := xcmp.EncodeSoftpot(xcmp.Softpot{Op: op, Type: typ})
	if err != nil {
		return nil, err
	}
	reply, err := c.send(xcmp.NewRequest(xcmp.OpSoftpot, reqPayload), xcmp.TypeResponse)
	if err != nil {
		return nil, err
	}
	return c.sendSoftpotReply(reply.Payload, typ, width)
}

// sendSoftpotReply re-parses a softpot reply and verifies the
// softpot-type echo (spec.md "sendSoftpot: delegate to send, then
// re-parse the returned bytes as a softpot message and verify softpot-
// type echo").
func (c *Client) sendSoftpotReply(payload []byte, wantType xcmp.SoftpotType, width byte) ([]uint32, error) {
	sp, err := xcmp.DecodeSoftpot(payload, width)
	if err != nil {
		return nil, err
	}
	if sp.Type != wantType {
		return nil, xcmperr.New(xcmperr.OpcodeMismatch,
			"softpot reply echoed type %#x, requested %#x", sp.Type, wantType)
	}
	return sp.Values, nil
}
