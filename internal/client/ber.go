package client

import (
	"encoding/binary"
	"time"

	"github.com/w3axl/xcmpgo/internal/xcmp"
	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// p25FrameBits is the number of bits carried per P25 frame, used as the
// BER denominator (spec.md §4.7).
const p25FrameBits = 3456

// frameSettleDuration is how long the radio is given to accumulate each
// frame of BER statistics before a report is requested.
const frameSettleDuration = 800 * time.Millisecond

// SyncStatus is a BER report entry's sync state.
type SyncStatus byte

const (
	SyncInSync SyncStatus = 0
	SyncNoSync SyncStatus = 1
	SyncLost   SyncStatus = 2
)

// berReportEntry is one 5-byte group within a BER_TEST_REPORT payload:
// frame number, sync status, and a 24-bit big-endian bit-error count.
type berReportEntry struct {
	FrameNumber byte
	Status      SyncStatus
	ErrorCount  uint32
}

func decodeBERReport(payload []byte) ([]berReportEntry, error) {
	if len(payload)%5 != 0 {
		return nil, xcmperr.New(xcmperr.FramingError, "BER report span %d is not a multiple of 5", len(payload))
	}
	entries := make([]berReportEntry, 0, len(payload)/5)
	for i := 0; i < len(payload); i += 5 {
		group := payload[i : i+5]
		errBytes := []byte{0, group[2], group[3], group[4]}
		entries = append(entries, berReportEntry{
			FrameNumber: group[0],
			Status:      SyncStatus(group[1]),
			ErrorCount:  binary.BigEndian.Uint32(errBytes),
		})
	}
	return entries, nil
}

// GetP25BER configures the RX chain for the P25 BER test pattern, arms
// a continuous BER test for n frames, waits for the radio to
// accumulate them, then requests and scores a sync report. Frames
// whose sync status is no-sync or lost are excluded from the
// denominator (spec.md §4.7).
func (c *Client) GetP25BER(n int) (float64, error) {
	if _, err := c.send(xcmp.NewRequest(xcmp.OpRxConfigure, []byte{0x01}), xcmp.TypeResponse); err != nil {
		return 0, err
	}

	armPayload := make([]byte, 2)
	binary.BigEndian.PutUint16(armPayload, uint16(n))
	if _, err := c.send(xcmp.NewRequest(xcmp.OpBERConfigure, armPayload), xcmp.TypeResponse); err != nil {
		return 0, err
	}

	time.Sleep(time.Duration(n) * frameSettleDuration)

	reply, err := c.send(xcmp.NewRequest(xcmp.OpBERReport, nil), xcmp.TypeResponse)
	if err != nil {
		return 0, err
	}
	entries, err := decodeBERReport(reply.Payload)
	if err != nil {
		return 0, err
	}

	var totalErrors uint64
	var accepted int
	for _, e := range entries {
		if e.Status == SyncNoSync || e.Status == SyncLost {
			continue
		}
		totalErrors += uint64(e.ErrorCount)
		accepted++
	}
	if accepted == 0 {
		return 0, nil
	}
	return float64(totalErrors) / float64(p25FrameBits*n*accepted), nil
}
