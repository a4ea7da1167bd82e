package xcmp

import (
	"encoding/binary"

	"github.com/w3axl/xcmpgo/internal/xcmperr"
)

// DisplayFunction selects the operation a DISPLAY_TEXT message performs.
type DisplayFunction byte

const (
	DisplayUpdate        DisplayFunction = 0
	DisplayQuery         DisplayFunction = 1
	DisplayClose         DisplayFunction = 2
	DisplayAllPixelsOn   DisplayFunction = 3
	DisplayAllPixelsOff  DisplayFunction = 4
	DisplayRefresh       DisplayFunction = 5
)

// DisplayRegion and DisplayID pack into a single byte (5 low bits, 3
// high bits respectively). Only the two most common names are given;
// the full catalogue of regions/ids is device-specific and out of scope.
type DisplayRegion byte
type DisplayID byte

const (
	DisplayRegionPrimary DisplayRegion = 1
	DisplayIDPrimary     DisplayID     = 1
)

// TextEncoding names the two encodings DISPLAY_TEXT payloads support.
type TextEncoding byte

const (
	EncodingISO88591 TextEncoding = 0
	EncodingUCS2     TextEncoding = 1
)

// TimerDefault is the sentinel timer value meaning "use the display's
// default timeout" rather than an explicit duration.
const TimerDefault uint16 = 0x00FF

// UpdateQueryFields are the fields carried only by the Update and Query
// functions (spec's tagged-variant redesign: a generic DisplayText
// value only ever populates this when Function is one of those two).
type UpdateQueryFields struct {
	Region   DisplayRegion
	ID       DisplayID
	Timer    uint16 // 0 = permanent, else value * 500ms, TimerDefault = default
	Class    byte   // message priority, 1-5
	Encoding TextEncoding
	Text     string
}

// DisplayText is the decoded/owned form of a DISPLAY_TEXT payload.
type DisplayText struct {
	Function    DisplayFunction
	Token       byte
	UpdateQuery *UpdateQueryFields // non-nil iff Function is Update or Query
}

func isUpdateOrQuery(f DisplayFunction) bool {
	return f == DisplayUpdate || f == DisplayQuery
}

// EncodeDisplayText serialises a DisplayText value to its XCMP payload.
func EncodeDisplayText(m DisplayText) ([]byte, error) {
	buf := []byte{byte(m.Function), m.Token}
	if !isUpdateOrQuery(m.Function) {
		return buf, nil
	}
	if m.UpdateQuery == nil {
		return nil, xcmperr.New(xcmperr.FramingError, "function %d requires UpdateQuery fields", m.Function)
	}
	uq := m.UpdateQuery

	regionID := byte(uq.Region&0x1F) | byte(uq.ID<<5)
	buf = append(buf, regionID)

	var timerBuf [2]byte
	binary.BigEndian.PutUint16(timerBuf[:], uq.Timer)
	buf = append(buf, timerBuf[:]...)

	buf = append(buf, uq.Class, byte(uq.Encoding))

	textBytes, err := encodeText(uq.Text, uq.Encoding)
	if err != nil {
		return nil, err
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(textBytes)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, textBytes...)
	return buf, nil
}

// DecodeDisplayText parses a DISPLAY_TEXT payload into a DisplayText value.
func DecodeDisplayText(data []byte) (DisplayText, error) {
	if len(data) < 2 {
		return DisplayText{}, xcmperr.New(xcmperr.FramingError, "display-text payload too short: %d bytes", len(data))
	}
	m := DisplayText{Function: DisplayFunction(data[0]), Token: data[1]}
	if !isUpdateOrQuery(m.Function) {
		return m, nil
	}

	if len(data) < 9 {
		return DisplayText{}, xcmperr.New(xcmperr.FramingError, "update/query display-text payload too short: %d bytes", len(data))
	}
	regionID := data[2]
	timer := binary.BigEndian.Uint16(data[3:5])
	class := data[5]
	encoding := TextEncoding(data[6])
	textLen := binary.BigEndian.Uint16(data[7:9])

	if int(9+textLen) != len(data) {
		return DisplayText{}, xcmperr.New(xcmperr.FramingError,
			"declared text length %d does not match payload span %d", textLen, len(data)-9)
	}

	text, err := decodeText(data[9:], encoding)
	if err != nil {
		return DisplayText{}, err
	}

	m.UpdateQuery = &UpdateQueryFields{
		Region:   DisplayRegion(regionID & 0x1F),
		ID:       DisplayID(regionID >> 5),
		Timer:    timer,
		Class:    class,
		Encoding: encoding,
		Text:     text,
	}
	return m, nil
}

func encodeText(s string, enc TextEncoding) ([]byte, error) {
	switch enc {
	case EncodingISO88591:
		out := make([]byte, 0, len(s))
		for _, r := range s {
			if r > 0xFF {
				return nil, xcmperr.New(xcmperr.EncodingError, "rune %q is not representable in ISO-8859-1", r)
			}
			out = append(out, byte(r))
		}
		return out, nil
	case EncodingUCS2:
		out := make([]byte, 0, 2*len(s))
		for _, r := range s {
			if r > 0xFFFF {
				return nil, xcmperr.New(xcmperr.EncodingError, "rune %q is outside the UCS-2 BMP", r)
			}
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], uint16(r))
			out = append(out, b[:]...)
		}
		return out, nil
	default:
		return nil, xcmperr.New(xcmperr.EncodingError, "unsupported text encoding %d", enc)
	}
}

func decodeText(data []byte, enc TextEncoding) (string, error) {
	switch enc {
	case EncodingISO88591:
		runes := make([]rune, len(data))
		for i, b := range data {
			runes[i] = rune(b)
		}
		return string(runes), nil
	case EncodingUCS2:
		if len(data)%2 != 0 {
			return "", xcmperr.New(xcmperr.EncodingError, "UCS-2 text span %d is not even", len(data))
		}
		runes := make([]rune, 0, len(data)/2)
		for i := 0; i < len(data); i += 2 {
			runes = append(runes, rune(binary.BigEndian.Uint16(data[i:i+2])))
		}
		return string(runes), nil
	default:
		return "", xcmperr.New(xcmperr.EncodingError, "unsupported text encoding %d", enc)
	}
}
