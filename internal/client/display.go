package client

import "github.com/w3axl/xcmpgo/internal/xcmp"

// DisplayUpdateText pushes text to a display region.
func (c *Client) DisplayUpdateText(region xcmp.DisplayRegion, id xcmp.DisplayID, class byte, encoding xcmp.TextEncoding, timer uint16, text string) error {
	payload, err := xcmp.EncodeDisplayText(xcmp.DisplayText{
		Function: xcmp.DisplayUpdate,
		UpdateQuery: &xcmp.UpdateQueryFields{
			Region:   region,
			ID:       id,
			Timer:    timer,
			Class:    class,
			Encoding: encoding,
			Text:     text,
		},
	})
	if err != nil {
		return err
	}
	_, err = c.send(xcmp.NewRequest(xcmp.OpDisplayText, payload), xcmp.TypeResponse)
	return err
}

// DisplayQueryText reads back the text currently shown in a region.
func (c *Client) DisplayQueryText(region xcmp.DisplayRegion, id xcmp.DisplayID) (string, error) {
	payload, err := xcmp.EncodeDisplayText(xcmp.DisplayText{
		Function: xcmp.DisplayQuery,
		UpdateQuery: &xcmp.UpdateQueryFields{
			Region: region,
			ID:     id,
		},
	})
	if err != nil {
		return "", err
	}
	reply, err := c.send(xcmp.NewRequest(xcmp.OpDisplayText, payload), xcmp.TypeResponse)
	if err != nil {
		return "", err
	}
	dt, err := xcmp.DecodeDisplayText(reply.Payload)
	if err != nil {
		return "", err
	}
	if dt.UpdateQuery == nil {
		return "", nil
	}
	return dt.UpdateQuery.Text, nil
}

// DisplayClose releases a display, ending whatever Update/Query was
// showing on it. The Close function carries no region/id fields of its
// own (spec's tagged-variant redesign: only Update/Query do).
func (c *Client) DisplayClose() error {
	payload, err := xcmp.EncodeDisplayText(xcmp.DisplayText{Function: xcmp.DisplayClose})
	if err != nil {
		return err
	}
	_, err = c.send(xcmp.NewRequest(xcmp.OpDisplayText, payload), xcmp.TypeResponse)
	return err
}
