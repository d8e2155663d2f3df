package channel

import (
	"errors"
	"strings"

	"github.com/omtransport/omt/metadata"
	"github.com/omtransport/omt/wire"
)

// ErrEmptyMetadataPayload is returned by processControl when a Metadata
// frame carries a zero-length payload. A zero-length payload is not a
// no-op control frame: the caller treats it as fatal and disconnects.
var ErrEmptyMetadataPayload = errors.New("channel: metadata frame has empty payload")

// processControl inspects a Metadata frame and, if it is one of the
// recognized control-XML documents, applies its effect and returns true
// (absorbed — not surfaced to the consumer). Any other Metadata frame,
// including a typed-metadata item stream, returns false and is enqueued
// for the consumer (spec §4.4). A zero-length Metadata payload returns
// ErrEmptyMetadataPayload instead.
func (c *Channel) processControl(f *wire.Frame) (bool, error) {
	if f.Kind != wire.Metadata {
		return false, nil
	}
	if len(f.Payload) == 0 {
		return false, ErrEmptyMetadataPayload
	}
	doc := strings.TrimSpace(string(f.Payload))

	switch doc {
	case metadata.DocSubscribeVideo:
		c.mu.Lock()
		c.subscription = c.subscription.With(wire.Video)
		c.mu.Unlock()
		return true, nil

	case metadata.DocSubscribeAudio:
		c.mu.Lock()
		c.subscription = c.subscription.With(wire.Audio)
		c.mu.Unlock()
		return true, nil

	case metadata.DocSubscribeMetadata:
		c.mu.Lock()
		c.subscription = c.subscription.With(wire.Metadata)
		c.mu.Unlock()
		return true, nil

	case metadata.DocTallyPreviewProgram:
		c.setTally(metadata.Tally{Preview: true, Program: true})
		return true, nil

	case metadata.DocTallyProgram:
		c.setTally(metadata.Tally{Preview: false, Program: true})
		return true, nil

	case metadata.DocTallyPreview:
		c.setTally(metadata.Tally{Preview: true, Program: false})
		return true, nil

	case metadata.DocTallyNone:
		c.setTally(metadata.Tally{Preview: false, Program: false})
		return true, nil

	case metadata.DocPreviewVideoOn:
		c.mu.Lock()
		c.preview = true
		c.mu.Unlock()
		return true, nil

	case metadata.DocPreviewVideoOff:
		c.mu.Lock()
		c.preview = false
		c.mu.Unlock()
		return true, nil
	}

	if strings.HasPrefix(doc, "<SuggestedQuality") {
		if q, err := metadata.SuggestedQuality(doc); err == nil {
			c.mu.Lock()
			c.quality = q
			c.mu.Unlock()
		}
		return true, nil
	}
	if strings.HasPrefix(doc, "<SenderInfo") {
		if info, err := metadata.ParseSenderInfo(doc); err == nil {
			c.mu.Lock()
			c.senderInfo = info
			c.mu.Unlock()
		}
		return true, nil
	}
	if strings.HasPrefix(doc, "<Redirect") {
		if addr, err := metadata.ParseRedirect(doc); err == nil {
			c.mu.Lock()
			changed := c.redirect != addr
			c.redirect = addr
			c.mu.Unlock()
			if changed {
				c.events.push(ChannelEvent{Kind: RedirectChanged, Redirect: addr})
			}
		}
		return true, nil
	}

	return false, nil
}

func (c *Channel) setTally(t metadata.Tally) {
	c.mu.Lock()
	changed := c.tally != t
	c.tally = t
	c.mu.Unlock()
	if changed {
		c.events.push(ChannelEvent{Kind: TallyChanged, Tally: t})
	}
}
