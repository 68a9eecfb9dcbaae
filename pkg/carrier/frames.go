// Package carrier holds the telephony boundary: the media stream frame
// schema, TwiML rendering for webhook answers, and the carrier REST client
// for outbound messages and call metadata lookups.
package carrier

import (
	"encoding/json"
	"fmt"
)

// Media stream events exchanged over the duplex WebSocket.
const (
	EventStart = "start"
	EventMedia = "media"
	EventStop  = "stop"
	EventMark  = "mark"
)

// Frame is one JSON message on the media stream, inbound or outbound.
type Frame struct {
	Event     string     `json:"event"`
	StreamSid string     `json:"streamSid,omitempty"`
	Start     *StartInfo `json:"start,omitempty"`
	Media     *MediaInfo `json:"media,omitempty"`
	Mark      *MarkInfo  `json:"mark,omitempty"`
}

// StartInfo carries the call identifiers from the carrier when the
// stream opens.
type StartInfo struct {
	CallSid   string `json:"callSid"`
	StreamSid string `json:"streamSid"`
}

// MediaInfo carries a base64-encoded audio payload.
type MediaInfo struct {
	Payload string `json:"payload"`
}

// MarkInfo labels a point in the outbound audio stream.
type MarkInfo struct {
	Name string `json:"name"`
}

// ParseFrame decodes a raw WebSocket message into a Frame.
// Malformed input returns an error; callers should skip the frame and
// keep the connection open.
func ParseFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("parse frame: missing event")
	}
	return &f, nil
}

// NewMediaFrame builds an outbound media frame for the given stream.
func NewMediaFrame(streamSid, payload string) *Frame {
	return &Frame{
		Event:     EventMedia,
		StreamSid: streamSid,
		Media:     &MediaInfo{Payload: payload},
	}
}

// NewMarkFrame builds an outbound mark frame for the given stream.
func NewMarkFrame(streamSid, name string) *Frame {
	return &Frame{
		Event:     EventMark,
		StreamSid: streamSid,
		Mark:      &MarkInfo{Name: name},
	}
}

// Encode serializes the frame for the wire.
func (f *Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}
