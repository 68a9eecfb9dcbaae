package call

import (
	"github.com/medlinehq/go-frontdesk/pkg/carrier"
)

// DefaultChunkSize is the number of base64 characters per outbound
// media frame.
const DefaultChunkSize = 8000

// Framer splits base64-encoded audio into fixed-size media frames.
// Frames are emitted strictly in order; concatenating their payloads
// reconstitutes the input exactly.
type Framer struct {
	chunkSize int
}

// NewFramer creates a framer. chunkSize <= 0 selects the default.
func NewFramer(chunkSize int) *Framer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Framer{chunkSize: chunkSize}
}

// Frames wraps the payload into ordered media frames for the stream.
func (f *Framer) Frames(streamSid, payload string) []*carrier.Frame {
	if payload == "" {
		return nil
	}

	frames := make([]*carrier.Frame, 0, len(payload)/f.chunkSize+1)
	for start := 0; start < len(payload); start += f.chunkSize {
		end := start + f.chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		frames = append(frames, carrier.NewMediaFrame(streamSid, payload[start:end]))
	}
	return frames
}
