package carrier

import (
	"encoding/xml"
	"fmt"
)

type twimlResponse struct {
	XMLName xml.Name      `xml:"Response"`
	Connect *twimlConnect `xml:"Connect,omitempty"`
	Message string        `xml:"Message,omitempty"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL string `xml:"url,attr"`
}

// VoiceTwiML renders the webhook answer that connects an incoming call
// to the media stream WebSocket at the given URL.
func VoiceTwiML(streamURL string) (string, error) {
	return renderTwiML(&twimlResponse{
		Connect: &twimlConnect{Stream: twimlStream{URL: streamURL}},
	})
}

// MessageTwiML renders a messaging webhook reply carrying the given text.
func MessageTwiML(body string) (string, error) {
	return renderTwiML(&twimlResponse{Message: body})
}

func renderTwiML(r *twimlResponse) (string, error) {
	out, err := xml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("render twiml: %w", err)
	}
	return xml.Header + string(out), nil
}
