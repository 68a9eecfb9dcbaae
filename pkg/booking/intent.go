package booking

import "strings"

// Detector decides whether an assistant reply committed to a booking.
type Detector interface {
	Detect(reply string) bool
}

// KeywordDetector flags replies containing a confirmation keyword.
// Matching is case-insensitive and substring-based, so "Confirmed!"
// and "you're booked in" both trigger.
type KeywordDetector struct {
	Keywords []string
}

// NewKeywordDetector returns a detector with the default confirmation
// vocabulary.
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{Keywords: []string{"confirmed", "booked"}}
}

// Detect reports whether the reply contains any keyword.
func (d *KeywordDetector) Detect(reply string) bool {
	lower := strings.ToLower(reply)
	for _, kw := range d.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Verify KeywordDetector implements Detector at compile time.
var _ Detector = (*KeywordDetector)(nil)
