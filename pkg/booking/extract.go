package booking

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Service vocabulary, checked in order; first match wins. "root canal"
// precedes "extraction" so "root canal extraction" books a root canal.
var services = []string{"cleaning", "whitening", "filling", "root canal", "extraction", "checkup"}

var (
	nameRe = regexp.MustCompile(`\b(?:my name is|i am|this is)\s+([a-z]+(?:\s[a-z]+)?)`)
	timeRe = regexp.MustCompile(`(\d{1,2}):?(\d{2})?\s*(am|pm)`)
)

// Details holds what keyword extraction could recover from a
// conversation. Fields the transcript never mentioned stay zero; the
// store substitutes defaults at insert time.
type Details struct {
	Name    string
	Service string
	Date    time.Time
	Time    string
}

// Extract scans the lowercased full conversation text for booking
// fields. now anchors relative date words ("today", "tomorrow") to the
// server clock.
func Extract(fullText string, now time.Time) Details {
	text := strings.ToLower(fullText)
	var d Details

	for _, svc := range services {
		if strings.Contains(text, svc) {
			d.Service = svc
			break
		}
	}

	if m := nameRe.FindStringSubmatch(text); m != nil {
		d.Name = titleCase(m[1])
	}

	if m := timeRe.FindString(text); m != "" {
		d.Time = m
	}

	switch {
	case strings.Contains(text, "tomorrow"):
		d.Date = now.AddDate(0, 0, 1)
	case strings.Contains(text, "today"):
		d.Date = now
	}

	return d
}

// Appointment builds a sparse appointment from the extracted details.
func (d Details) Appointment(phone string) *Appointment {
	return &Appointment{
		PatientName:  d.Name,
		PatientPhone: phone,
		ServiceType:  d.Service,
		Date:         d.Date,
		Time:         d.Time,
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
