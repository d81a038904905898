package model

import (
	"regexp"
	"strings"
)

// Placeholder tokens supported in text element values. Substitution happens
// exactly once, at generation time; the result is stored literally and never
// re-interpreted.
var placeholderPattern = regexp.MustCompile(`(?i)\{(name|event|date|id|organizer)\}`)

type PlaceholderData struct {
	Name      string
	Event     string
	Date      string
	ID        string
	Organizer string
}

// SubstitutePlaceholders replaces the supported tokens case-insensitively in
// a single pass. Substituted values are inserted literally: a value that
// itself looks like a token is never rescanned, and $ has no special meaning.
func SubstitutePlaceholders(value string, data PlaceholderData) string {
	return placeholderPattern.ReplaceAllStringFunc(value, func(m string) string {
		switch strings.ToLower(m) {
		case "{name}":
			return data.Name
		case "{event}":
			return data.Event
		case "{date}":
			return data.Date
		case "{id}":
			return data.ID
		case "{organizer}":
			return data.Organizer
		}
		return m
	})
}

// ResolveElements returns a copy of the template elements with text
// placeholders substituted and the QR payload filled in. The input list is
// never mutated.
func ResolveElements(elements ElementList, data PlaceholderData, qrDataURL, verificationURL string) ElementList {
	out := elements.Clone()
	for i := range out {
		switch out[i].Type {
		case ElementText:
			out[i].Value = SubstitutePlaceholders(out[i].Value, data)
		case ElementQRCode:
			out[i].QRDataURL = qrDataURL
			out[i].QRURL = verificationURL
		}
	}
	return out
}
