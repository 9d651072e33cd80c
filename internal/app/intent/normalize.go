package intent

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Message is a technician message prepared for the detectors.
type Message struct {
	// Raw is the trimmed original text, used for comment and reference
	// extraction.
	Raw string
	// Upper is the upper-cased copy used for keyword and type matching.
	Upper string
	// HasMedia is true when the message carried an attachment.
	HasMedia bool
}

// Normalize trims the text and builds the upper-cased matching copy.
// Text is put in NFC first: some phones send accents decomposed, which
// would otherwise miss keywords like DÉTAIL.
func Normalize(text string, hasMedia bool) Message {
	raw := strings.TrimSpace(norm.NFC.String(text))
	return Message{
		Raw:      raw,
		Upper:    strings.ToUpper(raw),
		HasMedia: hasMedia,
	}
}

func (m Message) Empty() bool {
	return m.Raw == ""
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	for _, w := range words(s) {
		if w == word {
			return true
		}
	}
	return false
}
