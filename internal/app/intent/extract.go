package intent

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

const (
	minReferenceLen = 6
	maxReferenceLen = 15
)

// InterventionTypes is the priority list for type detection. A label must
// come before any label that is its prefix ("RACCORDEMENT" before "RAC").
var InterventionTypes = []string{
	"RAC IMMEUBLE",
	"RACCORDEMENT",
	"RAC",
	"SAV",
	"RECO",
	"PRESTA",
	"MAINTENANCE",
	"INSTALLATION",
}

var (
	dayFirstDate = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)
	isoDate      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// words splits text on anything that is not a letter, a digit or '_'.
// Accented letters stay inside their word, so "RÉCAPITULATIF" never
// yields "CAPITULATIF".
func words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}

func isReferenceLen(w string) bool {
	return len(w) >= minReferenceLen && len(w) <= maxReferenceLen
}

func isDigits(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isASCIIAlnum(w string) bool {
	for _, r := range w {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

// ExtractReference returns the first whole word of 6 to 15 alphanumeric
// characters. Purely numeric words are tried first; alphanumeric ones are
// returned upper-cased. Empty string means no reference.
func ExtractReference(text string) string {
	ws := words(text)
	for _, w := range ws {
		if isReferenceLen(w) && isDigits(w) {
			return w
		}
	}
	for _, w := range ws {
		if isReferenceLen(w) && isASCIIAlnum(w) {
			return strings.ToUpper(w)
		}
	}
	return ""
}

// ExtractInterventionType returns the first label of InterventionTypes found
// in the upper-cased text.
func ExtractInterventionType(text string) string {
	upper := strings.ToUpper(text)
	for _, t := range InterventionTypes {
		if strings.Contains(upper, t) {
			return t
		}
	}
	return ""
}

// ExtractDate recognises DD/MM/YYYY (returned as YYYY-MM-DD) and
// YYYY-MM-DD. The day-first form is looked for first.
func ExtractDate(text string) string {
	if m := dayFirstDate.FindStringSubmatch(text); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	if m := isoDate.FindString(text); m != "" {
		return m
	}
	return ""
}

// dateOrToday substitutes the TODAY placeholder for a missing date.
func dateOrToday(text string) string {
	if d := ExtractDate(text); d != "" {
		return d
	}
	return domain.DateToday
}
