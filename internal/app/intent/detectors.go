package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

// DetectFunc inspects a message and either claims it (ok == true) or
// declines so the next detector runs.
type DetectFunc func(m Message) (p domain.Payload, ok bool)

// Detector is a named step of the cascade.
type Detector struct {
	Name   string
	Detect DetectFunc
}

// Keyword tables, matched against the upper-cased text.
var (
	helpKeywords      = []string{"AIDE", "AIDER", "AIDEZ", "HELP", "?"}
	deleteKeywords    = []string{"SUPPRIMER", "SUPPR", "ANNULER", "DELETE", "EFFACER"}
	updateKeywords    = []string{"MODIFIER", "MODIF", "CORRIGER", "CHANGER", "UPDATE"}
	todayKeywords     = []string{"AUJOURD'HUI", "AUJOURD’HUI", "AUJOURDHUI"}
	monthKeywords     = []string{"MOIS"}
	weekKeywords      = []string{"SEMAINE"}
	listKeywords      = []string{"LISTE", "LISTER"}
	searchKeywords    = []string{"CHERCHER", "RECHERCHER", "VOIR", "DETAIL", "DÉTAIL", "TROUVER"}
	getImagesKeywords = []string{"IMAGES", "PHOTOS", "VOIR PHOTO", "VOIR IMAGE"}
	addImageKeywords  = []string{"PHOTO", "IMAGE", "📸", "📷", "🖼"}
)

// helpMaxLen bounds HELP detection to short messages (in characters).
const helpMaxLen = 50

var (
	updateTypeClause = regexp.MustCompile(`TYPE\s+([A-Z\s]+)`)
	updateDateClause = regexp.MustCompile(`DATE\s+(\d{2}/\d{2}/\d{4}|\d{4}-\d{2}-\d{2})`)
)

func detectEmpty(m Message) (domain.Payload, bool) {
	if !m.Empty() {
		return nil, false
	}
	if m.HasMedia {
		return domain.ErrorPayload{Message: domain.MsgMediaWithoutReference}, true
	}
	return domain.ErrorPayload{Message: domain.MsgEmptyMessage}, true
}

// "COMMENT" must be a whole word: "commentaire" is not a help request.
func detectHelp(m Message) (domain.Payload, bool) {
	if utf8.RuneCountInString(m.Raw) >= helpMaxLen {
		return nil, false
	}
	if containsAny(m.Upper, helpKeywords...) || containsWord(m.Upper, "COMMENT") {
		return domain.HelpPayload{}, true
	}
	return nil, false
}

// An attachment ends the cascade whatever the caption says.
func detectMedia(m Message) (domain.Payload, bool) {
	if !m.HasMedia {
		return nil, false
	}
	if ref := ExtractReference(m.Raw); ref != "" {
		return domain.AddImagePayload{Reference: ref}, true
	}
	return domain.ErrorPayload{Message: domain.MsgMediaWithoutReference}, true
}

func detectDelete(m Message) (domain.Payload, bool) {
	if !containsAny(m.Upper, deleteKeywords...) {
		return nil, false
	}
	ref := ExtractReference(m.Raw)
	if ref == "" {
		return nil, false
	}
	return domain.DeletePayload{Reference: ref}, true
}

// detectUpdate declines when no TYPE or DATE clause is present, leaving the
// message to the rest of the cascade.
func detectUpdate(m Message) (domain.Payload, bool) {
	if !containsAny(m.Upper, updateKeywords...) {
		return nil, false
	}
	ref := ExtractReference(m.Raw)
	if ref == "" {
		return nil, false
	}

	fields := map[string]string{}
	if t := updateType(m.Upper); t != "" {
		fields["type"] = t
	}
	if sm := updateDateClause.FindStringSubmatch(m.Upper); sm != nil {
		if d := ExtractDate(sm[1]); d != "" {
			fields["date"] = d
		}
	}
	if len(fields) == 0 {
		return nil, false
	}
	return domain.UpdatePayload{Reference: ref, Fields: fields}, true
}

// updateType reads the value of a "TYPE <value>" clause: a known label if
// one appears in it, otherwise its first word.
func updateType(upper string) string {
	sm := updateTypeClause.FindStringSubmatch(upper)
	if sm == nil {
		return ""
	}
	candidate := strings.TrimSpace(sm[1])
	if candidate == "" {
		return ""
	}
	for _, t := range InterventionTypes {
		if strings.Contains(candidate, t) {
			return t
		}
	}
	return strings.Fields(candidate)[0]
}

func detectList(m Message) (domain.Payload, bool) {
	switch {
	case containsAny(m.Upper, todayKeywords...):
		return domain.ListPayload{Scope: domain.ScopeToday}, true
	case containsAny(m.Upper, monthKeywords...):
		return domain.ListPayload{Scope: domain.ScopeMonth}, true
	case containsAny(m.Upper, listKeywords...):
		if containsAny(m.Upper, weekKeywords...) {
			return domain.ListPayload{Scope: domain.ScopeWeek}, true
		}
		if d := ExtractDate(m.Raw); d != "" {
			return domain.ListPayload{Scope: domain.ScopeDate, Date: d}, true
		}
		return domain.ListPayload{Scope: domain.ScopeToday}, true
	}
	return nil, false
}

func referenceWithKeyword(m Message, keywords []string) string {
	if !containsAny(m.Upper, keywords...) {
		return ""
	}
	return ExtractReference(m.Raw)
}

func detectSearch(m Message) (domain.Payload, bool) {
	if ref := referenceWithKeyword(m, searchKeywords); ref != "" {
		return domain.SearchPayload{Reference: ref}, true
	}
	return nil, false
}

func detectGetImages(m Message) (domain.Payload, bool) {
	if ref := referenceWithKeyword(m, getImagesKeywords); ref != "" {
		return domain.GetImagesPayload{Reference: ref}, true
	}
	return nil, false
}

func detectAddImageKeyword(m Message) (domain.Payload, bool) {
	if ref := referenceWithKeyword(m, addImageKeywords); ref != "" {
		return domain.AddImagePayload{Reference: ref}, true
	}
	return nil, false
}

// detectCreateBulk needs at least two lines that each carry a type and a
// reference. Other lines (greetings, a date header) are ignored.
func detectCreateBulk(m Message) (domain.Payload, bool) {
	var lines []string
	for _, l := range strings.Split(m.Raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return nil, false
	}

	var items []domain.InterventionItem
	for _, l := range lines {
		t := ExtractInterventionType(l)
		ref := ExtractReference(l)
		if t != "" && ref != "" {
			items = append(items, domain.InterventionItem{Type: t, Reference: ref})
		}
	}
	if len(items) < 2 {
		return nil, false
	}
	return domain.CreateBulkPayload{Date: dateOrToday(m.Raw), Interventions: items}, true
}

func detectCreateOne(m Message) (domain.Payload, bool) {
	t := ExtractInterventionType(m.Upper)
	ref := ExtractReference(m.Raw)
	if t == "" || ref == "" {
		return nil, false
	}
	return domain.CreateOnePayload{Date: dateOrToday(m.Raw), Type: t, Reference: ref}, true
}

// minCommentLen is exclusive: a comment must be longer than this.
const minCommentLen = 2

func detectAddComment(m Message) (domain.Payload, bool) {
	ref := ExtractReference(m.Raw)
	if ref == "" {
		return nil, false
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(ref) + `\s*[:\-]\s*(.+)`)
	sm := re.FindStringSubmatch(m.Raw)
	if sm == nil {
		return nil, false
	}
	comment := strings.TrimSpace(sm[1])
	if utf8.RuneCountInString(comment) <= minCommentLen {
		return nil, false
	}
	return domain.AddCommentPayload{Reference: ref, Comment: comment}, true
}
