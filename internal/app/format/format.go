// Package format renders canonical responses as the short WhatsApp text
// sent back to the technician.
package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

const (
	maxListed = 10
	maxImages = 5
)

// HelpText is the fixed help block answered to HELP.
const HelpText = `📖 *Aide Agent Lynkia*

*Créer une intervention :*
RAC IMMEUBLE 149041830

*Créer plusieurs :*
RAC 123456
SAV 789012

*Ajouter un commentaire :*
149041830 : client absent

*Ajouter une photo :*
149041830 photo + envoyer l'image

*Modifier :*
MODIFIER 149041830 TYPE SAV
MODIFIER 149041830 DATE 15/01/2026

*Supprimer :*
SUPPRIMER 149041830

*Lister :*
LISTE AUJOURD'HUI
LISTE SEMAINE
LISTE MOIS
LISTE 15/01/2026

*Rechercher :*
CHERCHER 149041830

*Voir les images :*
IMAGES 149041830`

// Format renders r. It is pure: the same response always yields the same text.
func Format(r domain.Response) string {
	return domain.VisitResult[string](r.Data, renderer{})
}

type renderer struct{}

var _ domain.ResultHandler[string] = renderer{}

func (renderer) CreateOne(r domain.CreateOneResult) string {
	return fmt.Sprintf("✅ Intervention créée : %s %s (%s)", r.Type, r.Reference, r.Date)
}

func (renderer) CreateBulk(r domain.CreateBulkResult) string {
	var b strings.Builder
	if r.Count == 0 {
		b.WriteString("⚠️ Aucune intervention créée")
	} else {
		fmt.Fprintf(&b, "✅ %d %s", r.Count, plural(r.Count, "intervention créée", "interventions créées"))
	}
	for _, it := range r.Interventions {
		fmt.Fprintf(&b, "\n• %s %s", it.Type, it.Reference)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "\n\n❌ %d %s :", len(r.Errors), plural(len(r.Errors), "erreur", "erreurs"))
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "\n• %s : %s", e.Reference, e.Error)
		}
	}
	return b.String()
}

func (renderer) AddComment(r domain.AddCommentResult) string {
	return fmt.Sprintf("💬 Commentaire ajouté sur %s", r.Reference)
}

func (renderer) AddImage(r domain.AddImageResult) string {
	return fmt.Sprintf("📸 Image ajoutée sur %s", r.Reference)
}

func (renderer) Update(r domain.UpdateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✏️ Intervention %s modifiée", r.Reference)

	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n• %s : %s", k, r.Fields[k])
	}
	return b.String()
}

func (renderer) Delete(r domain.DeleteResult) string {
	return fmt.Sprintf("🗑️ Intervention %s supprimée", r.Reference)
}

func (renderer) List(r domain.ListResult) string {
	label := scopeLabel(r)
	if r.Count == 0 || len(r.Interventions) == 0 {
		return fmt.Sprintf("📋 Aucune intervention (%s)", label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s : %d %s", label, r.Count, plural(r.Count, "intervention", "interventions"))
	for i, it := range r.Interventions {
		if i == maxListed {
			break
		}
		fmt.Fprintf(&b, "\n• %s %s %s", it.Date, it.Type, it.Reference)
		if it.CommentsCount > 0 {
			fmt.Fprintf(&b, " 💬%d", it.CommentsCount)
		}
		if it.ImagesCount > 0 {
			fmt.Fprintf(&b, " 📸%d", it.ImagesCount)
		}
	}
	b.WriteString(more(len(r.Interventions) - maxListed))
	return b.String()
}

func scopeLabel(r domain.ListResult) string {
	switch r.Scope {
	case domain.ScopeWeek:
		return "cette semaine"
	case domain.ScopeMonth:
		return "ce mois"
	case domain.ScopeDate:
		return "le " + r.Date
	default:
		return "aujourd'hui"
	}
}

func (renderer) Search(r domain.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 %s %s\n📅 %s", r.Type, r.Reference, r.Date)

	n := len(r.Comments)
	if n == 0 {
		b.WriteString("\n💬 Aucun commentaire")
	} else {
		fmt.Fprintf(&b, "\n💬 %d %s :", n, plural(n, "commentaire", "commentaires"))
		for _, c := range r.Comments {
			fmt.Fprintf(&b, "\n• %s", c.Text)
		}
	}
	fmt.Fprintf(&b, "\n📸 %d %s", r.ImagesCount, plural(r.ImagesCount, "image", "images"))
	return b.String()
}

func (renderer) GetImages(r domain.GetImagesResult) string {
	if len(r.Images) == 0 {
		return fmt.Sprintf("🖼️ Aucune image pour %s", r.Reference)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🖼️ %d %s pour %s", len(r.Images), plural(len(r.Images), "image", "images"), r.Reference)
	for i, img := range r.Images {
		if i == maxImages {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, img.URL)
	}
	b.WriteString(more(len(r.Images) - maxImages))
	return b.String()
}

func (renderer) Help(domain.HelpResult) string {
	return HelpText
}

func (renderer) Error(r domain.ErrorResult) string {
	msg := r.Message
	if msg == "" {
		msg = domain.MsgUnknownError
	}
	return "❌ " + msg
}

// plural picks the French form for n: 0 and 1 are singular.
func plural(n int, one, many string) string {
	if n > 1 {
		return many
	}
	return one
}

// more is the truncation suffix for n hidden rows, empty when n <= 0.
func more(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\n… et %d %s", n, plural(n, "autre", "autres"))
}
