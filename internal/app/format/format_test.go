package format_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/lynkia-agent/internal/app/format"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

func TestFormatTemplates(t *testing.T) {
	tests := []struct {
		name string
		resp domain.Response
		want string
	}{
		{
			name: "create one",
			resp: domain.NewResponse(domain.CreateOneResult{Type: "RAC IMMEUBLE", Reference: "149041830", Date: "2026-01-02"}),
			want: "✅ Intervention créée : RAC IMMEUBLE 149041830 (2026-01-02)",
		},
		{
			name: "bulk single",
			resp: domain.NewResponse(domain.CreateBulkResult{
				Count:         1,
				Interventions: []domain.InterventionItem{{Type: "SAV", Reference: "123456"}},
			}),
			want: "✅ 1 intervention créée\n• SAV 123456",
		},
		{
			name: "bulk with errors",
			resp: domain.NewResponse(domain.CreateBulkResult{
				Count: 2,
				Interventions: []domain.InterventionItem{
					{Type: "RAC", Reference: "123456"},
					{Type: "SAV", Reference: "789012"},
				},
				Errors: []domain.BulkItemError{{Reference: "345678", Error: "existe déjà"}},
			}),
			want: "✅ 2 interventions créées\n• RAC 123456\n• SAV 789012\n\n❌ 1 erreur :\n• 345678 : existe déjà",
		},
		{
			name: "comment",
			resp: domain.NewResponse(domain.AddCommentResult{Reference: "149041830", Comment: "client absent"}),
			want: "💬 Commentaire ajouté sur 149041830",
		},
		{
			name: "image",
			resp: domain.NewResponse(domain.AddImageResult{Reference: "149041830"}),
			want: "📸 Image ajoutée sur 149041830",
		},
		{
			name: "update lists fields sorted",
			resp: domain.NewResponse(domain.UpdateResult{
				Reference: "149041830",
				Fields:    map[string]string{"type": "SAV", "date": "2026-01-03"},
			}),
			want: "✏️ Intervention 149041830 modifiée\n• date : 2026-01-03\n• type : SAV",
		},
		{
			name: "delete",
			resp: domain.NewResponse(domain.DeleteResult{Reference: "149041830"}),
			want: "🗑️ Intervention 149041830 supprimée",
		},
		{
			name: "empty list",
			resp: domain.NewResponse(domain.ListResult{Scope: domain.ScopeWeek, Interventions: []domain.InterventionSummary{}}),
			want: "📋 Aucune intervention (cette semaine)",
		},
		{
			name: "list with counts",
			resp: domain.NewResponse(domain.ListResult{
				Scope: domain.ScopeDate,
				Date:  "2026-01-02",
				Count: 1,
				Interventions: []domain.InterventionSummary{
					{Type: "SAV", Reference: "149041830", Date: "2026-01-02", CommentsCount: 2, ImagesCount: 1},
				},
			}),
			want: "📋 le 2026-01-02 : 1 intervention\n• 2026-01-02 SAV 149041830 💬2 📸1",
		},
		{
			name: "search",
			resp: domain.NewResponse(domain.SearchResult{
				Type: "SAV", Reference: "149041830", Date: "2026-01-02",
				Comments:    []domain.Comment{{Text: "client absent"}},
				ImagesCount: 3,
			}),
			want: "🔍 SAV 149041830\n📅 2026-01-02\n💬 1 commentaire :\n• client absent\n📸 3 images",
		},
		{
			name: "no images",
			resp: domain.NewResponse(domain.GetImagesResult{Reference: "149041830", Images: []domain.ImageLink{}}),
			want: "🖼️ Aucune image pour 149041830",
		},
		{
			name: "help",
			resp: domain.NewResponse(domain.HelpResult{}),
			want: format.HelpText,
		},
		{
			name: "error",
			resp: domain.ErrorResponse(domain.MsgEmptyMessage),
			want: "❌ Message vide",
		},
		{
			name: "error without message",
			resp: domain.ErrorResponse(""),
			want: "❌ " + domain.MsgUnknownError,
		},
		{
			name: "nil data",
			resp: domain.Response{},
			want: "❌ " + domain.MsgUnknownError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, format.Format(tc.resp))
		})
	}
}

func TestFormatTruncatesList(t *testing.T) {
	rows := make([]domain.InterventionSummary, 13)
	for i := range rows {
		rows[i] = domain.InterventionSummary{Type: "SAV", Reference: fmt.Sprintf("1000000%02d", i), Date: "2026-01-02"}
	}
	got := format.Format(domain.NewResponse(domain.ListResult{Scope: domain.ScopeToday, Count: len(rows), Interventions: rows}))

	lines := strings.Split(got, "\n")
	assert.Equal(t, "📋 aujourd'hui : 13 interventions", lines[0])
	assert.Len(t, lines, 1+10+1)
	assert.Equal(t, "… et 3 autres", lines[len(lines)-1])
	assert.NotContains(t, got, "100000010")
}

func TestFormatTruncatesImages(t *testing.T) {
	links := make([]domain.ImageLink, 6)
	for i := range links {
		links[i] = domain.ImageLink{URL: fmt.Sprintf("https://img.test/%d", i)}
	}
	got := format.Format(domain.NewResponse(domain.GetImagesResult{Reference: "149041830", Count: 6, Images: links}))

	lines := strings.Split(got, "\n")
	assert.Equal(t, "🖼️ 6 images pour 149041830", lines[0])
	assert.Equal(t, "5. https://img.test/4", lines[5])
	assert.Equal(t, "… et 1 autre", lines[6])
	assert.Len(t, lines, 7)
}

func TestFormatIsIdempotent(t *testing.T) {
	resp := domain.NewResponse(domain.UpdateResult{
		Reference: "149041830",
		Fields:    map[string]string{"type": "SAV", "date": "2026-01-03"},
	})
	assert.Equal(t, format.Format(resp), format.Format(resp))
}
