package conversation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/lynkia-agent/internal/adapters/llm"
	"github.com/PabloGalante/lynkia-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/lynkia-agent/internal/app/conversation"
	"github.com/PabloGalante/lynkia-agent/internal/app/executor"
	"github.com/PabloGalante/lynkia-agent/internal/app/fallback"
	"github.com/PabloGalante/lynkia-agent/internal/app/format"
	"github.com/PabloGalante/lynkia-agent/internal/app/intent"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

var fixedNow = time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)

func newService(t *testing.T, model domain.LanguageModelClassifier) (*conversation.Service, *memory.InterventionStore) {
	t.Helper()

	clock := func() time.Time { return fixedNow }
	store := memory.NewInterventionStore().WithClock(clock)
	exec := executor.New(store, nil, nil, executor.Options{Now: clock})

	var resolver *fallback.Resolver
	if model != nil {
		resolver = fallback.NewResolver(model, llm.SystemGrammar(), time.Second)
	}
	return conversation.NewService(intent.NewClassifier(), resolver, exec), store
}

func TestProcessCreateThenComment(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, nil)

	out := svc.Process(ctx, conversation.ProcessInput{Phone: "whatsapp:+33600000000", Text: "Rac immeuble 149041830"})
	require.Equal(t, domain.ActionCreateOne, out.Response.Action)
	assert.Equal(t, "rules", out.Source)
	assert.Equal(t, "✅ Intervention créée : RAC IMMEUBLE 149041830 (2026-01-02)", out.Reply)

	rec, err := store.Get(ctx, "+33600000000", "149041830")
	require.NoError(t, err, "phone is stored without the whatsapp: prefix")
	assert.Equal(t, "2026-01-02", rec.Date)

	out = svc.Process(ctx, conversation.ProcessInput{Phone: "+33600000000", Text: "149041830 : client absent"})
	assert.Equal(t, domain.ActionAddComment, out.Response.Action)
	assert.Equal(t, "💬 Commentaire ajouté sur 149041830", out.Reply)
}

func TestProcessHelpAndEmpty(t *testing.T) {
	svc, _ := newService(t, nil)

	out := svc.Process(context.Background(), conversation.ProcessInput{Phone: "+33600000000", Text: "aide"})
	assert.Equal(t, domain.ActionHelp, out.Response.Action)
	assert.Equal(t, format.HelpText, out.Reply)

	out = svc.Process(context.Background(), conversation.ProcessInput{Phone: "+33600000000", Text: "   "})
	assert.Equal(t, domain.ErrorResponse(domain.MsgEmptyMessage), out.Response)
	assert.Equal(t, "❌ Message vide", out.Reply)
}

func TestProcessAmbiguousWithoutModel(t *testing.T) {
	svc, _ := newService(t, nil)

	out := svc.Process(context.Background(), conversation.ProcessInput{Phone: "+33600000000", Text: "bonjour tout le monde"})
	assert.Equal(t, "llm", out.Source)
	assert.Equal(t, domain.ErrorResponse(domain.MsgAssistantUnavailable), out.Response)
}

func TestProcessAmbiguousUsesModel(t *testing.T) {
	model := llm.NewMockClassifier().On("le client de ce matin était absent",
		`{"action": "LIST", "data": {"scope": "TODAY"}}`)
	svc, store := newService(t, model)
	_, err := store.Create(context.Background(), "+33600000000", domain.InterventionItem{Type: "SAV", Reference: "149041830"}, "2026-01-02")
	require.NoError(t, err)

	out := svc.Process(context.Background(), conversation.ProcessInput{Phone: "+33600000000", Text: "le client de ce matin était absent"})
	assert.Equal(t, "llm", out.Source)
	require.Equal(t, domain.ActionList, out.Response.Action)
	assert.Equal(t, 1, out.Response.Data.(domain.ListResult).Count)
	assert.Equal(t, []string{"le client de ce matin était absent"}, model.Calls())
}

func TestProcessModelReferenceIsValidated(t *testing.T) {
	ctx := context.Background()
	model := llm.NewMockClassifier().
		On("crée celle-là", `{"action":"CREATE_ONE","data":{"type":"SAV","reference":"x/../y"}}`).
		On("où en est ab12cd34", `{"action":"SEARCH","data":{"reference":"ab12cd34"}}`)
	svc, store := newService(t, model)

	out := svc.Process(ctx, conversation.ProcessInput{Phone: "+33600000000", Text: "crée celle-là"})
	assert.Equal(t, domain.ErrorResponse(domain.MsgInvalidAIResponse), out.Response)
	recs, err := store.List(ctx, "+33600000000", domain.ListQuery{Scope: domain.ScopeMonth, Since: "2026-01-01"})
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = store.Create(ctx, "+33600000000", domain.InterventionItem{Type: "SAV", Reference: "AB12CD34"}, "2026-01-02")
	require.NoError(t, err)
	out = svc.Process(ctx, conversation.ProcessInput{Phone: "+33600000000", Text: "où en est ab12cd34"})
	require.Equal(t, domain.ActionSearch, out.Response.Action)
	assert.Equal(t, "AB12CD34", out.Response.Data.(domain.SearchResult).Reference)
}

func TestProcessMediaWithoutReference(t *testing.T) {
	svc, _ := newService(t, nil)

	out := svc.Process(context.Background(), conversation.ProcessInput{
		Phone:    "+33600000000",
		HasMedia: true,
		MediaURL: "https://api.twilio.test/Media/ME1",
	})
	assert.Equal(t, domain.ErrorResponse(domain.MsgMediaWithoutReference), out.Response)
}

func TestProcessWithoutExecutor(t *testing.T) {
	svc := conversation.NewService(nil, nil, nil)

	out := svc.Process(context.Background(), conversation.ProcessInput{Phone: "+33600000000", Text: "SUPPRIMER 149041830"})
	assert.Equal(t, domain.ErrorResponse(domain.MsgStorageUnavailable), out.Response)
}
