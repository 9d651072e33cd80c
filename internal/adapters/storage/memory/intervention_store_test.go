package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/lynkia-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/lynkia-agent/internal/adapters/storage/storagetest"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

func TestInterventionStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) domain.StorageGateway {
		return memory.NewInterventionStore()
	})
}

func TestInterventionStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewInterventionStore()
	_, err := s.Create(ctx, "+33600000000", domain.InterventionItem{Type: "SAV", Reference: "149041830"}, "2026-01-02")
	require.NoError(t, err)
	require.NoError(t, s.AppendComment(ctx, "+33600000000", "149041830", "client absent"))

	got, err := s.Get(ctx, "+33600000000", "149041830")
	require.NoError(t, err)
	got.Type = "RAC"
	got.Comments[0].Text = "modifié"

	again, err := s.Get(ctx, "+33600000000", "149041830")
	require.NoError(t, err)
	assert.Equal(t, "SAV", again.Type)
	assert.Equal(t, "client absent", again.Comments[0].Text)
}

func TestInterventionStoreUsesClock(t *testing.T) {
	at := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	s := memory.NewInterventionStore().WithClock(func() time.Time { return at })

	rec, err := s.Create(context.Background(), "+33600000000", domain.InterventionItem{Type: "SAV", Reference: "149041830"}, "2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, at, rec.CreatedAt)
	assert.Equal(t, at, rec.UpdatedAt)
}
