// Package storagetest holds the behaviour every domain.StorageGateway
// implementation must share. Backends call Run from their own tests.
package storagetest

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) domain.StorageGateway

const (
	phone      = "+33600000000"
	otherPhone = "+33700000000"
)

func Run(t *testing.T, newStore Factory) {
	t.Run("CreateThenGet", func(t *testing.T) { testCreateThenGet(t, newStore(t)) })
	t.Run("CreateRefusesActiveDuplicate", func(t *testing.T) { testCreateDuplicate(t, newStore(t)) })
	t.Run("CreateReplacesDeleted", func(t *testing.T) { testCreateReplacesDeleted(t, newStore(t)) })
	t.Run("ConcurrentCreateSingleWinner", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
	t.Run("CreateMany", func(t *testing.T) { testCreateMany(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("ListFilters", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("SoftDelete", func(t *testing.T) { testSoftDelete(t, newStore(t)) })
	t.Run("Comments", func(t *testing.T) { testComments(t, newStore(t)) })
	t.Run("Images", func(t *testing.T) { testImages(t, newStore(t)) })
}

func create(t *testing.T, s domain.StorageGateway, p, typ, ref, date string) {
	t.Helper()
	_, err := s.Create(context.Background(), p, domain.InterventionItem{Type: typ, Reference: ref}, date)
	require.NoError(t, err)
}

func testCreateThenGet(t *testing.T, s domain.StorageGateway) {
	ctx := context.Background()

	rec, err := s.Create(ctx, phone, domain.InterventionItem{Type: "RAC IMMEUBLE", Reference: "149041830"}, "2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, "RAC IMMEUBLE", rec.Type)
	assert.Equal(t, domain.StatusActive, rec.Status)

	got, err := s.Get(ctx, phone, "149041830")
	require.NoError(t, err)
	assert.Equal(t, phone, got.Phone)
	assert.Equal(t, "149041830", got.Reference)
	assert.Equal(t, "RAC IMMEUBLE", got.Type)
	assert.Equal(t, "2026-01-02", got.Date)
	assert.Empty(t, got.Comments)
	assert.Empty(t, got.Images)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.Get(ctx, otherPhone, "149041830")
	assert.ErrorIs(t, err, domain.ErrNotFound, "records are scoped per technician")
}

func testCreateDuplicate(t *testing.T, s domain.StorageGateway) {
	create(t, s, phone, "SAV", "149041830", "2026-01-02")

	_, err := s.Create(context.Background(), phone, domain.InterventionItem{Type: "RAC", Reference: "149041830"}, "2026-01-03")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := s.Get(context.Background(), phone, "149041830")
	require.NoError(t, err)
	assert.Equal(t, "SAV", got.Type)
}

func testCreateReplacesDeleted(t *testing.T, s domain.StorageGateway) {
	ctx := context.Background()
	create(t, s, phone, "SAV", "149041830", "2026-01-02")
	require.NoError(t, s.AppendComment(ctx, phone, "149041830", "ancien"))
	require.NoError(t, s.SoftDelete(ctx, phone, "149041830"))

	create(t, s, phone, "RAC", "149041830", "2026-01-03")

	got, err := s.Get(ctx, phone, "149041830")
	require.NoError(t, err)
	assert.Equal(t, "RAC", got.Type)
	assert.Empty(t, got.Comments)
}

func testConcurrentCreate(t *testing.T, s domain.StorageGateway) {
	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(context.Background(), phone, domain.InterventionItem{Type: "SAV", Reference: "149041830"}, "2026-01-02")
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func testCreateMany(t *testing.T, s domain.StorageGateway) {
	create(t, s, phone, "SAV", "100000001", "2026-01-01")

	created, errs, err := s.CreateMany(context.Background(), phone, []domain.InterventionItem{
		{Type: "RAC", Reference: "100000001"},
		{Type: "SAV", Reference: "100000002"},
		{Type: "RECO", Reference: "100000003"},
	}, "2026-01-02")
	require.NoError(t, err)

	assert.Equal(t, []domain.InterventionItem{
		{Type: "SAV", Reference: "100000002"},
		{Type: "RECO", Reference: "100000003"},
	}, created)
	require.Len(t, errs, 1)
	assert.Equal(t, "100000001", errs[0].Reference)
	assert.NotEmpty(t, errs[0].Error)
}

func testGetMissing(t *testing.T, s domain.StorageGateway) {
	_, err := s.Get(context.Background(), phone, "999999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func refs(recs []*domain.Intervention) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Reference)
	}
	sort.Strings(out)
	return out
}

func testList(t *testing.T, s domain.StorageGateway) {
	ctx := context.Background()
	create(t, s, phone, "SAV", "100000001", "2025-12-28")
	create(t, s, phone, "RAC", "100000002", "2025-12-29")
	create(t, s, phone, "SAV", "100000003", "2026-01-02")
	create(t, s, phone, "RECO", "100000004", "2026-01-02")
	create(t, s, otherPhone, "SAV", "100000005", "2026-01-02")
	require.NoError(t, s.SoftDelete(ctx, phone, "100000004"))

	recs, err := s.List(ctx, phone, domain.ListQuery{Scope: domain.ScopeToday, Exact: "2026-01-02"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100000003"}, refs(recs))

	recs, err = s.List(ctx, phone, domain.ListQuery{Scope: domain.ScopeWeek, Since: "2025-12-29"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100000002", "100000003"}, refs(recs))

	recs, err = s.List(ctx, phone, domain.ListQuery{Scope: domain.ScopeMonth, Since: "2026-01-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100000003"}, refs(recs))

	recs, err = s.List(ctx, otherPhone, domain.ListQuery{Scope: domain.ScopeDate, Exact: "2026-01-02"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100000005"}, refs(recs))
}

func testUpdate(t *testing.T, s domain.StorageGateway) {
	ctx := context.Background()
	create(t, s, phone, "SAV", "149041830", "2026-01-02")

	typ, date := "RAC", "2026-01-05"
	require.NoError(t, s.Update(ctx, phone, "149041830", domain.UpdateFields{Type: &typ}))
	require.NoError(t, s.Update(ctx, phone, "149041830", domain.UpdateFields{Date: &date}))

	got, err := s.Get(ctx, phone, "149041830")
	require.NoError(t, err)
	assert.Equal(t, "RAC", got.Type)
	assert.Equal(t, "2026-01-05", got.Date)

	assert.ErrorIs(t, s.Update(ctx, phone, "999999999", domain.UpdateFields{Type: &typ}), domain.ErrNotFound)
}

func testSoftDelete(t *testing.T, s domain.StorageGateway) {
	ctx := context.Background()
	create(t, s, phone, "SAV", "149041830", "2026-01-02")

	require.NoError(t, s.SoftDelete(ctx, phone, "149041830"))

	_, err := s.Get(ctx, phone, "149041830")
	assert.ErrorIs(t, err, domain.ErrDeleted)

	typ := "RAC"
	assert.ErrorIs(t, s.Update(ctx, phone, "149041830", domain.UpdateFields{Type: &typ}), domain.ErrDeleted)
	assert.ErrorIs(t, s.AppendComment(ctx, phone, "149041830", "x"), domain.ErrDeleted)
	assert.ErrorIs(t, s.SoftDelete(ctx, phone, "999999999"), domain.ErrNotFound)
}

func testComments(t *testing.T, s domain.StorageGateway) {
	ctx := context.Background()
	create(t, s, phone, "SAV", "149041830", "2026-01-02")

	require.NoError(t, s.AppendComment(ctx, phone, "149041830", "client absent"))
	require.NoError(t, s.AppendComment(ctx, phone, "149041830", "reprise demain"))

	got, err := s.Get(ctx, phone, "149041830")
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "client absent", got.Comments[0].Text)
	assert.Equal(t, "reprise demain", got.Comments[1].Text)

	assert.ErrorIs(t, s.AppendComment(ctx, phone, "999999999", "x"), domain.ErrNotFound)
}

func testImages(t *testing.T, s domain.StorageGateway) {
	ctx := context.Background()
	create(t, s, phone, "SAV", "149041830", "2026-01-02")

	imgs, err := s.ListImageRefs(ctx, phone, "149041830")
	require.NoError(t, err)
	assert.Empty(t, imgs)

	require.NoError(t, s.AppendImageRef(ctx, phone, "149041830", "a.jpg"))
	require.NoError(t, s.AppendImageRef(ctx, phone, "149041830", "b.png"))

	imgs, err = s.ListImageRefs(ctx, phone, "149041830")
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, "a.jpg", imgs[0].Key)
	assert.Equal(t, "b.png", imgs[1].Key)

	got, err := s.Get(ctx, phone, "149041830")
	require.NoError(t, err)
	assert.Len(t, got.Images, 2)

	_, err = s.ListImageRefs(ctx, phone, "999999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
