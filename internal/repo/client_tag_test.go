package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/school-directory/internal/domain"
)

func TestClientTagRepo_Add(t *testing.T) {
	schools, tags := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, schools.UpsertBatch(ctx, []domain.School{schoolFixture("01AB")}))

	by := uuid.New()
	created, err := tags.Add(ctx, "01AB", &by)

	require.NoError(t, err)
	assert.True(t, created)

	got, err := tags.Get(ctx, "01AB")
	require.NoError(t, err)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, by, *got.CreatedBy)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestClientTagRepo_Add_Idempotent(t *testing.T) {
	schools, tags := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, schools.UpsertBatch(ctx, []domain.School{schoolFixture("01AB")}))

	first := uuid.New()
	_, err := tags.Add(ctx, "01AB", &first)
	require.NoError(t, err)
	before, err := tags.Get(ctx, "01AB")
	require.NoError(t, err)

	second := uuid.New()
	created, err := tags.Add(ctx, "01AB", &second)

	require.NoError(t, err)
	assert.False(t, created, "second add must be a no-op")
	after, err := tags.Get(ctx, "01AB")
	require.NoError(t, err)
	assert.Equal(t, first, *after.CreatedBy, "first writer's attribution is kept")
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
}

func TestClientTagRepo_Remove(t *testing.T) {
	schools, tags := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, schools.UpsertBatch(ctx, []domain.School{schoolFixture("01AB")}))
	_, err := tags.Add(ctx, "01AB", nil)
	require.NoError(t, err)

	removed, err := tags.Remove(ctx, "01AB")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = tags.Remove(ctx, "01AB")
	require.NoError(t, err)
	assert.False(t, removed, "removing a missing tag is a no-op")

	_, err = tags.Get(ctx, "01AB")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientTagRepo_ListEntries(t *testing.T) {
	schools, tags := newTestRepos(t)
	ctx := context.Background()

	a := schoolFixture("A")
	a.Name = "Zuiderlicht"
	b := schoolFixture("B")
	b.Name = "Alfa College"
	c := schoolFixture("C")
	require.NoError(t, schools.UpsertBatch(ctx, []domain.School{a, b, c}))
	for _, id := range []string{"A", "B"} {
		_, err := tags.Add(ctx, id, nil)
		require.NoError(t, err)
	}

	entries, err := tags.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Alfa College", entries[0].Name)
	assert.Equal(t, "Zuiderlicht", entries[1].Name)
	assert.Nil(t, entries[0].CreatedBy)

	list, err := tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].SchoolID)
}

// The failed insert aborts the transaction, so nothing may follow it.
func TestClientTagRepo_Add_UnknownSchool(t *testing.T) {
	_, tags := newTestRepos(t)

	_, err := tags.Add(context.Background(), "NOPE", nil)

	assert.ErrorIs(t, err, domain.ErrIntegrity)
}
