package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vfxhub/internal/apperr"
	"github.com/starford/vfxhub/internal/docstore"
	"github.com/starford/vfxhub/internal/models"
	"github.com/starford/vfxhub/internal/recordstore"
	"github.com/starford/vfxhub/internal/storage"
)

func backends(t *testing.T) map[string]Set {
	t.Helper()
	docs, err := NewDocumentSet(docstore.NewMemory(), false)
	require.NoError(t, err)

	db, err := recordstore.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Set{
		"documents": docs.Set(),
		"records":   NewRecordSet(db),
	}
}

func ptr(i int) *int { return &i }

func TestCRUDContract(t *testing.T) {
	ctx := context.Background()
	for name, set := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := set.Milestones

			a, err := repo.Create(ctx, models.Milestone{ID: 50, Title: "Layout", DueDate: "2026-01-01", ProjectID: 1})
			require.NoError(t, err)
			assert.Equal(t, 1, a.ID, "supplied id is replaced")

			b, err := repo.Create(ctx, models.Milestone{Title: "Comp", DueDate: "2026-02-01", ProjectID: 2})
			require.NoError(t, err)
			assert.Equal(t, 2, b.ID)

			got, err := repo.Get(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, a, got)

			list, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []models.Milestone{a, b}, list)

			byProject, err := repo.ListByProject(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, []models.Milestone{b}, byProject)

			updated, err := repo.Update(ctx, 1, map[string]any{"completed": true, "Id": 9}, Version(a))
			require.NoError(t, err)
			assert.True(t, updated.Completed)
			assert.Equal(t, 1, updated.ID)
			assert.Equal(t, "Layout", updated.Title, "unpatched fields kept")

			_, err = repo.Update(ctx, 1, map[string]any{"title": "x"}, Version(a))
			assert.ErrorIs(t, err, apperr.ErrConflict)

			_, err = repo.Update(ctx, 1, map[string]any{"completed": "yes"}, "")
			assert.ErrorIs(t, err, apperr.ErrInvalid)

			require.NoError(t, repo.Delete(ctx, 1, Version(updated)))
			_, err = repo.Get(ctx, 1)
			assert.ErrorIs(t, err, apperr.ErrNotFound)
			assert.EqualError(t, err, "Milestone not found")

			err = repo.Delete(ctx, 1, "")
			assert.ErrorIs(t, err, apperr.ErrNotFound)

			c, err := repo.Create(ctx, models.Milestone{Title: "Delivery"})
			require.NoError(t, err)
			assert.Equal(t, 3, c.ID, "ids continue from the max")
		})
	}
}

func TestAssetsNullableReference(t *testing.T) {
	ctx := context.Background()
	for name, set := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a, err := set.Assets.Create(ctx, models.Asset{FileName: "plate.exr", ProjectID: ptr(3), Tags: []string{"plate"}})
			require.NoError(t, err)
			_, err = set.Assets.Create(ctx, models.Asset{FileName: "loose.png", Tags: []string{}})
			require.NoError(t, err)

			got, err := set.Assets.ListByProject(ctx, 3)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, a.FileName, got[0].FileName)
			assert.Equal(t, []string{"plate"}, got[0].Tags)

			cleared, err := set.Assets.Update(ctx, a.ID, map[string]any{"projectId": nil}, "")
			require.NoError(t, err)
			assert.Nil(t, cleared.ProjectID)
		})
	}
}

func TestProjectsHaveNoReference(t *testing.T) {
	for name, set := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := set.Projects.ListByProject(context.Background(), 1)
			assert.ErrorIs(t, err, apperr.ErrInvalid)
		})
	}
}

func TestDocumentSeedWrittenOnce(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	docs, err := NewDocumentSet(store, true)
	require.NoError(t, err)

	projects, err := docs.Projects.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, projects)

	_, ok, err := store.Get(ctx, models.CollectionProjects)
	require.NoError(t, err)
	assert.True(t, ok, "seed persisted")

	require.NoError(t, docs.Projects.Delete(ctx, projects[0].ID, ""))

	again, err := NewDocumentSet(store, true)
	require.NoError(t, err)
	reloaded, err := again.Projects.List(ctx)
	require.NoError(t, err)
	assert.Len(t, reloaded, len(projects)-1, "existing document is not reseeded")
}

func TestSeedReferencesResolve(t *testing.T) {
	s, err := LoadSeed()
	require.NoError(t, err)
	ids := map[int]bool{}
	for _, p := range s.Projects {
		ids[p.ID] = true
	}
	for _, m := range s.Milestones {
		assert.True(t, ids[m.ProjectID], "milestone %d references project %d", m.ID, m.ProjectID)
	}
}

func TestDocumentReload(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	store := docstore.NewFiles(fs)
	docs, err := NewDocumentSet(store, false)
	require.NoError(t, err)

	_, err = docs.Projects.Create(ctx, models.Project{Title: "Mine"})
	require.NoError(t, err)

	changed, err := docs.Reload(ctx, models.CollectionProjects)
	require.NoError(t, err)
	assert.False(t, changed, "own write is not a change")

	require.NoError(t, store.Put(ctx, models.CollectionProjects, []byte(`[{"Id": 7, "title": "Edited"}]`)))
	changed, err = docs.Reload(ctx, models.CollectionProjects)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := docs.Projects.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.Title)

	require.NoError(t, store.Delete(ctx, models.CollectionProjects))
	changed, err = docs.Reload(ctx, models.CollectionProjects)
	require.NoError(t, err)
	assert.True(t, changed)
	list, err := docs.Projects.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	changed, err = docs.Reload(ctx, "unrelated")
	require.NoError(t, err)
	assert.False(t, changed)
}
