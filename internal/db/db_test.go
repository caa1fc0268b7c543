package db

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/binge/internal/model"
	"github.com/existflow/binge/internal/search"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "binge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// seed creates n projects with m items each
func seed(t *testing.T, store *DB, n, m int) []model.Project {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	var projects []model.Project
	for i := 0; i < n; i++ {
		p, err := store.CreateProject(ctx, NewProject{
			Title:        model.StringPtr(fmt.Sprintf("Project %d", i+1)),
			CreationDate: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		for j := 0; j < m; j++ {
			_, err := store.CreateItem(ctx, NewItem{
				ProjectID:    p.ID,
				Title:        model.StringPtr(fmt.Sprintf("Item %d", j+1)),
				Priority:     model.PriorityLow + j%3,
				CreationDate: p.CreationDate.Add(time.Duration(j) * time.Minute),
			})
			require.NoError(t, err)
		}
		projects = append(projects, p)
	}
	return projects
}

func TestOpenCreatesEmptyStore(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	n, err := store.CountProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = store.CountItems(ctx, ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestProjectRoundTripDefaults(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	created, err := store.CreateProject(ctx, NewProject{})
	require.NoError(t, err)
	store.Save()

	p, err := store.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Project", model.ProjectTitle(p))
	assert.Equal(t, "", model.ProjectDetail(p))
	assert.Equal(t, "Light Blue", model.ProjectColor(p))
	assert.False(t, p.Closed)
	assert.Nil(t, p.ReminderTime)
	assert.True(t, created.CreationDate.Equal(p.CreationDate))
	assert.Empty(t, p.Items)
}

func TestItemRoundTrip(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, NewProject{Title: model.StringPtr("Groceries")})
	require.NoError(t, err)

	created, err := store.CreateItem(ctx, NewItem{ProjectID: p.ID, Priority: model.PriorityHigh})
	require.NoError(t, err)

	it, err := store.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Item", model.ItemTitle(it))
	assert.Equal(t, p.ID, it.ProjectID)
	assert.Equal(t, model.PriorityHigh, it.Priority)
	assert.False(t, it.Completed)

	got, err := store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, created.ID, got.Items[0].ID)
}

func TestCreateItemInvalidReference(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	_, err := store.CreateItem(ctx, NewItem{ProjectID: "missing"})
	assert.ErrorIs(t, err, model.ErrInvalidReference)
	assert.False(t, store.HasChanges())

	n, err := store.CountItems(ctx, ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUpdateItemInvalidReference(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	projects := seed(t, store, 1, 1)

	list, err := store.QueryItems(ctx, ItemQuery{Filter: ItemFilter{ProjectID: projects[0].ID}})
	require.NoError(t, err)
	require.Len(t, list, 1)

	err = store.UpdateItem(ctx, list[0].ID, ItemUpdate{ProjectID: model.StringPtr("missing"), Title: model.StringPtr("moved")})
	assert.ErrorIs(t, err, model.ErrInvalidReference)

	it, err := store.GetItem(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Item 1", model.ItemTitle(it))
}

func TestUnknownIDsAreNotFound(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	_, err := store.GetProject(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.GetItem(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, store.UpdateProject(ctx, "nope", ProjectUpdate{Closed: model.BoolPtr(true)}), model.ErrNotFound)
	assert.ErrorIs(t, store.UpdateItem(ctx, "nope", ItemUpdate{Completed: model.BoolPtr(true)}), model.ErrNotFound)
	assert.ErrorIs(t, store.DeleteProject(ctx, "nope"), model.ErrNotFound)
	assert.ErrorIs(t, store.DeleteItem(ctx, "nope"), model.ErrNotFound)
}

func TestDeleteProjectCascades(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	projects := seed(t, store, 5, 10)
	store.Save()

	var changes []Change
	store.OnChange(func(c Change) { changes = append(changes, c) })

	require.NoError(t, store.DeleteProject(ctx, projects[2].ID))

	n, err := store.CountProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = store.CountItems(ctx, ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, 40, n)

	n, err = store.CountItems(ctx, ItemFilter{ProjectID: projects[2].ID})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.Len(t, changes, 11)
	for _, c := range changes[:10] {
		assert.Equal(t, KindItem, c.Kind)
		assert.Equal(t, OpDeleted, c.Op)
		assert.Equal(t, projects[2].ID, c.ProjectID)
	}
	assert.Equal(t, Change{Kind: KindProject, Op: OpDeleted, ID: projects[2].ID, ProjectID: projects[2].ID}, changes[10])
}

func TestDeleteAll(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	seed(t, store, 3, 4)

	deleted := map[Kind]int{}
	store.OnChange(func(c Change) {
		if c.Op == OpDeleted {
			deleted[c.Kind]++
		}
	})

	require.NoError(t, store.DeleteAll(ctx))
	store.Save()

	assert.Equal(t, 3, deleted[KindProject])
	assert.Equal(t, 12, deleted[KindItem])

	n, err := store.CountProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = store.CountItems(ctx, ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSaveOnlyWhenDirty(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	assert.False(t, store.HasChanges())
	require.NoError(t, store.Flush())

	_, err := store.CreateProject(ctx, NewProject{})
	require.NoError(t, err)
	assert.True(t, store.HasChanges())

	require.NoError(t, store.Flush())
	assert.False(t, store.HasChanges())

	store.Save()
	assert.False(t, store.HasChanges())
}

func TestPendingEditsVisibleAndDiscardable(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, NewProject{})
	require.NoError(t, err)

	_, err = store.GetProject(ctx, p.ID)
	require.NoError(t, err, "reads see uncommitted edits")

	store.Discard()
	_, err = store.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSavedChangesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binge.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	p, err := store.CreateProject(ctx, NewProject{Title: model.StringPtr("Keep me")})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep me", model.ProjectTitle(got))
}

func TestUpdateProject(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, NewProject{})
	require.NoError(t, err)

	at := model.TimeOfDay{Hour: 8, Minute: 30}
	require.NoError(t, store.UpdateProject(ctx, p.ID, ProjectUpdate{
		Title:        model.StringPtr("Garden"),
		Color:        model.StringPtr("Green"),
		Closed:       model.BoolPtr(true),
		ReminderTime: &at,
	}))

	got, err := store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garden", model.ProjectTitle(got))
	assert.Equal(t, "Green", model.ProjectColor(got))
	assert.True(t, got.Closed)
	require.NotNil(t, got.ReminderTime)
	assert.Equal(t, at, *got.ReminderTime)

	require.NoError(t, store.UpdateProject(ctx, p.ID, ProjectUpdate{ClearReminder: true}))
	got, err = store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReminderTime)
	assert.Equal(t, "Garden", model.ProjectTitle(got))
}

func TestCountAndQueryFilters(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	projects := seed(t, store, 2, 3)

	require.NoError(t, store.UpdateProject(ctx, projects[1].ID, ProjectUpdate{Closed: model.BoolPtr(true)}))

	first, err := store.GetProject(ctx, projects[0].ID)
	require.NoError(t, err)
	require.NoError(t, store.UpdateItem(ctx, first.Items[0].ID, ItemUpdate{Completed: model.BoolPtr(true)}))

	n, err := store.CountProjects(ctx, ProjectFilter{Closed: model.BoolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.CountItems(ctx, ItemFilter{Completed: model.BoolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	items, err := store.QueryItems(ctx, ItemQuery{
		Filter: ItemFilter{Completed: model.BoolPtr(false), ProjectClosed: model.BoolPtr(false)},
		Sort:   ItemsByPriority,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Item 3", model.ItemTitle(items[0]))
	assert.Equal(t, "Item 2", model.ItemTitle(items[1]))

	open, err := store.QueryProjects(ctx, ProjectQuery{Filter: ProjectFilter{Closed: model.BoolPtr(false)}})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Len(t, open[0].Items, 3)
}

func TestQueryOrdering(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	projects := seed(t, store, 3, 0)

	byCreation, err := store.QueryProjects(ctx, ProjectQuery{Sort: ProjectsByCreationDesc})
	require.NoError(t, err)
	require.Len(t, byCreation, 3)
	assert.Equal(t, projects[2].ID, byCreation[0].ID)
	assert.Equal(t, projects[0].ID, byCreation[2].ID)

	limited, err := store.QueryProjects(ctx, ProjectQuery{Sort: ProjectsByTitle, Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "Project 1", model.ProjectTitle(limited[0]))
}

func TestUnsetPriorityRanksAsLow(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p, err := store.CreateProject(ctx, NewProject{})
	require.NoError(t, err)
	unset, err := store.CreateItem(ctx, NewItem{ProjectID: p.ID, CreationDate: base})
	require.NoError(t, err)
	low, err := store.CreateItem(ctx, NewItem{ProjectID: p.ID, Priority: model.PriorityLow, CreationDate: base.Add(time.Second)})
	require.NoError(t, err)
	high, err := store.CreateItem(ctx, NewItem{ProjectID: p.ID, Priority: model.PriorityHigh, CreationDate: base.Add(2 * time.Second)})
	require.NoError(t, err)

	items, err := store.QueryItems(ctx, ItemQuery{Sort: ItemsByPriority})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{high.ID, unset.ID, low.ID}, []string{items[0].ID, items[1].ID, items[2].ID})
}

func TestSettings(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	unlocked, err := store.GetBool(ctx, SettingFullVersionUnlocked)
	require.NoError(t, err)
	assert.False(t, unlocked)

	require.NoError(t, store.SetBool(ctx, SettingFullVersionUnlocked, true))
	unlocked, err = store.GetBool(ctx, SettingFullVersionUnlocked)
	require.NoError(t, err)
	assert.True(t, unlocked)

	require.NoError(t, store.SetSetting(ctx, "last_sync", "42"))
	v, ok, err := store.GetSetting(ctx, "last_sync")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestReminders(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.PutReminder(ctx, Reminder{ProjectID: "p2", Title: "Later", Time: model.TimeOfDay{Hour: 18}}))
	require.NoError(t, store.PutReminder(ctx, Reminder{ProjectID: "p1", Title: "Morning", Time: model.TimeOfDay{Hour: 7, Minute: 15}}))
	require.NoError(t, store.MarkReminderFired(ctx, "p1", "2024-05-01"))

	list, err := store.Reminders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ProjectID)
	assert.Equal(t, "2024-05-01", list[0].LastFired)

	require.NoError(t, store.PutReminder(ctx, Reminder{ProjectID: "p1", Title: "Morning", Time: model.TimeOfDay{Hour: 7, Minute: 30}}))
	require.NoError(t, store.DeleteReminder(ctx, "p2"))

	list, err = store.Reminders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 30, list[0].Time.Minute)
	assert.Empty(t, list[0].LastFired)
}

func TestSearchIndex(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	idx := store.SearchIndex()

	require.NoError(t, idx.Index(ctx,
		search.Record{UniqueID: "a", GroupID: "p1", Title: "Milk", Description: "semi skimmed"},
		search.Record{UniqueID: "b", GroupID: "p1", Title: "Bread"},
		search.Record{UniqueID: "c", GroupID: "p2", Title: "Mileage log"},
	))

	found, err := idx.Search(ctx, "mil", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = idx.Search(ctx, `skim "milk`, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a", found[0].UniqueID)

	require.NoError(t, idx.Index(ctx, search.Record{UniqueID: "a", GroupID: "p1", Title: "Oat milk"}))
	found, err = idx.Search(ctx, "oat", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, idx.DeleteGroups(ctx, "p1"))
	found, err = idx.Search(ctx, "mil", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "c", found[0].UniqueID)

	require.NoError(t, idx.DeleteIDs(ctx, "c"))
	found, err = idx.Search(ctx, "mil", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = idx.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSyncBookkeeping(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	projects := seed(t, store, 2, 2)

	pending, err := store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Len(t, pending.Projects, 2)
	assert.Len(t, pending.Items, 4)
	assert.Empty(t, pending.Deletions)

	require.NoError(t, store.MarkSynced(ctx, pending))
	pending, err = store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.True(t, pending.Empty())

	require.NoError(t, store.DeleteProject(ctx, projects[0].ID))
	pending, err = store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Len(t, pending.Deletions, 3)

	require.NoError(t, store.MarkSynced(ctx, pending))
	pending, err = store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.True(t, pending.Empty())

	require.NoError(t, store.MarkAllDirty(ctx))
	pending, err = store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Len(t, pending.Projects, 1)
	assert.Len(t, pending.Items, 2)
}

func TestApplyRemoteChanges(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	var remote []Change
	store.OnChange(func(c Change) {
		if c.Remote {
			remote = append(remote, c)
		}
	})

	result, err := store.ApplyRemote(ctx, []Remote{
		{Kind: KindProject, ID: "remote-p", Version: 3,
			Project: model.Project{Title: model.StringPtr("Shared"), CreationDate: time.Now().UTC()}},
		{Kind: KindItem, ID: "remote-i", Version: 4,
			Item: model.Item{ProjectID: "remote-p", Priority: model.PriorityMedium, CreationDate: time.Now().UTC()}},
		{Kind: KindItem, ID: "orphan", Version: 5,
			Item: model.Item{ProjectID: "gone", CreationDate: time.Now().UTC()}},
	})
	require.NoError(t, err)
	assert.Equal(t, ApplyResult{Applied: 2, Skipped: 1}, result)

	pending, err := store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.True(t, pending.Empty(), "remote changes are not pushed back")

	got, err := store.GetProject(ctx, "remote-p")
	require.NoError(t, err)
	assert.Equal(t, "Shared", model.ProjectTitle(got))
	require.Len(t, got.Items, 1)

	result, err = store.ApplyRemote(ctx, []Remote{
		{Kind: KindItem, ID: "remote-i", Deleted: true},
		{Kind: KindItem, ID: "remote-i", Deleted: true},
		{Kind: KindProject, ID: "remote-p", Deleted: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Applied)

	pending, err = store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending.Deletions)

	require.Len(t, remote, 4)
	assert.Equal(t, OpCreated, remote[0].Op)
	assert.Equal(t, OpDeleted, remote[3].Op)
}

func TestMarkSyncedKeepsNewerEdits(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	projects := seed(t, store, 1, 2)
	full, err := store.GetProject(ctx, projects[0].ID)
	require.NoError(t, err)
	items := full.Items
	require.Len(t, items, 2)

	pending, err := store.PendingChanges(ctx)
	require.NoError(t, err)

	require.NoError(t, store.UpdateItem(ctx, items[0].ID, ItemUpdate{Title: model.StringPtr("Newer")}))
	require.NoError(t, store.MarkSynced(ctx, pending))

	pending, err = store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending.Projects)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, items[0].ID, pending.Items[0].ID)
	assert.Equal(t, "Newer", model.ItemTitle(pending.Items[0]))
}

func TestApplyRemoteKeepsLocalChanges(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	projects := seed(t, store, 1, 2)
	full, err := store.GetProject(ctx, projects[0].ID)
	require.NoError(t, err)
	items := full.Items
	require.Len(t, items, 2)

	pending, err := store.PendingChanges(ctx)
	require.NoError(t, err)
	require.NoError(t, store.MarkSynced(ctx, pending))

	require.NoError(t, store.UpdateItem(ctx, items[0].ID, ItemUpdate{Title: model.StringPtr("Mine")}))
	require.NoError(t, store.DeleteItem(ctx, items[1].ID))

	result, err := store.ApplyRemote(ctx, []Remote{
		{Kind: KindItem, ID: items[0].ID, Version: 9,
			Item: model.Item{ProjectID: projects[0].ID, Title: model.StringPtr("Theirs"), CreationDate: time.Now().UTC()}},
		{Kind: KindItem, ID: items[1].ID, Version: 10,
			Item: model.Item{ProjectID: projects[0].ID, Title: model.StringPtr("Back"), CreationDate: time.Now().UTC()}},
		{Kind: KindProject, ID: projects[0].ID, Version: 11,
			Project: model.Project{Title: model.StringPtr("Renamed"), CreationDate: time.Now().UTC()}},
	})
	require.NoError(t, err)
	assert.Equal(t, ApplyResult{Applied: 1, Kept: 2}, result)

	got, err := store.GetItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", model.ItemTitle(got))

	_, err = store.GetItem(ctx, items[1].ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	p, err := store.GetProject(ctx, projects[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", model.ProjectTitle(p))
}

func TestFailedApplyRemoteLeavesPendingEdits(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, store.Flush())

	local, err := store.CreateProject(ctx, NewProject{Title: model.StringPtr("Unsaved")})
	require.NoError(t, err)

	_, err = store.ApplyRemote(ctx, []Remote{
		{Kind: KindProject, ID: "remote-p", Version: 1, Project: model.Project{CreationDate: time.Now().UTC()}},
		{Kind: Kind("bogus"), ID: "x", Version: 2},
	})
	require.Error(t, err)

	_, err = store.GetProject(ctx, "remote-p")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.True(t, store.HasChanges())
	_, err = store.GetProject(ctx, local.ID)
	assert.NoError(t, err)
}

func TestClearLocal(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	seed(t, store, 2, 2)
	require.NoError(t, store.DeleteAll(ctx))
	seed(t, store, 1, 1)

	require.NoError(t, store.ClearLocal(ctx))

	n, err := store.CountProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	pending, err := store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.True(t, pending.Empty())
}
