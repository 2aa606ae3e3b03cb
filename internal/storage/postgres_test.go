package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	internal_storage "github.com/RyosukeMondo/todo-for-visual-thinker-sub001/internal/storage"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/internal/testutil"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/storage"
)

func TestPostgresStore(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	// Each subtest runs inside a transaction rolled back on cleanup.
	newTxStore := func(t *testing.T) storage.Store {
		store, err := internal_storage.NewPostgresStore(testDB.ConnStr)
		assert.NoError(t, err)
		txStore, err := store.Begin()
		assert.NoError(t, err)
		t.Cleanup(func() { _ = txStore.Rollback() })
		return txStore
	}

	newTask := func(t *testing.T, id string, opts ...models.TaskOption) models.Task {
		task, err := models.NewTask(id, "task "+id, opts...)
		assert.NoError(t, err)
		return *task
	}

	newRel := func(t *testing.T, id, from, to string, typ models.RelationshipType) models.Relationship {
		rel, err := models.NewRelationship(id, from, to, typ, "", time.Time{})
		assert.NoError(t, err)
		return *rel
	}

	t.Run("TaskRoundTrip", func(t *testing.T) {
		store := newTxStore(t)
		task := newTask(t, "t1",
			models.WithDescription("positioned"),
			models.WithStatus(models.CompletedTaskStatus),
			models.WithPriority(4),
			models.WithCategory("design"),
			models.WithPosition(-42.5, 17),
		)
		assert.NoError(t, store.SaveTask(task))

		loaded, err := store.GetTask("t1")
		assert.NoError(t, err)
		assert.Equal(t, task.Title, loaded.Title)
		assert.Equal(t, task.Status, loaded.Status)
		assert.Equal(t, task.Position, loaded.Position)
		assert.NotNil(t, loaded.CompletedAt)
	})

	t.Run("GetMissingTask", func(t *testing.T) {
		store := newTxStore(t)
		_, err := store.GetTask("nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateTask", func(t *testing.T) {
		store := newTxStore(t)
		task := newTask(t, "t1")
		assert.NoError(t, store.SaveTask(task))

		task.Title = "renamed"
		task.Priority = 5
		assert.NoError(t, store.UpdateTask(task))

		loaded, err := store.GetTask("t1")
		assert.NoError(t, err)
		assert.Equal(t, "renamed", loaded.Title)
		assert.Equal(t, 5, loaded.Priority)

		missing := newTask(t, "ghost")
		assert.ErrorIs(t, store.UpdateTask(missing), storage.ErrNotFound)
	})

	t.Run("ListTasksFilters", func(t *testing.T) {
		store := newTxStore(t)
		assert.NoError(t, store.SaveTask(newTask(t, "t1", models.WithPriority(5), models.WithCategory("work"), models.WithPosition(10, 10))))
		assert.NoError(t, store.SaveTask(newTask(t, "t2", models.WithPriority(1), models.WithStatus(models.InProgressTaskStatus), models.WithPosition(900, 900))))
		assert.NoError(t, store.SaveTask(newTask(t, "t3", models.WithPriority(3), models.WithCategory("work"), models.WithDescription("searchable needle"))))

		byStatus, err := store.ListTasks(storage.TaskFilter{Statuses: []models.TaskStatus{models.InProgressTaskStatus}})
		assert.NoError(t, err)
		assert.Len(t, byStatus, 1)
		assert.Equal(t, "t2", byStatus[0].ID)

		byCategory, err := store.ListTasks(storage.TaskFilter{Category: "work"})
		assert.NoError(t, err)
		assert.Len(t, byCategory, 2)

		bySearch, err := store.ListTasks(storage.TaskFilter{Search: "NEEDLE"})
		assert.NoError(t, err)
		assert.Len(t, bySearch, 1)
		assert.Equal(t, "t3", bySearch[0].ID)

		min := 2
		byPriority, err := store.ListTasks(storage.TaskFilter{
			Priority: &storage.PriorityRange{Min: &min},
			SortBy:   storage.SortByPriority,
			SortDir:  storage.SortDesc,
		})
		assert.NoError(t, err)
		assert.Len(t, byPriority, 2)
		assert.Equal(t, "t1", byPriority[0].ID)

		xMax := 100.0
		yMax := 100.0
		byViewport, err := store.ListTasks(storage.TaskFilter{
			Viewport: &storage.Viewport{X: storage.Range{Max: &xMax}, Y: storage.Range{Max: &yMax}},
		})
		assert.NoError(t, err)
		assert.Len(t, byViewport, 2)

		paged, err := store.ListTasks(storage.TaskFilter{Limit: 2, Offset: 2, SortBy: storage.SortByCreatedAt})
		assert.NoError(t, err)
		assert.Len(t, paged, 1)
	})

	t.Run("DeleteTask", func(t *testing.T) {
		store := newTxStore(t)
		assert.NoError(t, store.SaveTask(newTask(t, "t1")))
		assert.NoError(t, store.DeleteTask("t1"))
		_, err := store.GetTask("t1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, store.DeleteTask("t1"), storage.ErrNotFound)
	})

	t.Run("RelationshipRoundTrip", func(t *testing.T) {
		store := newTxStore(t)
		rel := newRel(t, "r1", "a", "b", models.DependsOnRelationship)
		assert.NoError(t, store.SaveRelationship(rel))

		loaded, err := store.GetRelationship("r1")
		assert.NoError(t, err)
		assert.Equal(t, rel.FromID, loaded.FromID)
		assert.Equal(t, rel.ToID, loaded.ToID)
		assert.Equal(t, rel.Type, loaded.Type)

		_, err = store.GetRelationship("missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("FindBetween", func(t *testing.T) {
		store := newTxStore(t)
		assert.NoError(t, store.SaveRelationship(newRel(t, "r1", "a", "b", models.DependsOnRelationship)))
		assert.NoError(t, store.SaveRelationship(newRel(t, "r2", "a", "b", models.RelatedToRelationship)))

		all, err := store.FindBetween("a", "b", nil)
		assert.NoError(t, err)
		assert.Len(t, all, 2)

		typ := models.DependsOnRelationship
		narrowed, err := store.FindBetween("a", "b", &typ)
		assert.NoError(t, err)
		assert.Len(t, narrowed, 1)
		assert.Equal(t, "r1", narrowed[0].ID)

		reversed, err := store.FindBetween("b", "a", nil)
		assert.NoError(t, err)
		assert.Empty(t, reversed)
	})

	t.Run("ListRelationships", func(t *testing.T) {
		store := newTxStore(t)
		assert.NoError(t, store.SaveRelationship(newRel(t, "r1", "a", "b", models.DependsOnRelationship)))
		assert.NoError(t, store.SaveRelationship(newRel(t, "r2", "b", "c", models.BlocksRelationship)))
		assert.NoError(t, store.SaveRelationship(newRel(t, "r3", "c", "a", models.RelatedToRelationship)))

		involving, err := store.ListRelationships(storage.RelationshipQuery{Involving: "a"})
		assert.NoError(t, err)
		assert.Len(t, involving, 2)

		byType, err := store.ListRelationships(storage.RelationshipQuery{
			Types: []models.RelationshipType{models.BlocksRelationship, models.RelatedToRelationship},
		})
		assert.NoError(t, err)
		assert.Len(t, byType, 2)

		from, err := store.ListRelationships(storage.RelationshipQuery{FromID: "b"})
		assert.NoError(t, err)
		assert.Len(t, from, 1)
		assert.Equal(t, "r2", from[0].ID)
	})

	t.Run("DeleteByTaskID", func(t *testing.T) {
		store := newTxStore(t)
		assert.NoError(t, store.SaveRelationship(newRel(t, "r1", "a", "b", models.DependsOnRelationship)))
		assert.NoError(t, store.SaveRelationship(newRel(t, "r2", "c", "a", models.BlocksRelationship)))
		assert.NoError(t, store.SaveRelationship(newRel(t, "r3", "b", "c", models.RelatedToRelationship)))

		removed, err := store.DeleteByTaskID("a")
		assert.NoError(t, err)
		assert.Equal(t, 2, removed)

		remaining, err := store.ListRelationships(storage.RelationshipQuery{})
		assert.NoError(t, err)
		assert.Len(t, remaining, 1)
		assert.Equal(t, "r3", remaining[0].ID)
	})

	t.Run("SelfLoopRejectedBySchema", func(t *testing.T) {
		store := newTxStore(t)
		rel := newRel(t, "r1", "a", "b", models.BlocksRelationship)
		rel.ToID = "a" // bypass entity validation to exercise the CHECK constraint
		assert.Error(t, store.SaveRelationship(rel))
	})
}
