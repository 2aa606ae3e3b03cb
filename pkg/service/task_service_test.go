package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/service"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/storage"
)

func TestTaskCreate(t *testing.T) {
	store := storage.NewMockStore()
	svc := service.NewTaskService(store, logger{})

	t.Run("Defaults", func(t *testing.T) {
		created, err := svc.Create(service.CreateTaskInput{Title: "Sketch the layout"})
		assert.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, models.PendingTaskStatus, created.Status)
		assert.Equal(t, models.DefaultPriority, created.Priority)
		assert.Equal(t, models.Position{}, created.Position)

		persisted, err := store.GetTask(created.ID)
		assert.NoError(t, err)
		assert.Equal(t, *created, persisted)
	})

	t.Run("InvalidInputRejected", func(t *testing.T) {
		_, err := svc.Create(service.CreateTaskInput{Title: ""})
		assert.Error(t, err)
		assert.True(t, models.IsValidation(err))

		_, err = svc.Create(service.CreateTaskInput{Title: "x", Priority: 9})
		assert.Error(t, err)
	})
}

func TestTaskUpdate(t *testing.T) {
	str := func(v string) *string { return &v }

	store := storage.NewMockStore()
	svc := service.NewTaskService(store, logger{})
	created, err := svc.Create(service.CreateTaskInput{Title: "Original"})
	assert.NoError(t, err)

	t.Run("FieldByField", func(t *testing.T) {
		status := models.InProgressTaskStatus
		priority := 5
		updated, err := svc.Update(service.UpdateTaskInput{
			ID:       created.ID,
			Title:    str("Renamed"),
			Status:   &status,
			Priority: &priority,
			Position: &models.Position{X: 12, Y: -8},
		})
		assert.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, models.InProgressTaskStatus, updated.Status)
		assert.Equal(t, 5, updated.Priority)
		assert.Equal(t, models.Position{X: 12, Y: -8}, updated.Position)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := svc.Update(service.UpdateTaskInput{ID: "ghost", Title: str("x")})
		assert.Error(t, err)
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("InvalidValueLeavesStoreUntouched", func(t *testing.T) {
		before, err := store.GetTask(created.ID)
		assert.NoError(t, err)
		bad := 0
		_, err = svc.Update(service.UpdateTaskInput{ID: created.ID, Priority: &bad})
		assert.Error(t, err)
		after, err := store.GetTask(created.ID)
		assert.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestTaskDeleteCascades(t *testing.T) {
	store := storage.NewMockStore()
	taskSvc := service.NewTaskService(store, logger{})
	relSvc := service.NewRelationshipService(store, logger{})

	a, err := taskSvc.Create(service.CreateTaskInput{Title: "A"})
	assert.NoError(t, err)
	b, err := taskSvc.Create(service.CreateTaskInput{Title: "B"})
	assert.NoError(t, err)
	c, err := taskSvc.Create(service.CreateTaskInput{Title: "C"})
	assert.NoError(t, err)

	_, err = relSvc.Create(service.CreateRelationshipInput{FromID: a.ID, ToID: b.ID, Type: models.BlocksRelationship})
	assert.NoError(t, err)
	_, err = relSvc.Create(service.CreateRelationshipInput{FromID: c.ID, ToID: a.ID, Type: models.RelatedToRelationship})
	assert.NoError(t, err)
	survivor, err := relSvc.Create(service.CreateRelationshipInput{FromID: b.ID, ToID: c.ID, Type: models.ParentOfRelationship})
	assert.NoError(t, err)

	assert.NoError(t, taskSvc.Delete(a.ID))

	_, err = taskSvc.Get(a.ID)
	assert.Error(t, err)
	assert.True(t, models.IsNotFound(err))

	rels, err := relSvc.List(service.ListRelationshipsInput{})
	assert.NoError(t, err)
	assert.Len(t, rels, 1)
	assert.Equal(t, survivor.ID, rels[0].ID)
}

func TestTaskList(t *testing.T) {
	intp := func(v int) *int { return &v }

	store := storage.NewMockStore()
	svc := service.NewTaskService(store, logger{})
	for _, in := range []service.CreateTaskInput{
		{Title: "Urgent", Priority: 5, Status: models.InProgressTaskStatus},
		{Title: "Backlog", Priority: 1, Category: "later"},
		{Title: "Normal"},
	} {
		_, err := svc.Create(in)
		assert.NoError(t, err)
	}

	t.Run("StatusFilter", func(t *testing.T) {
		tasks, err := svc.List(service.ListTasksInput{Statuses: []models.TaskStatus{models.InProgressTaskStatus}})
		assert.NoError(t, err)
		assert.Len(t, tasks, 1)
		assert.Equal(t, "Urgent", tasks[0].Title)
	})

	t.Run("InvalidStatusRejected", func(t *testing.T) {
		_, err := svc.List(service.ListTasksInput{Statuses: []models.TaskStatus{"archived"}})
		assert.Error(t, err)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("PriorityRangeAndSort", func(t *testing.T) {
		min := 2
		tasks, err := svc.List(service.ListTasksInput{
			Priority: &storage.PriorityRange{Min: &min},
			SortBy:   storage.SortByPriority,
			SortDir:  storage.SortDesc,
		})
		assert.NoError(t, err)
		assert.Len(t, tasks, 2)
		assert.Equal(t, "Urgent", tasks[0].Title)
	})

	t.Run("LimitRules", func(t *testing.T) {
		_, err := svc.List(service.ListTasksInput{Limit: intp(999)})
		assert.NoError(t, err)
		_, err = svc.List(service.ListTasksInput{Limit: intp(-5)})
		assert.Error(t, err)
		_, err = svc.List(service.ListTasksInput{Offset: intp(-1)})
		assert.Error(t, err)
	})

	t.Run("InvalidSortRejected", func(t *testing.T) {
		_, err := svc.List(service.ListTasksInput{SortBy: "title"})
		assert.Error(t, err)
		_, err = svc.List(service.ListTasksInput{SortDir: "sideways"})
		assert.Error(t, err)
	})
}
