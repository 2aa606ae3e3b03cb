package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
)

func TestNewTask(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		task, err := models.NewTask("t1", "Write the report")
		assert.NoError(t, err)
		assert.Equal(t, models.PendingTaskStatus, task.Status)
		assert.Equal(t, models.DefaultPriority, task.Priority)
		assert.Equal(t, models.DefaultColor, task.Color)
		assert.Equal(t, models.Position{}, task.Position)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("TrimsTitle", func(t *testing.T) {
		task, err := models.NewTask("t1", "  padded  ")
		assert.NoError(t, err)
		assert.Equal(t, "padded", task.Title)
	})

	t.Run("CompletedGetsTimestamp", func(t *testing.T) {
		task, err := models.NewTask("t1", "done already", models.WithStatus(models.CompletedTaskStatus))
		assert.NoError(t, err)
		assert.NotNil(t, task.CompletedAt)
	})

	t.Run("Invalid", func(t *testing.T) {
		cases := []struct {
			name string
			id   string
			opts []models.TaskOption
		}{
			{name: "EmptyID", id: ""},
			{name: "BadPriority", id: "t1", opts: []models.TaskOption{models.WithPriority(6)}},
			{name: "BadStatus", id: "t1", opts: []models.TaskOption{models.WithStatus("archived")}},
			{name: "BadColor", id: "t1", opts: []models.TaskOption{models.WithColor("red")}},
			{name: "OffCanvas", id: "t1", opts: []models.TaskOption{models.WithPosition(100001, 0)}},
			{name: "LongCategory", id: "t1", opts: []models.TaskOption{models.WithCategory(strings.Repeat("c", 41))}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := models.NewTask(tc.id, "title", tc.opts...)
				assert.Error(t, err)
				assert.True(t, models.IsValidation(err))
			})
		}

		_, err := models.NewTask("t1", strings.Repeat("x", 121))
		assert.Error(t, err)
		_, err = models.NewTask("t1", "")
		assert.Error(t, err)
	})

	t.Run("LimitsCountRunesNotBytes", func(t *testing.T) {
		// 120 two-byte runes: exactly at the limit despite 240 bytes.
		_, err := models.NewTask("t1", strings.Repeat("é", 120))
		assert.NoError(t, err)
		_, err = models.NewTask("t1", strings.Repeat("é", 121))
		assert.Error(t, err)

		_, err = models.NewTask("t1", "title", models.WithCategory(strings.Repeat("ü", 40)))
		assert.NoError(t, err)
		_, err = models.NewTask("t1", "title", models.WithCategory(strings.Repeat("ü", 41)))
		assert.Error(t, err)
	})

	t.Run("UppercaseColorAccepted", func(t *testing.T) {
		_, err := models.NewTask("t1", "title", models.WithColor("#AB12EF"))
		assert.NoError(t, err)
	})
}

func TestTaskMutators(t *testing.T) {
	newTask := func(t *testing.T) *models.Task {
		task, err := models.NewTask("t1", "original")
		assert.NoError(t, err)
		return task
	}

	t.Run("RenameNoOpKeepsUpdatedAt", func(t *testing.T) {
		task := newTask(t)
		before := task.UpdatedAt
		assert.NoError(t, task.Rename("original"))
		assert.Equal(t, before, task.UpdatedAt)
	})

	t.Run("RenameInvalidRestoresTitle", func(t *testing.T) {
		task := newTask(t)
		assert.Error(t, task.Rename(""))
		assert.Equal(t, "original", task.Title)
	})

	t.Run("CompleteSetsCompletedAt", func(t *testing.T) {
		task := newTask(t)
		assert.NoError(t, task.ChangeStatus(models.CompletedTaskStatus))
		assert.NotNil(t, task.CompletedAt)
		assert.NoError(t, task.Validate())

		assert.NoError(t, task.ChangeStatus(models.InProgressTaskStatus))
		assert.Nil(t, task.CompletedAt)
		assert.NoError(t, task.Validate())
	})

	t.Run("MoveTo", func(t *testing.T) {
		task := newTask(t)
		assert.NoError(t, task.MoveTo(120, -45))
		assert.Equal(t, models.Position{X: 120, Y: -45}, task.Position)
		assert.Error(t, task.MoveTo(0, 200000))
		assert.Equal(t, models.Position{X: 120, Y: -45}, task.Position)
	})

	t.Run("DescribeClear", func(t *testing.T) {
		task := newTask(t)
		assert.NoError(t, task.Describe("details"))
		assert.NoError(t, task.Describe("   "))
		assert.Equal(t, "", task.Description)
	})
}
