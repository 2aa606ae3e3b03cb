package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/service"
)

func positioned(t *testing.T, id string, x, y float64) models.Task {
	t.Helper()
	created, err := models.NewTask(id, "task "+id, models.WithPosition(x, y))
	assert.NoError(t, err)
	return *created
}

func fp(v float64) *float64 { return &v }

func TestBuildSnapshotEmpty(t *testing.T) {
	snapshot := service.BuildSnapshot(nil, nil, service.SnapshotOptions{})

	assert.Equal(t, 0, snapshot.Totals.Count)
	for _, s := range models.TaskStatuses {
		assert.Contains(t, snapshot.Totals.Statuses, s)
		assert.Equal(t, 0, snapshot.Totals.Statuses[s])
	}
	for p := models.MinPriority; p <= models.MaxPriority; p++ {
		assert.Contains(t, snapshot.Totals.Priorities, p)
		assert.Equal(t, 0, snapshot.Totals.Priorities[p])
	}

	assert.Equal(t, service.BoardBounds{}, snapshot.Bounds)

	// Viewport collapses to the minimum size, centered at the origin.
	assert.Equal(t, service.DefaultMinViewportSize, snapshot.Viewport.Width)
	assert.Equal(t, service.DefaultMinViewportSize, snapshot.Viewport.Height)
	assert.Equal(t, -service.DefaultMinViewportSize/2, snapshot.Viewport.X.Min)
	assert.Equal(t, service.DefaultMinViewportSize/2, snapshot.Viewport.X.Max)
}

func TestBuildSnapshotBoundsAndViewport(t *testing.T) {
	tasks := []models.Task{
		positioned(t, "a", -120, 90),
		positioned(t, "b", 240, -30),
		positioned(t, "c", 40, 300),
	}

	snapshot := service.BuildSnapshot(tasks, nil, service.SnapshotOptions{Padding: fp(100), MinViewportSize: fp(480)})

	b := snapshot.Bounds
	assert.Equal(t, -120.0, b.MinX)
	assert.Equal(t, 240.0, b.MaxX)
	assert.Equal(t, -30.0, b.MinY)
	assert.Equal(t, 300.0, b.MaxY)
	assert.Equal(t, 360.0, b.Width)
	assert.Equal(t, 330.0, b.Height)
	assert.Equal(t, models.Position{X: 60, Y: 135}, b.Center)

	v := snapshot.Viewport
	assert.Equal(t, 560.0, v.Width)
	assert.Equal(t, 530.0, v.Height)
	assert.Equal(t, -220.0, v.X.Min)
	assert.Equal(t, 340.0, v.X.Max)
	assert.Equal(t, -130.0, v.Y.Min)
	assert.Equal(t, 400.0, v.Y.Max)
}

func TestBuildSnapshotMinViewport(t *testing.T) {
	tasks := []models.Task{positioned(t, "only", 10, 10)}
	snapshot := service.BuildSnapshot(tasks, nil, service.SnapshotOptions{Padding: fp(10), MinViewportSize: fp(200)})

	assert.Equal(t, 200.0, snapshot.Viewport.Width)
	assert.Equal(t, 200.0, snapshot.Viewport.Height)
	assert.Equal(t, -90.0, snapshot.Viewport.X.Min)
	assert.Equal(t, 110.0, snapshot.Viewport.X.Max)
}

func TestBuildSnapshotZeroPadding(t *testing.T) {
	tasks := []models.Task{
		positioned(t, "a", -100, 0),
		positioned(t, "b", 100, 50),
	}

	// An explicit zero is an override, not "use the default".
	snapshot := service.BuildSnapshot(tasks, nil, service.SnapshotOptions{Padding: fp(0), MinViewportSize: fp(0)})
	assert.Equal(t, 200.0, snapshot.Viewport.Width)
	assert.Equal(t, 50.0, snapshot.Viewport.Height)
	assert.Equal(t, -100.0, snapshot.Viewport.X.Min)
	assert.Equal(t, 100.0, snapshot.Viewport.X.Max)

	// Nil fields still take the defaults.
	snapshot = service.BuildSnapshot(tasks, nil, service.SnapshotOptions{})
	assert.Equal(t, 200.0+2*service.DefaultViewportPadding, snapshot.Viewport.Width)
	assert.Equal(t, 50.0+2*service.DefaultViewportPadding, snapshot.Viewport.Height)
}

func TestBuildSnapshotTotals(t *testing.T) {
	done, err := models.NewTask("done", "done", models.WithStatus(models.CompletedTaskStatus), models.WithPriority(5))
	assert.NoError(t, err)
	active, err := models.NewTask("active", "active", models.WithStatus(models.InProgressTaskStatus))
	assert.NoError(t, err)
	pending, err := models.NewTask("pending", "pending")
	assert.NoError(t, err)

	snapshot := service.BuildSnapshot([]models.Task{*done, *active, *pending}, nil, service.SnapshotOptions{})
	assert.Equal(t, 3, snapshot.Totals.Count)
	assert.Equal(t, 1, snapshot.Totals.Statuses[models.CompletedTaskStatus])
	assert.Equal(t, 1, snapshot.Totals.Statuses[models.InProgressTaskStatus])
	assert.Equal(t, 1, snapshot.Totals.Statuses[models.PendingTaskStatus])
	assert.Equal(t, 1, snapshot.Totals.Priorities[5])
	assert.Equal(t, 2, snapshot.Totals.Priorities[models.DefaultPriority])
}

func TestBuildSnapshotRelationshipScoping(t *testing.T) {
	tasks := []models.Task{
		positioned(t, "a", 0, 0),
		positioned(t, "b", 50, 50),
	}
	edge := func(id, from, to string) models.Relationship {
		rel, err := models.NewRelationship(id, from, to, models.RelatedToRelationship, "", time.Time{})
		assert.NoError(t, err)
		return *rel
	}
	rels := []models.Relationship{
		edge("both", "a", "b"),
		edge("half", "a", "offboard"),
		edge("neither", "x", "y"),
	}

	snapshot := service.BuildSnapshot(tasks, rels, service.SnapshotOptions{})
	assert.Len(t, snapshot.Relationships, 2)
	ids := []string{snapshot.Relationships[0].ID, snapshot.Relationships[1].ID}
	assert.Contains(t, ids, "both")
	assert.Contains(t, ids, "half")
}
