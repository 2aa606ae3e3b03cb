package service

import (
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
)

const (
	DefaultViewportPadding = 240.0
	DefaultMinViewportSize = 480.0
)

// SnapshotOptions tunes the derived viewport. Nil fields take the defaults;
// an explicit zero is honored, so padding can be switched off.
type SnapshotOptions struct {
	Padding         *float64
	MinViewportSize *float64
}

// BoardTotals counts tasks per status and per priority. Every key of the
// fixed status and priority sets is always present, zero-filled.
type BoardTotals struct {
	Count      int                       `json:"count"`
	Statuses   map[models.TaskStatus]int `json:"statuses"`
	Priorities map[int]int               `json:"priorities"`
}

// BoardBounds is the bounding box over all task positions.
type BoardBounds struct {
	MinX   float64         `json:"min_x"`
	MaxX   float64         `json:"max_x"`
	MinY   float64         `json:"min_y"`
	MaxY   float64         `json:"max_y"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Center models.Position `json:"center"`
}

// AxisRange is one axis of the viewport.
type AxisRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// BoardViewport is the padded, minimum-sized view centered on the bounds.
type BoardViewport struct {
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	X      AxisRange `json:"x"`
	Y      AxisRange `json:"y"`
}

// BoardSnapshot is the aggregate a presentation layer renders: the task
// subset, relationships scoped to it, totals, bounds, and viewport.
type BoardSnapshot struct {
	Tasks         []models.Task         `json:"tasks"`
	Relationships []models.Relationship `json:"relationships"`
	Totals        BoardTotals           `json:"totals"`
	Bounds        BoardBounds           `json:"bounds"`
	Viewport      BoardViewport         `json:"viewport"`
}

// BuildSnapshot aggregates the board view for a task subset. relationships
// may be nil; when supplied it is filtered to edges with at least one
// endpoint inside the task set, so links to off-board tasks still surface.
func BuildSnapshot(tasks []models.Task, relationships []models.Relationship, opts SnapshotOptions) BoardSnapshot {
	padding := DefaultViewportPadding
	if opts.Padding != nil {
		padding = *opts.Padding
	}
	minSize := DefaultMinViewportSize
	if opts.MinViewportSize != nil {
		minSize = *opts.MinViewportSize
	}

	totals := BoardTotals{
		Count:      len(tasks),
		Statuses:   make(map[models.TaskStatus]int, len(models.TaskStatuses)),
		Priorities: make(map[int]int, models.MaxPriority),
	}
	for _, s := range models.TaskStatuses {
		totals.Statuses[s] = 0
	}
	for p := models.MinPriority; p <= models.MaxPriority; p++ {
		totals.Priorities[p] = 0
	}
	for _, t := range tasks {
		totals.Statuses[t.Status]++
		totals.Priorities[t.Priority]++
	}

	var bounds BoardBounds
	if len(tasks) > 0 {
		bounds.MinX = tasks[0].Position.X
		bounds.MaxX = tasks[0].Position.X
		bounds.MinY = tasks[0].Position.Y
		bounds.MaxY = tasks[0].Position.Y
		for _, t := range tasks[1:] {
			if t.Position.X < bounds.MinX {
				bounds.MinX = t.Position.X
			}
			if t.Position.X > bounds.MaxX {
				bounds.MaxX = t.Position.X
			}
			if t.Position.Y < bounds.MinY {
				bounds.MinY = t.Position.Y
			}
			if t.Position.Y > bounds.MaxY {
				bounds.MaxY = t.Position.Y
			}
		}
		bounds.Width = bounds.MaxX - bounds.MinX
		bounds.Height = bounds.MaxY - bounds.MinY
		bounds.Center = models.Position{
			X: bounds.MinX + bounds.Width/2,
			Y: bounds.MinY + bounds.Height/2,
		}
	}

	viewport := BoardViewport{
		Width:  max(bounds.Width+2*padding, minSize),
		Height: max(bounds.Height+2*padding, minSize),
	}
	viewport.X = AxisRange{
		Min: bounds.Center.X - viewport.Width/2,
		Max: bounds.Center.X + viewport.Width/2,
	}
	viewport.Y = AxisRange{
		Min: bounds.Center.Y - viewport.Height/2,
		Max: bounds.Center.Y + viewport.Height/2,
	}

	var scoped []models.Relationship
	if relationships != nil {
		onBoard := make(map[string]struct{}, len(tasks))
		for _, t := range tasks {
			onBoard[t.ID] = struct{}{}
		}
		scoped = make([]models.Relationship, 0, len(relationships))
		for _, r := range relationships {
			_, fromIn := onBoard[r.FromID]
			_, toIn := onBoard[r.ToID]
			if fromIn || toIn {
				scoped = append(scoped, r)
			}
		}
	}

	return BoardSnapshot{
		Tasks:         tasks,
		Relationships: scoped,
		Totals:        totals,
		Bounds:        bounds,
		Viewport:      viewport,
	}
}
