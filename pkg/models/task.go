package models

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

type TaskStatus string

const (
	PendingTaskStatus    TaskStatus = "pending"
	InProgressTaskStatus TaskStatus = "in_progress"
	CompletedTaskStatus  TaskStatus = "completed"
)

// TaskStatuses lists every recognized status, in display order.
var TaskStatuses = []TaskStatus{PendingTaskStatus, InProgressTaskStatus, CompletedTaskStatus}

func (s TaskStatus) Valid() bool {
	switch s {
	case PendingTaskStatus, InProgressTaskStatus, CompletedTaskStatus:
		return true
	}
	return false
}

const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 2000
	MaxCategoryLength    = 40
	MaxCoordinate        = 100000.0

	DefaultPriority = 3
	DefaultColor    = "#4f46e5"

	MinPriority = 1
	MaxPriority = 5
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Position is a point on the infinite board canvas.
type Position struct {
	X float64 `json:"x" db:"position_x"`
	Y float64 `json:"y" db:"position_y"`
}

func (p Position) valid() bool {
	for _, v := range []float64{p.X, p.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxCoordinate {
			return false
		}
	}
	return true
}

// Task is a positioned unit of work on the board canvas.
type Task struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	Status      TaskStatus `json:"status" db:"status"`
	Priority    int        `json:"priority" db:"priority"`
	Category    string     `json:"category,omitempty" db:"category"`
	Color       string     `json:"color" db:"color"`
	Icon        string     `json:"icon,omitempty" db:"icon"`
	Position    Position   `json:"position"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// NewTask constructs a validated task. Zero-value fields get defaults:
// priority 3, color DefaultColor, status pending, position origin.
func NewTask(id, title string, opts ...TaskOption) (*Task, error) {
	now := time.Now()
	t := &Task{
		ID:        strings.TrimSpace(id),
		Title:     strings.TrimSpace(title),
		Status:    PendingTaskStatus,
		Priority:  DefaultPriority,
		Color:     DefaultColor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.Status == CompletedTaskStatus && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// TaskOption customizes a task at construction time.
type TaskOption func(*Task)

func WithDescription(d string) TaskOption {
	return func(t *Task) { t.Description = strings.TrimSpace(d) }
}
func WithStatus(s TaskStatus) TaskOption { return func(t *Task) { t.Status = s } }
func WithPriority(p int) TaskOption      { return func(t *Task) { t.Priority = p } }
func WithCategory(c string) TaskOption   { return func(t *Task) { t.Category = strings.TrimSpace(c) } }
func WithColor(c string) TaskOption      { return func(t *Task) { t.Color = c } }
func WithIcon(i string) TaskOption       { return func(t *Task) { t.Icon = i } }
func WithPosition(x, y float64) TaskOption {
	return func(t *Task) { t.Position = Position{X: x, Y: y} }
}
func WithCreatedAt(ts time.Time) TaskOption {
	return func(t *Task) { t.CreatedAt = ts; t.UpdatedAt = ts }
}

// Validate checks every task invariant. Mutators call it after each change so
// an invalid value never survives inside an entity.
func (t *Task) Validate() error {
	if t.ID == "" {
		return NewValidationError("empty_id", nil)
	}
	if t.Title == "" || utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return NewValidationError("invalid_title", map[string]string{"title": t.Title})
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return NewValidationError("description_too_long", map[string]string{"length": fmt.Sprint(utf8.RuneCountInString(t.Description))})
	}
	if !t.Status.Valid() {
		return NewValidationError("invalid_status", map[string]string{"status": string(t.Status)})
	}
	if t.Priority < MinPriority || t.Priority > MaxPriority {
		return NewValidationError("invalid_priority", map[string]string{"priority": fmt.Sprint(t.Priority)})
	}
	if utf8.RuneCountInString(t.Category) > MaxCategoryLength {
		return NewValidationError("category_too_long", map[string]string{"category": t.Category})
	}
	if !colorPattern.MatchString(t.Color) {
		return NewValidationError("invalid_color", map[string]string{"color": t.Color})
	}
	if !t.Position.valid() {
		return NewValidationError("invalid_position", map[string]string{
			"x": fmt.Sprint(t.Position.X), "y": fmt.Sprint(t.Position.Y),
		})
	}
	if (t.Status == CompletedTaskStatus) != (t.CompletedAt != nil) {
		return NewValidationError("completed_at_mismatch", map[string]string{"status": string(t.Status)})
	}
	return nil
}

func (t *Task) touch() { t.UpdatedAt = time.Now() }

// Rename changes the title; no-op when the trimmed value is unchanged.
func (t *Task) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == t.Title {
		return nil
	}
	prev := t.Title
	t.Title = title
	if err := t.Validate(); err != nil {
		t.Title = prev
		return err
	}
	t.touch()
	return nil
}

// Describe replaces the description; an empty or blank value clears it.
func (t *Task) Describe(description string) error {
	description = strings.TrimSpace(description)
	if description == t.Description {
		return nil
	}
	prev := t.Description
	t.Description = description
	if err := t.Validate(); err != nil {
		t.Description = prev
		return err
	}
	t.touch()
	return nil
}

// ChangeStatus moves the task between statuses, maintaining the invariant
// that CompletedAt is set exactly when the task is completed.
func (t *Task) ChangeStatus(status TaskStatus) error {
	if !status.Valid() {
		return NewValidationError("invalid_status", map[string]string{"status": string(status)})
	}
	if status == t.Status {
		return nil
	}
	t.Status = status
	if status == CompletedTaskStatus {
		now := time.Now()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	t.touch()
	return nil
}

func (t *Task) Reprioritize(priority int) error {
	if priority == t.Priority {
		return nil
	}
	prev := t.Priority
	t.Priority = priority
	if err := t.Validate(); err != nil {
		t.Priority = prev
		return err
	}
	t.touch()
	return nil
}

func (t *Task) Recategorize(category string) error {
	category = strings.TrimSpace(category)
	if category == t.Category {
		return nil
	}
	prev := t.Category
	t.Category = category
	if err := t.Validate(); err != nil {
		t.Category = prev
		return err
	}
	t.touch()
	return nil
}

func (t *Task) Recolor(color string) error {
	if color == t.Color {
		return nil
	}
	prev := t.Color
	t.Color = color
	if err := t.Validate(); err != nil {
		t.Color = prev
		return err
	}
	t.touch()
	return nil
}

func (t *Task) SetIcon(icon string) {
	if icon == t.Icon {
		return
	}
	t.Icon = icon
	t.touch()
}

// MoveTo repositions the task on the canvas.
func (t *Task) MoveTo(x, y float64) error {
	pos := Position{X: x, Y: y}
	if pos == t.Position {
		return nil
	}
	if !pos.valid() {
		return NewValidationError("invalid_position", map[string]string{
			"x": fmt.Sprint(x), "y": fmt.Sprint(y),
		})
	}
	t.Position = pos
	t.touch()
	return nil
}
