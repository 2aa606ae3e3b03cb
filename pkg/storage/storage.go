package storage

import (
	"github.com/pkg/errors"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
)

// ErrNotFound is returned by Get/Find operations when no row matches.
var ErrNotFound = errors.New("not found")

const (
	// DefaultLimit applies when a query supplies no limit.
	DefaultLimit = 100
	// MaxLimit is the silent clamp for oversized limits.
	MaxLimit = 500
)

type SortField string

const (
	SortByPriority  SortField = "priority"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Range bounds a numeric filter dimension; nil ends are unbounded.
type Range struct {
	Min *float64
	Max *float64
}

// PriorityRange bounds the priority filter; nil ends are unbounded.
type PriorityRange struct {
	Min *int
	Max *int
}

// Viewport restricts tasks to a rectangular region of the canvas.
type Viewport struct {
	X Range
	Y Range
}

// TaskFilter is the task listing contract consumed by the board snapshot
// and the CLI/HTTP listing surfaces.
type TaskFilter struct {
	Statuses []models.TaskStatus
	Category string
	Search   string
	Priority *PriorityRange
	Viewport *Viewport
	Limit    int
	Offset   int
	SortBy   SortField
	SortDir  SortDirection
}

// RelationshipQuery selects relationships by endpoint and type.
// Involving matches either endpoint. Types beyond the first element are
// OR-ed together.
type RelationshipQuery struct {
	FromID    string
	ToID      string
	Involving string
	Types     []models.RelationshipType
	Limit     int
	Offset    int
}

// TaskStore is the task persistence contract.
type TaskStore interface {
	SaveTask(t models.Task) error
	GetTask(id string) (models.Task, error)
	ListTasks(filter TaskFilter) ([]models.Task, error)
	UpdateTask(t models.Task) error
	DeleteTask(id string) error
}

// RelationshipStore is the relationship persistence contract. The mutation
// and query services are defined entirely in terms of it.
type RelationshipStore interface {
	SaveRelationship(r models.Relationship) error
	GetRelationship(id string) (models.Relationship, error)
	// FindBetween returns the relationships from fromID to toID, optionally
	// narrowed to a single type.
	FindBetween(fromID, toID string, typ *models.RelationshipType) ([]models.Relationship, error)
	ListRelationships(query RelationshipQuery) ([]models.Relationship, error)
	UpdateRelationship(r models.Relationship) error
	DeleteRelationship(id string) error
	// DeleteByTaskID removes every relationship touching the task, in either
	// direction. Used by the task-deletion cascade.
	DeleteByTaskID(taskID string) (int, error)
}

// Store combines the persistence contracts with the transaction surface.
// Begin returns a Store whose operations run inside one transaction until
// Commit or Rollback.
type Store interface {
	TaskStore
	RelationshipStore
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error
}
