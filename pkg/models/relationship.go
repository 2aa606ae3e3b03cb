package models

import (
	"strings"
	"time"
)

// RelationshipType is the closed set of edge types between tasks.
type RelationshipType string

const (
	DependsOnRelationship RelationshipType = "depends_on"
	BlocksRelationship    RelationshipType = "blocks"
	RelatedToRelationship RelationshipType = "related_to"
	ParentOfRelationship  RelationshipType = "parent_of"
)

// RelationshipTypes lists every recognized type.
var RelationshipTypes = []RelationshipType{
	DependsOnRelationship,
	BlocksRelationship,
	RelatedToRelationship,
	ParentOfRelationship,
}

func (t RelationshipType) Valid() bool {
	switch t {
	case DependsOnRelationship, BlocksRelationship, RelatedToRelationship, ParentOfRelationship:
		return true
	}
	return false
}

// DirectionalAcyclic reports whether the type's subgraph must stay a DAG.
// depends_on and blocks edges are rejected at write time if they would close
// a cycle; parent_of cycles are merely dropped when building display trees.
func (t RelationshipType) DirectionalAcyclic() bool {
	return t == DependsOnRelationship || t == BlocksRelationship
}

// Relationship is a typed directed edge between two task ids. Endpoints are
// held by id only; whether they reference live tasks is the mutation
// service's concern, not the entity's.
type Relationship struct {
	ID          string           `json:"id" db:"id"`
	FromID      string           `json:"from_id" db:"from_id"`
	ToID        string           `json:"to_id" db:"to_id"`
	Type        RelationshipType `json:"type" db:"type"`
	Description string           `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// NewRelationship constructs a validated edge. A zero createdAt means now.
func NewRelationship(id, fromID, toID string, typ RelationshipType, description string, createdAt time.Time) (*Relationship, error) {
	id = strings.TrimSpace(id)
	fromID = strings.TrimSpace(fromID)
	toID = strings.TrimSpace(toID)
	if id == "" || fromID == "" || toID == "" {
		return nil, NewValidationError("empty_id", map[string]string{
			"id": id, "from_id": fromID, "to_id": toID,
		})
	}
	if fromID == toID {
		return nil, NewValidationError("self_loop", map[string]string{"task_id": fromID})
	}
	if !typ.Valid() {
		return nil, NewValidationError("invalid_type", map[string]string{"type": string(typ)})
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &Relationship{
		ID:          id,
		FromID:      fromID,
		ToID:        toID,
		Type:        typ,
		Description: strings.TrimSpace(description),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// ChangeType switches the edge type; no-op when unchanged. Duplicate and
// cycle rules need repository access, so they live in the mutation service.
func (r *Relationship) ChangeType(typ RelationshipType) error {
	if !typ.Valid() {
		return NewValidationError("invalid_type", map[string]string{"type": string(typ)})
	}
	if typ == r.Type {
		return nil
	}
	r.Type = typ
	r.UpdatedAt = time.Now()
	return nil
}

// AttachDescription sets the free-form description. Empty or blank input
// clears it; anything else is trimmed and stored verbatim.
func (r *Relationship) AttachDescription(description string) {
	description = strings.TrimSpace(description)
	if description == r.Description {
		return
	}
	r.Description = description
	r.UpdatedAt = time.Now()
}
