package service

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/storage"
)

// RelationshipService enforces the graph invariants: no self-loops, no
// duplicate (from, to, type) edges, and no cycles in the depends_on/blocks
// subgraphs. Every check runs before any write; a failed check leaves the
// store untouched.
type RelationshipService struct {
	store  storage.Store
	logger Logger
}

func NewRelationshipService(store storage.Store, logger Logger) *RelationshipService {
	return &RelationshipService{store: store, logger: logger}
}

// CreateRelationshipInput carries the Create parameters.
type CreateRelationshipInput struct {
	FromID      string
	ToID        string
	Type        models.RelationshipType
	Description string
}

// Create validates and persists a new edge between two existing tasks.
func (s *RelationshipService) Create(in CreateRelationshipInput) (rel *models.Relationship, err error) {
	candidate, err := models.NewRelationship(uuid.NewString(), in.FromID, in.ToID, in.Type, in.Description, time.Time{})
	if err != nil {
		return nil, err
	}

	if err := s.checkEndpointsExist(candidate.FromID, candidate.ToID); err != nil {
		return nil, err
	}
	if err := s.checkNoDuplicate(candidate.FromID, candidate.ToID, candidate.Type, ""); err != nil {
		return nil, err
	}
	if candidate.Type.DirectionalAcyclic() {
		if err := s.checkNoCycle(candidate.FromID, candidate.ToID, candidate.Type); err != nil {
			return nil, err
		}
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
			rel = nil
		}
	}()

	if err = txStore.SaveRelationship(*candidate); err != nil {
		return nil, errors.Wrapf(err, "failed to save relationship %s", candidate.ID)
	}
	s.logger.Infof("Created %s relationship %s: %s -> %s", candidate.Type, candidate.ID, candidate.FromID, candidate.ToID)
	return candidate, nil
}

// UpdateTypeInput carries the UpdateType parameters. Nil fields are left
// untouched; an empty Description string clears the description.
type UpdateTypeInput struct {
	ID          string
	Type        *models.RelationshipType
	Description *string
}

// UpdateType retypes a relationship and/or replaces its description. A type
// change is re-validated against the duplicate and cycle rules with the new
// type. A request that changes nothing is rejected rather than written.
func (s *RelationshipService) UpdateType(in UpdateTypeInput) (rel *models.Relationship, err error) {
	ids := dedupeIDs([]string{in.ID})
	if len(ids) == 0 {
		return nil, models.NewValidationError("empty_id", nil)
	}
	if in.Type == nil && in.Description == nil {
		return nil, models.NewValidationError("no_fields", map[string]string{"id": ids[0]})
	}

	existing, err := s.store.GetRelationship(ids[0])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, models.NewNotFoundError("relationship", ids[0])
		}
		return nil, errors.Wrapf(err, "failed to load relationship %s", ids[0])
	}

	changed := false
	if in.Type != nil && *in.Type != existing.Type {
		if !in.Type.Valid() {
			return nil, models.NewValidationError("invalid_type", map[string]string{"type": string(*in.Type)})
		}
		if err := s.checkNoDuplicate(existing.FromID, existing.ToID, *in.Type, existing.ID); err != nil {
			return nil, err
		}
		if in.Type.DirectionalAcyclic() {
			if err := s.checkNoCycle(existing.FromID, existing.ToID, *in.Type); err != nil {
				return nil, err
			}
		}
		if err := existing.ChangeType(*in.Type); err != nil {
			return nil, err
		}
		changed = true
	}
	if in.Description != nil {
		before := existing.Description
		existing.AttachDescription(*in.Description)
		if existing.Description != before {
			changed = true
		}
	}
	if !changed {
		return nil, models.NewValidationError("no_effective_change", map[string]string{"id": existing.ID})
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
			rel = nil
		}
	}()

	if err = txStore.UpdateRelationship(existing); err != nil {
		return nil, errors.Wrapf(err, "failed to update relationship %s", existing.ID)
	}
	s.logger.Infof("Updated relationship %s", existing.ID)
	return &existing, nil
}

// Delete removes one or more relationships by id. The id list is trimmed and
// de-duplicated; every id must exist or nothing is deleted.
func (s *RelationshipService) Delete(ids ...string) (err error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return models.NewValidationError("empty_id_list", nil)
	}

	// Resolve all ids as one concurrent fan-out before touching anything.
	missing := make([]string, len(ids))
	lookupErrs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			if _, getErr := s.store.GetRelationship(id); getErr != nil {
				if errors.Is(getErr, storage.ErrNotFound) {
					missing[i] = id
					return
				}
				lookupErrs[i] = getErr
			}
		}(i, id)
	}
	wg.Wait()

	for _, lookupErr := range lookupErrs {
		if lookupErr != nil {
			return errors.Wrap(lookupErr, "failed to load relationships for deletion")
		}
	}
	var notFound []string
	for _, id := range missing {
		if id != "" {
			notFound = append(notFound, id)
		}
	}
	if len(notFound) > 0 {
		return models.NewNotFoundError("relationship", notFound...)
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	for _, id := range ids {
		if err = txStore.DeleteRelationship(id); err != nil {
			return errors.Wrapf(err, "failed to delete relationship %s", id)
		}
	}
	s.logger.Infof("Deleted %d relationship(s)", len(ids))
	return nil
}

// DeleteByTask removes every relationship touching the task. This is the
// cascade path the task-deletion flow calls so no dangling edges remain.
func (s *RelationshipService) DeleteByTask(taskID string) (int, error) {
	ids := dedupeIDs([]string{taskID})
	if len(ids) == 0 {
		return 0, models.NewValidationError("empty_id", nil)
	}
	removed, err := s.store.DeleteByTaskID(ids[0])
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete relationships for task %s", ids[0])
	}
	if removed > 0 {
		s.logger.Infof("Cascade-deleted %d relationship(s) for task %s", removed, ids[0])
	}
	return removed, nil
}

// ListRelationshipsInput carries the query parameters. Nil numeric fields
// take defaults.
type ListRelationshipsInput struct {
	FromID    string
	ToID      string
	Involving string
	Types     []models.RelationshipType
	Limit     *int
	Offset    *int
}

// List normalizes and validates the filter, then delegates to the store.
func (s *RelationshipService) List(in ListRelationshipsInput) ([]models.Relationship, error) {
	query := storage.RelationshipQuery{}

	for _, f := range []struct {
		name  string
		value string
		dst   *string
	}{
		{"from_id", in.FromID, &query.FromID},
		{"to_id", in.ToID, &query.ToID},
		{"involving", in.Involving, &query.Involving},
	} {
		trimmed := strings.TrimSpace(f.value)
		if f.value != "" && trimmed == "" {
			return nil, models.NewValidationError("blank_"+f.name, map[string]string{f.name: f.value})
		}
		*f.dst = trimmed
	}

	if len(in.Types) > 0 {
		seen := make(map[models.RelationshipType]struct{}, len(in.Types))
		for _, t := range in.Types {
			if !t.Valid() {
				return nil, models.NewValidationError("invalid_type", map[string]string{"type": string(t)})
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			query.Types = append(query.Types, t)
		}
	}

	limit, err := normalizeLimit(in.Limit)
	if err != nil {
		return nil, err
	}
	offset, err := normalizeOffset(in.Offset)
	if err != nil {
		return nil, err
	}
	query.Limit = limit
	query.Offset = offset

	return s.store.ListRelationships(query)
}

// checkEndpointsExist resolves both endpoints concurrently and reports every
// missing id in one NotFoundError.
func (s *RelationshipService) checkEndpointsExist(fromID, toID string) error {
	type lookup struct {
		id      string
		missing bool
		err     error
	}
	results := make([]lookup, 2)
	var wg sync.WaitGroup
	for i, id := range []string{fromID, toID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i].id = id
			if _, err := s.store.GetTask(id); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					results[i].missing = true
					return
				}
				results[i].err = err
			}
		}(i, id)
	}
	wg.Wait()

	var missing []string
	for _, r := range results {
		if r.err != nil {
			return errors.Wrapf(r.err, "failed to look up task %s", r.id)
		}
		if r.missing {
			missing = append(missing, r.id)
		}
	}
	if len(missing) > 0 {
		return models.NewNotFoundError("task", missing...)
	}
	return nil
}

// checkNoDuplicate rejects a second edge with the same (from, to, type)
// triple. excludeID skips the relationship being retyped.
func (s *RelationshipService) checkNoDuplicate(fromID, toID string, typ models.RelationshipType, excludeID string) error {
	existing, err := s.store.FindBetween(fromID, toID, &typ)
	if err != nil {
		return errors.Wrap(err, "failed to check for duplicate relationship")
	}
	for _, r := range existing {
		if r.ID != excludeID {
			return models.NewValidationError("already_exists", map[string]string{
				"from_id": fromID, "to_id": toID, "type": string(typ),
			})
		}
	}
	return nil
}

// checkNoCycle rejects the edge from -> to when from is already reachable
// from to through edges of the same type. The walk keeps a visited set, so a
// cycle already present in stored data cannot loop it.
func (s *RelationshipService) checkNoCycle(fromID, toID string, typ models.RelationshipType) error {
	visited := map[string]struct{}{toID: {}}
	frontier := []string{toID}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		// Page through the outgoing edges; a short read ends the node.
		for offset := 0; ; offset += storage.MaxLimit {
			outgoing, err := s.store.ListRelationships(storage.RelationshipQuery{
				FromID: current,
				Types:  []models.RelationshipType{typ},
				Limit:  storage.MaxLimit,
				Offset: offset,
			})
			if err != nil {
				return errors.Wrapf(err, "failed to walk %s edges from %s", typ, current)
			}
			for _, edge := range outgoing {
				if edge.ToID == fromID {
					return models.NewValidationError("would_create_cycle", map[string]string{
						"from_id": fromID, "to_id": toID, "type": string(typ),
					})
				}
				if _, seen := visited[edge.ToID]; seen {
					continue
				}
				visited[edge.ToID] = struct{}{}
				frontier = append(frontier, edge.ToID)
			}
			if len(outgoing) < storage.MaxLimit {
				break
			}
		}
	}
	return nil
}
