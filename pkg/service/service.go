// Package service holds the board's domain services: the relationship
// mutation and query services that keep the task graph consistent, the task
// service that owns the deletion cascade, and the pure hierarchy/snapshot
// builders consumed by the presentation surfaces.
package service

import (
	"strconv"
	"strings"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/storage"
)

// Logger defines the logging interface the services depend on.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// normalizeLimit applies the default and the silent clamp. An explicitly
// supplied non-positive limit is a validation error, not a clamp.
func normalizeLimit(limit *int) (int, error) {
	if limit == nil {
		return storage.DefaultLimit, nil
	}
	if *limit <= 0 {
		return 0, models.NewValidationError("invalid_limit", map[string]string{"limit": strconv.Itoa(*limit)})
	}
	if *limit > storage.MaxLimit {
		return storage.MaxLimit, nil
	}
	return *limit, nil
}

func normalizeOffset(offset *int) (int, error) {
	if offset == nil {
		return 0, nil
	}
	if *offset < 0 {
		return 0, models.NewValidationError("invalid_offset", map[string]string{"offset": strconv.Itoa(*offset)})
	}
	return *offset, nil
}

// dedupeIDs trims, drops blanks, and de-duplicates while preserving order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
