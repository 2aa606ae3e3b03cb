package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/service"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/storage"
)

func parseFloat(v, field string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, models.NewValidationError("invalid_number", map[string]string{field: v})
	}
	return f, nil
}

func parseInt(v, field string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, models.NewValidationError("invalid_number", map[string]string{field: v})
	}
	return n, nil
}

func optionalInt(r *http.Request, key string) (*int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	n, err := parseInt(v, key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optionalFloat(r *http.Request, key string) (*float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	f, err := parseFloat(v, key)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// taskListInputFromQuery maps the listing query string onto the task filter:
// status (repeatable or comma-separated), category, search, priority_min/max,
// x_min/x_max/y_min/y_max, limit, offset, sort, direction.
func taskListInputFromQuery(r *http.Request) (service.ListTasksInput, error) {
	q := r.URL.Query()
	in := service.ListTasksInput{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		SortBy:   storage.SortField(q.Get("sort")),
		SortDir:  storage.SortDirection(q.Get("direction")),
	}

	for _, raw := range q["status"] {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				in.Statuses = append(in.Statuses, models.TaskStatus(s))
			}
		}
	}

	prMin, err := optionalInt(r, "priority_min")
	if err != nil {
		return in, err
	}
	prMax, err := optionalInt(r, "priority_max")
	if err != nil {
		return in, err
	}
	if prMin != nil || prMax != nil {
		in.Priority = &storage.PriorityRange{Min: prMin, Max: prMax}
	}

	xMin, err := optionalFloat(r, "x_min")
	if err != nil {
		return in, err
	}
	xMax, err := optionalFloat(r, "x_max")
	if err != nil {
		return in, err
	}
	yMin, err := optionalFloat(r, "y_min")
	if err != nil {
		return in, err
	}
	yMax, err := optionalFloat(r, "y_max")
	if err != nil {
		return in, err
	}
	if xMin != nil || xMax != nil || yMin != nil || yMax != nil {
		in.Viewport = &storage.Viewport{
			X: storage.Range{Min: xMin, Max: xMax},
			Y: storage.Range{Min: yMin, Max: yMax},
		}
	}

	if in.Limit, err = optionalInt(r, "limit"); err != nil {
		return in, err
	}
	if in.Offset, err = optionalInt(r, "offset"); err != nil {
		return in, err
	}
	return in, nil
}

// relationshipListInputFromQuery maps the query string onto the relationship
// filter: from, to, involving, type (repeatable or comma-separated), limit,
// offset.
func relationshipListInputFromQuery(r *http.Request) (service.ListRelationshipsInput, error) {
	q := r.URL.Query()
	in := service.ListRelationshipsInput{
		FromID:    q.Get("from"),
		ToID:      q.Get("to"),
		Involving: q.Get("involving"),
	}
	for _, raw := range q["type"] {
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				in.Types = append(in.Types, models.RelationshipType(t))
			}
		}
	}
	var err error
	if in.Limit, err = optionalInt(r, "limit"); err != nil {
		return in, err
	}
	if in.Offset, err = optionalInt(r, "offset"); err != nil {
		return in, err
	}
	return in, nil
}
