package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/internal/log"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/service"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/storage"
)

// NewMux wires every handler onto a fresh ServeMux.
func NewMux(store storage.Store) *http.ServeMux {
	tasks := service.NewTaskService(store, log.GetLogger())
	relationships := service.NewRelationshipService(store, log.GetLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/tasks", TasksHandler(tasks))
	mux.HandleFunc("/tasks/", TaskByIDHandler(tasks))
	mux.HandleFunc("/relationships", RelationshipsHandler(relationships))
	mux.HandleFunc("/relationships/", RelationshipByIDHandler(relationships))
	mux.HandleFunc("/board", BoardHandler(tasks, relationships))
	mux.HandleFunc("/hierarchy", HierarchyHandler(tasks, relationships))
	return mux
}

// StartServer runs the board API on the given port.
func StartServer(port string, store storage.Store) error {
	log.GetLogger().Infof("Starting board server on :%s", port)
	return http.ListenAndServe(":"+port, NewMux(store))
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps domain errors onto status codes: ValidationError is a bad
// request, NotFoundError a 404, anything else a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case models.IsValidation(err):
		status = http.StatusBadRequest
	case models.IsNotFound(err):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.GetLogger().Errorf("Request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type taskPayload struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *string          `json:"status"`
	Priority    *int             `json:"priority"`
	Category    *string          `json:"category"`
	Color       *string          `json:"color"`
	Icon        *string          `json:"icon"`
	Position    *models.Position `json:"position"`
}

func TasksHandler(svc *service.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listTasks(w, r, svc)
		case http.MethodPost:
			createTask(w, r, svc)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func createTask(w http.ResponseWriter, r *http.Request, svc *service.TaskService) {
	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, models.NewValidationError("invalid_json", map[string]string{"detail": err.Error()}))
		return
	}
	in := service.CreateTaskInput{Position: payload.Position}
	if payload.Title != nil {
		in.Title = *payload.Title
	}
	if payload.Description != nil {
		in.Description = *payload.Description
	}
	if payload.Status != nil {
		in.Status = models.TaskStatus(*payload.Status)
	}
	if payload.Priority != nil {
		in.Priority = *payload.Priority
	}
	if payload.Category != nil {
		in.Category = *payload.Category
	}
	if payload.Color != nil {
		in.Color = *payload.Color
	}
	if payload.Icon != nil {
		in.Icon = *payload.Icon
	}
	task, err := svc.Create(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func listTasks(w http.ResponseWriter, r *http.Request, svc *service.TaskService) {
	in, err := taskListInputFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tasks, err := svc.List(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func TaskByIDHandler(svc *service.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/tasks/")
		switch r.Method {
		case http.MethodGet:
			task, err := svc.Get(id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, task)
		case http.MethodPatch:
			var payload taskPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeError(w, models.NewValidationError("invalid_json", map[string]string{"detail": err.Error()}))
				return
			}
			in := service.UpdateTaskInput{
				ID:          id,
				Title:       payload.Title,
				Description: payload.Description,
				Priority:    payload.Priority,
				Category:    payload.Category,
				Color:       payload.Color,
				Icon:        payload.Icon,
				Position:    payload.Position,
			}
			if payload.Status != nil {
				status := models.TaskStatus(*payload.Status)
				in.Status = &status
			}
			task, err := svc.Update(in)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, task)
		case http.MethodDelete:
			if err := svc.Delete(id); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

type relationshipPayload struct {
	FromID      string  `json:"from_id"`
	ToID        string  `json:"to_id"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
}

func RelationshipsHandler(svc *service.RelationshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			in, err := relationshipListInputFromQuery(r)
			if err != nil {
				writeError(w, err)
				return
			}
			rels, err := svc.List(in)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, rels)
		case http.MethodPost:
			var payload relationshipPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeError(w, models.NewValidationError("invalid_json", map[string]string{"detail": err.Error()}))
				return
			}
			in := service.CreateRelationshipInput{
				FromID: payload.FromID,
				ToID:   payload.ToID,
			}
			if payload.Type != nil {
				in.Type = models.RelationshipType(*payload.Type)
			}
			if payload.Description != nil {
				in.Description = *payload.Description
			}
			rel, err := svc.Create(in)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, rel)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func RelationshipByIDHandler(svc *service.RelationshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/relationships/")
		switch r.Method {
		case http.MethodPatch:
			var payload relationshipPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeError(w, models.NewValidationError("invalid_json", map[string]string{"detail": err.Error()}))
				return
			}
			in := service.UpdateTypeInput{ID: id, Description: payload.Description}
			if payload.Type != nil {
				typ := models.RelationshipType(*payload.Type)
				in.Type = &typ
			}
			rel, err := svc.UpdateType(in)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, rel)
		case http.MethodDelete:
			ids := strings.Split(id, ",")
			if err := svc.Delete(ids...); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// BoardHandler serves the aggregated snapshot for the filtered task subset.
func BoardHandler(tasks *service.TaskService, relationships *service.RelationshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		in, err := taskListInputFromQuery(r)
		if err != nil {
			writeError(w, err)
			return
		}
		taskList, err := tasks.List(in)
		if err != nil {
			writeError(w, err)
			return
		}
		limit := storage.MaxLimit
		relList, err := relationships.List(service.ListRelationshipsInput{Limit: &limit})
		if err != nil {
			writeError(w, err)
			return
		}
		opts := service.SnapshotOptions{}
		if opts.Padding, err = optionalFloat(r, "padding"); err != nil {
			writeError(w, err)
			return
		}
		if opts.MinViewportSize, err = optionalFloat(r, "min_viewport_size"); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, service.BuildSnapshot(taskList, relList, opts))
	}
}

// HierarchyHandler serves the parent_of display forest.
func HierarchyHandler(tasks *service.TaskService, relationships *service.RelationshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		in, err := taskListInputFromQuery(r)
		if err != nil {
			writeError(w, err)
			return
		}
		taskList, err := tasks.List(in)
		if err != nil {
			writeError(w, err)
			return
		}
		edgeType := models.ParentOfRelationship
		if v := r.URL.Query().Get("edge_type"); v != "" {
			edgeType = models.RelationshipType(v)
			if !edgeType.Valid() {
				writeError(w, models.NewValidationError("invalid_type", map[string]string{"type": v}))
				return
			}
		}
		limit := storage.MaxLimit
		relList, err := relationships.List(service.ListRelationshipsInput{
			Types: []models.RelationshipType{edgeType},
			Limit: &limit,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, service.BuildHierarchy(taskList, relList, edgeType))
	}
}
