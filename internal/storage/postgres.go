package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/storage"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// PostgresStore implements storage.Store over PostgreSQL.
type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// taskRow flattens the task for sqlx scanning; Position is stored as two
// columns.
type taskRow struct {
	ID          string            `db:"id"`
	Title       string            `db:"title"`
	Description string            `db:"description"`
	Status      models.TaskStatus `db:"status"`
	Priority    int               `db:"priority"`
	Category    string            `db:"category"`
	Color       string            `db:"color"`
	Icon        string            `db:"icon"`
	PositionX   float64           `db:"position_x"`
	PositionY   float64           `db:"position_y"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
	CompletedAt *time.Time        `db:"completed_at"`
}

func (r taskRow) toModel() models.Task {
	return models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		Category:    r.Category,
		Color:       r.Color,
		Icon:        r.Icon,
		Position:    models.Position{X: r.PositionX, Y: r.PositionY},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
	}
}

const taskColumns = "id, title, description, status, priority, category, color, icon, position_x, position_y, created_at, updated_at, completed_at"

func (s *PostgresStore) SaveTask(t models.Task) error {
	_, err := s.db.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.Category, t.Color, t.Icon,
		t.Position.X, t.Position.Y, t.CreatedAt, t.UpdatedAt, t.CompletedAt)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTask(id string) (models.Task, error) {
	var row taskRow
	err := s.db.Get(&row, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Task{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return row.toModel(), nil
}

var sortColumns = map[storage.SortField]string{
	storage.SortByPriority:  "priority",
	storage.SortByCreatedAt: "created_at",
	storage.SortByUpdatedAt: "updated_at",
}

func (s *PostgresStore) ListTasks(filter storage.TaskFilter) ([]models.Task, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		where = append(where, "status = ANY("+arg(pq.Array(statuses))+")")
	}
	if filter.Category != "" {
		where = append(where, "category = "+arg(filter.Category))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, "(title ILIKE "+arg(pattern)+" OR description ILIKE "+arg(pattern)+")")
	}
	if pr := filter.Priority; pr != nil {
		if pr.Min != nil {
			where = append(where, "priority >= "+arg(*pr.Min))
		}
		if pr.Max != nil {
			where = append(where, "priority <= "+arg(*pr.Max))
		}
	}
	if vp := filter.Viewport; vp != nil {
		if vp.X.Min != nil {
			where = append(where, "position_x >= "+arg(*vp.X.Min))
		}
		if vp.X.Max != nil {
			where = append(where, "position_x <= "+arg(*vp.X.Max))
		}
		if vp.Y.Min != nil {
			where = append(where, "position_y >= "+arg(*vp.Y.Min))
		}
		if vp.Y.Max != nil {
			where = append(where, "position_y <= "+arg(*vp.Y.Max))
		}
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.SortDir == storage.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", column, direction)

	limit := filter.Limit
	if limit <= 0 {
		limit = storage.DefaultLimit
	}
	if limit > storage.MaxLimit {
		limit = storage.MaxLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += " LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows := []taskRow{}
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]models.Task, len(rows))
	for i, row := range rows {
		tasks[i] = row.toModel()
	}
	return tasks, nil
}

func (s *PostgresStore) UpdateTask(t models.Task) error {
	res, err := s.db.Exec(`
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4, category = $5,
		    color = $6, icon = $7, position_x = $8, position_y = $9, updated_at = $10, completed_at = $11
		WHERE id = $12`,
		t.Title, t.Description, t.Status, t.Priority, t.Category, t.Color, t.Icon,
		t.Position.X, t.Position.Y, t.UpdatedAt, t.CompletedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteTask(id string) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return requireRow(res)
}

const relationshipColumns = "id, from_id, to_id, type, description, created_at, updated_at"

func (s *PostgresStore) SaveRelationship(r models.Relationship) error {
	_, err := s.db.Exec(`
		INSERT INTO relationships (`+relationshipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.FromID, r.ToID, r.Type, r.Description, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save relationship: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRelationship(id string) (models.Relationship, error) {
	var rel models.Relationship
	err := s.db.Get(&rel, "SELECT "+relationshipColumns+" FROM relationships WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Relationship{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Relationship{}, fmt.Errorf("get relationship %s: %w", id, err)
	}
	return rel, nil
}

func (s *PostgresStore) FindBetween(fromID, toID string, typ *models.RelationshipType) ([]models.Relationship, error) {
	query := "SELECT " + relationshipColumns + " FROM relationships WHERE from_id = $1 AND to_id = $2"
	args := []interface{}{fromID, toID}
	if typ != nil {
		query += " AND type = $3"
		args = append(args, *typ)
	}
	rels := []models.Relationship{}
	if err := s.db.Select(&rels, query, args...); err != nil {
		return nil, fmt.Errorf("find relationships between %s and %s: %w", fromID, toID, err)
	}
	return rels, nil
}

func (s *PostgresStore) ListRelationships(query storage.RelationshipQuery) ([]models.Relationship, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.FromID != "" {
		where = append(where, "from_id = "+arg(query.FromID))
	}
	if query.ToID != "" {
		where = append(where, "to_id = "+arg(query.ToID))
	}
	if query.Involving != "" {
		placeholder := arg(query.Involving)
		where = append(where, "(from_id = "+placeholder+" OR to_id = "+placeholder+")")
	}
	if len(query.Types) > 0 {
		types := make([]string, len(query.Types))
		for i, t := range query.Types {
			types[i] = string(t)
		}
		where = append(where, "type = ANY("+arg(pq.Array(types))+")")
	}

	sqlQuery := "SELECT " + relationshipColumns + " FROM relationships"
	if len(where) > 0 {
		sqlQuery += " WHERE " + strings.Join(where, " AND ")
	}
	sqlQuery += " ORDER BY created_at ASC"

	limit := query.Limit
	if limit <= 0 {
		limit = storage.DefaultLimit
	}
	if limit > storage.MaxLimit {
		limit = storage.MaxLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	sqlQuery += " LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rels := []models.Relationship{}
	if err := s.db.Select(&rels, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	return rels, nil
}

func (s *PostgresStore) UpdateRelationship(r models.Relationship) error {
	res, err := s.db.Exec(`
		UPDATE relationships
		SET from_id = $1, to_id = $2, type = $3, description = $4, updated_at = $5
		WHERE id = $6`,
		r.FromID, r.ToID, r.Type, r.Description, r.UpdatedAt, r.ID)
	if err != nil {
		return fmt.Errorf("update relationship %s: %w", r.ID, err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteRelationship(id string) error {
	res, err := s.db.Exec("DELETE FROM relationships WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete relationship %s: %w", id, err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteByTaskID(taskID string) (int, error) {
	res, err := s.db.Exec("DELETE FROM relationships WHERE from_id = $1 OR to_id = $1", taskID)
	if err != nil {
		return 0, fmt.Errorf("delete relationships for task %s: %w", taskID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
