package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tracker/internal/models"
)

const taskSelect = `SELECT t.id, t.project_id, t.description, t.start_date, t.end_date, t.completed_on,
        t.status, t.priority, t.cancel_reason, t.delay_reason, t.created_at, t.updated_at,
        u.id, u.name, u.email, u.login, u.secret, u.title, u.role
    FROM tasks t
    JOIN users u ON u.id = t.responsible_id`

// ListTasks returns the tasks of a project in insertion order.
func (s *Store) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, taskSelect+` WHERE t.project_id = ? ORDER BY t.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a new task for a project.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Description) == "" {
		return models.Task{}, fmt.Errorf("task description must not be empty: %w", models.ErrInvalidInput)
	}
	if _, ok := models.ValidTaskStatuses[t.Status]; !ok {
		t.Status = models.StatusPlanning
	}
	if t.Priority == "" {
		t.Priority = models.PriorityNormal
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(project_id, description, start_date, end_date, status, priority, responsible_id)
        VALUES(?, ?, ?, ?, ?, ?, ?)`,
		t.ProjectID, strings.TrimSpace(t.Description), t.Start.String(), t.PlannedEnd.String(),
		string(t.Status), string(t.Priority), t.Responsible.ID)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask saves the lifecycle fields of a task: status, completion date
// and reasons. Description, dates and responsible are immutable.
func (s *Store) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if _, ok := models.ValidTaskStatuses[t.Status]; !ok {
		return models.Task{}, fmt.Errorf("unknown status %q: %w", t.Status, models.ErrInvalidInput)
	}

	var completedOn sql.NullString
	if t.CompletedOn != nil {
		completedOn = sql.NullString{String: t.CompletedOn.String(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ?, completed_on = ?, cancel_reason = ?, delay_reason = ?,
        updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(t.Status), completedOn, t.CancelReason, t.DelayReason, t.ID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("task %d: %w", t.ID, models.ErrNotFound)
	}
	return s.GetTask(ctx, t.ID)
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t                                models.Task
		start, end, status, priority, rl string
		completedOn                      sql.NullString
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Description, &start, &end, &completedOn,
		&status, &priority, &t.CancelReason, &t.DelayReason, &t.CreatedAt, &t.UpdatedAt,
		&t.Responsible.ID, &t.Responsible.Name, &t.Responsible.Email, &t.Responsible.Login,
		&t.Responsible.Secret, &t.Responsible.Title, &rl)
	if err != nil {
		return models.Task{}, err
	}

	if t.Start, err = parseDate(start); err != nil {
		return models.Task{}, err
	}
	if t.PlannedEnd, err = parseDate(end); err != nil {
		return models.Task{}, err
	}
	if completedOn.Valid {
		d, err := parseDate(completedOn.String)
		if err != nil {
			return models.Task{}, err
		}
		t.CompletedOn = &d
	}
	t.Status = models.Status(status)
	t.Priority = models.Priority(priority)
	t.Responsible.Role = models.Role(rl)
	return t, nil
}
