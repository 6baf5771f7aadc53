package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracker/internal/models"
)

// SaveNotifications records emitted notifications in one transaction.
func (s *Store) SaveNotifications(ctx context.Context, notes []models.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, n := range notes {
			if n.ID == "" {
				n.ID = uuid.NewString()
			}
			if n.CreatedAt.IsZero() {
				n.CreatedAt = time.Now().UTC()
			}
			recipients, err := json.Marshal(n.Recipients)
			if err != nil {
				return fmt.Errorf("encode recipients: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO notifications(id, task_id, kind, audience, recipients, subject, body, created_at)
                VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
				n.ID, n.TaskID, string(n.Kind), string(n.Audience), string(recipients), n.Subject, n.Body, n.CreatedAt); err != nil {
				return fmt.Errorf("insert notification: %w", err)
			}
		}
		return nil
	})
}

// ListNotifications returns the notifications emitted for a task, oldest first.
func (s *Store) ListNotifications(ctx context.Context, taskID int64) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task_id, kind, audience, recipients, subject, body, created_at
        FROM notifications WHERE task_id = ? ORDER BY rowid`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notes []models.Notification
	for rows.Next() {
		var (
			n                        models.Notification
			kind, audience, rcptJSON string
		)
		if err := rows.Scan(&n.ID, &n.TaskID, &kind, &audience, &rcptJSON, &n.Subject, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if err := json.Unmarshal([]byte(rcptJSON), &n.Recipients); err != nil {
			return nil, fmt.Errorf("decode recipients: %w", err)
		}
		n.Kind = models.NotificationKind(kind)
		n.Audience = models.Audience(audience)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
