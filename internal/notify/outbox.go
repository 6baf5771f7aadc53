// Package notify keeps the simulated e-mails produced by task transitions.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tracker/internal/models"
)

// Store persists notifications for the session.
type Store interface {
	SaveNotifications(ctx context.Context, notes []models.Notification) error
	ListNotifications(ctx context.Context, taskID int64) ([]models.Notification, error)
}

// Outbox records every notification and logs it. Nothing is delivered.
type Outbox struct {
	store  Store
	logger *slog.Logger
}

// NewOutbox builds an outbox over the session store.
func NewOutbox(store Store, logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{store: store, logger: logger}
}

// Notify records the notifications in order.
func (o *Outbox) Notify(ctx context.Context, notes []models.Notification) error {
	if err := o.store.SaveNotifications(ctx, notes); err != nil {
		return fmt.Errorf("record notifications: %w", err)
	}
	for _, n := range notes {
		o.logger.Info("notification recorded",
			slog.String("id", n.ID),
			slog.Int64("task_id", n.TaskID),
			slog.String("kind", string(n.Kind)),
			slog.String("audience", string(n.Audience)),
			slog.String("to", strings.Join(n.Recipients, ",")))
	}
	return nil
}

// History returns the notifications recorded for a task, oldest first.
func (o *Outbox) History(ctx context.Context, taskID int64) ([]models.Notification, error) {
	return o.store.ListNotifications(ctx, taskID)
}
