package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/models"
)

type memStore struct {
	saved []models.Notification
	err   error
}

func (m *memStore) SaveNotifications(_ context.Context, notes []models.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, notes...)
	return nil
}

func (m *memStore) ListNotifications(_ context.Context, taskID int64) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.saved {
		if n.TaskID == taskID {
			out = append(out, n)
		}
	}
	return out, nil
}

func TestOutbox_Notify(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	store := &memStore{}
	o := NewOutbox(store, slog.New(slog.NewTextHandler(&logs, nil)))

	notes := []models.Notification{
		{ID: "a", TaskID: 1, Kind: models.NotificationCompletion, Audience: models.AudienceResponsible, Recipients: []string{"dev@example.com"}},
		{ID: "b", TaskID: 1, Kind: models.NotificationCompletion, Audience: models.AudienceLeadership, Recipients: []string{"lead@example.com", "mgr@example.com"}},
		{ID: "c", TaskID: 2, Kind: models.NotificationCancellation, Audience: models.AudienceResponsible},
	}
	require.NoError(t, o.Notify(ctx, notes))

	history, err := o.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "a", history[0].ID)
	assert.Equal(t, "b", history[1].ID)

	assert.Contains(t, logs.String(), "notification recorded")
	assert.Contains(t, logs.String(), "to=lead@example.com,mgr@example.com")
}

func TestOutbox_NotifyStoreError(t *testing.T) {
	o := NewOutbox(&memStore{err: errors.New("disk full")}, nil)
	err := o.Notify(context.Background(), []models.Notification{{ID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record notifications")
}
