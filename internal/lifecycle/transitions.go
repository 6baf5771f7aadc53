package lifecycle

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"tracker/internal/models"
)

// applyCompletion records today as the actual date and settles the status.
// On error t is left untouched.
func applyCompletion(t *models.Task, today civil.Date, delayReason string, strict bool) error {
	if strict && t.Status.Terminal() {
		return fmt.Errorf("task %d is already %s: %w", t.ID, t.Status, models.ErrInvalidInput)
	}

	late := t.LateOn(today)
	reason := strings.TrimSpace(delayReason)
	if late && reason == "" {
		return fmt.Errorf("task %d finished after %s, a delay reason is required: %w", t.ID, t.PlannedEnd, models.ErrInvalidInput)
	}

	done := today
	t.CompletedOn = &done
	if late {
		t.Status = models.StatusOverdue
		t.DelayReason = delayReason
	} else {
		t.Status = models.StatusCompleted
	}
	return nil
}

// applyCancellation stores the reason verbatim and cancels the task.
func applyCancellation(t *models.Task, reason string, strict bool) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("task %d: a cancellation reason is required: %w", t.ID, models.ErrInvalidInput)
	}
	if strict && t.Status.Terminal() {
		return fmt.Errorf("task %d is already %s: %w", t.ID, t.Status, models.ErrInvalidInput)
	}
	t.Status = models.StatusCancelled
	t.CancelReason = reason
	return nil
}

// applyStart moves a planned task into progress.
func applyStart(t *models.Task) error {
	if t.Status != models.StatusPlanning {
		return fmt.Errorf("task %d is %s, only planned tasks can start: %w", t.ID, t.Status, models.ErrInvalidInput)
	}
	t.Status = models.StatusInProgress
	return nil
}

// overdueOn reports whether passive deadline evaluation marks t overdue.
func overdueOn(t models.Task, today civil.Date) bool {
	return !t.Status.Terminal() && t.LateOn(today)
}
