package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracker/internal/models"
)

// buildNotifications returns the personal message to the responsible user
// followed by the leadership broadcast.
func buildNotifications(task models.Task, project models.Project, kind models.NotificationKind) []models.Notification {
	now := time.Now().UTC()

	personal := models.Notification{
		ID:         uuid.NewString(),
		TaskID:     task.ID,
		Kind:       kind,
		Audience:   models.AudienceResponsible,
		Recipients: []string{task.Responsible.Email},
		CreatedAt:  now,
	}
	switch {
	case kind == models.NotificationCancellation:
		personal.Subject = "Task cancelled"
		personal.Body = fmt.Sprintf("Your task %q has been cancelled. Reason: %s", task.Description, task.CancelReason)
	case task.Status == models.StatusOverdue:
		personal.Subject = "Task completed late"
		personal.Body = fmt.Sprintf("Your task %q was completed after its planned end of %s. Delay reason: %s",
			task.Description, task.PlannedEnd, task.DelayReason)
	default:
		personal.Subject = "Thank you for your contribution!"
		personal.Body = fmt.Sprintf("Your task %q has been completed. Thank you!", task.Description)
	}

	leadership := models.Notification{
		ID:         uuid.NewString(),
		TaskID:     task.ID,
		Kind:       kind,
		Audience:   models.AudienceLeadership,
		Recipients: leadershipRecipients(project),
		Subject:    fmt.Sprintf("Task update in %s", project.Name),
		Body: fmt.Sprintf("Contributor %s updated task %q with status %s",
			task.Responsible.Name, task.Description, task.Status),
		CreatedAt: now,
	}

	return []models.Notification{personal, leadership}
}

func leadershipRecipients(p models.Project) []string {
	if p.Manager.ID == p.Administrator.ID {
		return []string{p.Administrator.Email}
	}
	return []string{p.Administrator.Email, p.Manager.Email}
}
