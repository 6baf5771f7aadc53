package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// MaxProjectsPerUser caps how many project teams a single user may join.
const MaxProjectsPerUser = 4

// Role gates staffing operations.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleManager       Role = "MANAGER"
	RoleContributor   Role = "CONTRIBUTOR"
)

// Status is the lifecycle stage of a task.
type Status string

const (
	StatusPlanning   Status = "PLANNING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusOverdue    Status = "OVERDUE"
)

// Priority is an advisory urgency tag.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityNormal Priority = "NORMAL"
	PriorityLow    Priority = "LOW"
)

// ValidRoles enumerates the roles a seeded user may carry.
var ValidRoles = map[Role]struct{}{
	RoleAdministrator: {},
	RoleManager:       {},
	RoleContributor:   {},
}

// ValidTaskStatuses enumerates the statuses a stored task may carry.
var ValidTaskStatuses = map[Status]struct{}{
	StatusPlanning:   {},
	StatusInProgress: {},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusOverdue:    {},
}

// Terminal reports whether no further passive transition applies.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PriorityFromChoice maps the numeric menu choice to a priority.
// Unknown choices fall back to normal.
func PriorityFromChoice(choice int) Priority {
	switch choice {
	case 1:
		return PriorityHigh
	case 2:
		return PriorityMedium
	case 4:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// User is a seeded identity. Project participation is derived from team
// memberships rather than stored on the user.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Login  string `json:"login"`
	Secret string `json:"-"`
	Title  string `json:"title"`
	Role   Role   `json:"role"`
}

// Project groups a team and an ordered task list under one administrator
// and one manager.
type Project struct {
	ID            int64     `json:"id"`
	PublicID      string    `json:"public_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Administrator User      `json:"administrator"`
	Manager       User      `json:"manager"`
	Team          []User    `json:"team"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasMember reports whether the user appears on the team.
func (p Project) HasMember(userID int64) bool {
	for _, u := range p.Team {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// Task is a unit of work owned by a single project.
type Task struct {
	ID           int64       `json:"id"`
	ProjectID    int64       `json:"project_id"`
	Description  string      `json:"description"`
	Start        civil.Date  `json:"start"`
	PlannedEnd   civil.Date  `json:"planned_end"`
	CompletedOn  *civil.Date `json:"completed_on,omitempty"`
	Status       Status      `json:"status"`
	Priority     Priority    `json:"priority"`
	Responsible  User        `json:"responsible"`
	CancelReason string      `json:"cancel_reason,omitempty"`
	DelayReason  string      `json:"delay_reason,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// LateOn reports whether the given day falls strictly after the planned end.
func (t Task) LateOn(day civil.Date) bool {
	return day.After(t.PlannedEnd)
}

// NotificationKind names the event that produced a notification.
type NotificationKind string

const (
	NotificationCompletion   NotificationKind = "completion"
	NotificationCancellation NotificationKind = "cancellation"
)

// Audience distinguishes the personal message from the leadership broadcast.
type Audience string

const (
	AudienceResponsible Audience = "responsible"
	AudienceLeadership  Audience = "leadership"
)

// Notification is a simulated e-mail describing a task status change.
type Notification struct {
	ID         string           `json:"id"`
	TaskID     int64            `json:"task_id"`
	Kind       NotificationKind `json:"kind"`
	Audience   Audience         `json:"audience"`
	Recipients []string         `json:"recipients"`
	Subject    string           `json:"subject"`
	Body       string           `json:"body"`
	CreatedAt  time.Time        `json:"created_at"`
}
