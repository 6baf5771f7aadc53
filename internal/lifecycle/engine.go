// Package lifecycle drives tasks from planning to a terminal outcome and
// emits the notifications each outcome produces.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"

	"tracker/internal/models"
)

// Store is the part of the session repository the engine reads and writes.
type Store interface {
	GetProject(ctx context.Context, id int64) (models.Project, error)
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	UpdateTask(ctx context.Context, t models.Task) (models.Task, error)
	ListTasks(ctx context.Context, projectID int64) ([]models.Task, error)
}

// Notifier receives the records produced by completions and cancellations.
type Notifier interface {
	Notify(ctx context.Context, notes []models.Notification) error
}

// Options tune transition rules.
type Options struct {
	// StrictTerminal rejects completing or cancelling a task that is
	// already completed or cancelled.
	StrictTerminal bool
}

// Engine owns task state transitions.
type Engine struct {
	store    Store
	notifier Notifier
	opts     Options
	logger   *slog.Logger
}

// NewTask carries the fields needed to plan a task.
type NewTask struct {
	Description   string
	ResponsibleID int64
	Start         civil.Date
	End           civil.Date
	Priority      models.Priority
}

// CompletionPlan is the first phase of a completion: it tells the caller
// whether Complete will require a delay reason.
type CompletionPlan struct {
	Task models.Task
	Late bool
}

// CompletionResult is the settled task and the notifications emitted.
type CompletionResult struct {
	Task          models.Task
	Notifications []models.Notification
}

// CancellationResult is the cancelled task and the notifications emitted.
type CancellationResult struct {
	Task          models.Task
	Notifications []models.Notification
}

// NewEngine builds an engine. A nil notifier drops notifications after
// returning them to the caller.
func NewEngine(store Store, notifier Notifier, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, notifier: notifier, opts: opts, logger: logger}
}

// AddTask plans a new task in a project. The responsible user must already
// be on the project team.
func (e *Engine) AddTask(ctx context.Context, projectID int64, nt NewTask) (models.Task, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return models.Task{}, err
	}
	if strings.TrimSpace(nt.Description) == "" {
		return models.Task{}, fmt.Errorf("task description must not be empty: %w", models.ErrInvalidInput)
	}
	if !nt.Start.IsValid() || !nt.End.IsValid() {
		return models.Task{}, fmt.Errorf("task dates must be valid calendar dates: %w", models.ErrInvalidInput)
	}
	if nt.End.Before(nt.Start) {
		return models.Task{}, fmt.Errorf("planned end %s is before start %s: %w", nt.End, nt.Start, models.ErrInvalidInput)
	}

	var responsible *models.User
	for i := range project.Team {
		if project.Team[i].ID == nt.ResponsibleID {
			responsible = &project.Team[i]
			break
		}
	}
	if responsible == nil {
		return models.Task{}, fmt.Errorf("user %d is not on the team of project %d: %w", nt.ResponsibleID, projectID, models.ErrInvalidInput)
	}

	priority := nt.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	task, err := e.store.CreateTask(ctx, models.Task{
		ProjectID:   projectID,
		Description: nt.Description,
		Start:       nt.Start,
		PlannedEnd:  nt.End,
		Status:      models.StatusPlanning,
		Priority:    priority,
		Responsible: *responsible,
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("add task: %w", err)
	}
	e.logger.Info("task planned",
		slog.Int64("task_id", task.ID),
		slog.Int64("project_id", projectID),
		slog.Int64("responsible_id", responsible.ID),
		slog.String("planned_end", task.PlannedEnd.String()))
	return task, nil
}

// ListTasks returns the tasks of a project in insertion order.
func (e *Engine) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	if _, err := e.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return e.store.ListTasks(ctx, projectID)
}

// Task fetches a task by id.
func (e *Engine) Task(ctx context.Context, taskID int64) (models.Task, error) {
	return e.store.GetTask(ctx, taskID)
}

// Start moves a planned task into progress.
func (e *Engine) Start(ctx context.Context, taskID int64) (models.Task, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if err := applyStart(&task); err != nil {
		return models.Task{}, err
	}
	return e.save(ctx, task)
}

// BeginCompletion reports whether completing the task today needs a delay
// reason. It changes nothing.
func (e *Engine) BeginCompletion(ctx context.Context, taskID int64, today civil.Date) (CompletionPlan, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return CompletionPlan{}, err
	}
	if e.opts.StrictTerminal && task.Status.Terminal() {
		return CompletionPlan{}, fmt.Errorf("task %d is already %s: %w", task.ID, task.Status, models.ErrInvalidInput)
	}
	return CompletionPlan{Task: task, Late: task.LateOn(today)}, nil
}

// Complete finishes the task on today. Finishing after the planned end
// marks it overdue and requires delayReason; otherwise the reason is ignored.
func (e *Engine) Complete(ctx context.Context, taskID int64, today civil.Date, delayReason string) (CompletionResult, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return CompletionResult{}, err
	}
	before := task
	if err := applyCompletion(&task, today, delayReason, e.opts.StrictTerminal); err != nil {
		return CompletionResult{}, err
	}

	task, notes, err := e.settle(ctx, before, task, models.NotificationCompletion)
	if err != nil {
		return CompletionResult{}, err
	}
	return CompletionResult{Task: task, Notifications: notes}, nil
}

// Cancel cancels the task and stores reason verbatim.
func (e *Engine) Cancel(ctx context.Context, taskID int64, reason string) (CancellationResult, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return CancellationResult{}, err
	}
	before := task
	if err := applyCancellation(&task, reason, e.opts.StrictTerminal); err != nil {
		return CancellationResult{}, err
	}

	task, notes, err := e.settle(ctx, before, task, models.NotificationCancellation)
	if err != nil {
		return CancellationResult{}, err
	}
	return CancellationResult{Task: task, Notifications: notes}, nil
}

// EvaluateOverdue marks a non-terminal task overdue once today is past its
// planned end. Completed and cancelled tasks are never touched.
func (e *Engine) EvaluateOverdue(ctx context.Context, taskID int64, today civil.Date) (bool, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return false, err
	}
	_, overdue, err := e.evaluate(ctx, task, today)
	return overdue, err
}

// EvaluateProject runs overdue evaluation over every task of a project and
// returns how many tasks changed status.
func (e *Engine) EvaluateProject(ctx context.Context, projectID int64, today civil.Date) (int, error) {
	tasks, err := e.ListTasks(ctx, projectID)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, t := range tasks {
		moved, _, err := e.evaluate(ctx, t, today)
		if err != nil {
			return changed, err
		}
		if moved {
			changed++
		}
	}
	return changed, nil
}

func (e *Engine) evaluate(ctx context.Context, task models.Task, today civil.Date) (changed, overdue bool, err error) {
	if !overdueOn(task, today) {
		return false, false, nil
	}
	if task.Status == models.StatusOverdue {
		return false, true, nil
	}
	task.Status = models.StatusOverdue
	if _, err := e.save(ctx, task); err != nil {
		return false, false, err
	}
	return true, true, nil
}

func (e *Engine) save(ctx context.Context, task models.Task) (models.Task, error) {
	saved, err := e.store.UpdateTask(ctx, task)
	if err != nil {
		return models.Task{}, fmt.Errorf("save task: %w", err)
	}
	e.logger.Info("task transitioned", slog.Int64("task_id", saved.ID), slog.String("status", string(saved.Status)))
	return saved, nil
}

// settle saves after and records its notifications. If notifying fails the
// task is written back as before, so a failed transition leaves no trace.
func (e *Engine) settle(ctx context.Context, before, after models.Task, kind models.NotificationKind) (models.Task, []models.Notification, error) {
	saved, err := e.save(ctx, after)
	if err != nil {
		return models.Task{}, nil, err
	}
	notes, err := e.emit(ctx, saved, kind)
	if err != nil {
		if _, rerr := e.store.UpdateTask(ctx, before); rerr != nil {
			return models.Task{}, nil, errors.Join(err, fmt.Errorf("restore task %d: %w", before.ID, rerr))
		}
		e.logger.Warn("transition rolled back",
			slog.Int64("task_id", before.ID),
			slog.String("status", string(before.Status)),
			slog.String("error", err.Error()))
		return models.Task{}, nil, err
	}
	return saved, notes, nil
}

func (e *Engine) emit(ctx context.Context, task models.Task, kind models.NotificationKind) ([]models.Notification, error) {
	project, err := e.store.GetProject(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	notes := buildNotifications(task, project, kind)
	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, notes); err != nil {
			return nil, fmt.Errorf("notify: %w", err)
		}
	}
	return notes, nil
}
