// Package session is the operation surface a text interface drives: it owns
// the repository and the registries for one signed-in session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"tracker/internal/access"
	"tracker/internal/export"
	"tracker/internal/identity"
	"tracker/internal/lifecycle"
	"tracker/internal/models"
	"tracker/internal/notify"
	"tracker/internal/projects"
	"tracker/internal/storage/sqlite"
)

// InputDateLayout is the day/month/year format accepted for task dates.
const InputDateLayout = "02/01/2006"

// Sink receives exported records.
type Sink interface {
	Append(records []export.Record) error
}

// Options configure a session.
type Options struct {
	// Strict rejects duplicate memberships and transitions out of
	// completed or cancelled states.
	Strict bool
	Sink   Sink
	// Today returns the current calendar date; nil uses the local clock.
	Today  func() civil.Date
	Logger *slog.Logger
}

// Session wires the registries, the lifecycle engine and the exporter
// around one store, and tracks the signed-in user.
type Session struct {
	identity *identity.Registry
	projects *projects.Registry
	engine   *lifecycle.Engine
	outbox   *notify.Outbox
	sink     Sink
	today    func() civil.Date
	logger   *slog.Logger

	actor *models.User
}

// New builds a session over store.
func New(store *sqlite.Store, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	today := opts.Today
	if today == nil {
		today = func() civil.Date { return civil.DateOf(time.Now()) }
	}

	outbox := notify.NewOutbox(store, logger.With("component", "notify"))
	return &Session{
		identity: identity.NewRegistry(store, logger.With("component", "identity")),
		projects: projects.NewRegistry(store, projects.Options{RejectDuplicates: opts.Strict}, logger.With("component", "projects")),
		engine:   lifecycle.NewEngine(store, outbox, lifecycle.Options{StrictTerminal: opts.Strict}, logger.With("component", "lifecycle")),
		outbox:   outbox,
		sink:     opts.Sink,
		today:    today,
		logger:   logger,
	}
}

// Login authenticates and remembers the user for later operations.
func (s *Session) Login(ctx context.Context, identifier, secret string) (models.User, error) {
	u, err := s.identity.Authenticate(ctx, identifier, secret)
	if err != nil {
		return models.User{}, err
	}
	s.actor = &u
	return u, nil
}

// Logout forgets the signed-in user.
func (s *Session) Logout() {
	s.actor = nil
}

// Actor returns the signed-in user.
func (s *Session) Actor() (models.User, bool) {
	if s.actor == nil {
		return models.User{}, false
	}
	return *s.actor, true
}

// Today is the calendar date lifecycle operations run against.
func (s *Session) Today() civil.Date {
	return s.today()
}

func (s *Session) require(op access.Operation) (models.User, error) {
	if s.actor == nil {
		return models.User{}, fmt.Errorf("%s: sign in first: %w", op, models.ErrForbidden)
	}
	if err := access.Check(s.actor.Role, op); err != nil {
		return models.User{}, err
	}
	return *s.actor, nil
}

// Can reports whether the signed-in user may perform op.
func (s *Session) Can(op access.Operation) bool {
	_, err := s.require(op)
	return err == nil
}

// Users lists every known user.
func (s *Session) Users(ctx context.Context) ([]models.User, error) {
	return s.identity.List(ctx)
}

// ManagerCandidates lists users holding the manager role.
func (s *Session) ManagerCandidates(ctx context.Context) ([]models.User, error) {
	return s.identity.ByRole(ctx, models.RoleManager)
}

// CreateProject creates a project administered by the signed-in user.
// A zero managerID makes the creator the manager as well.
func (s *Session) CreateProject(ctx context.Context, name, description string, managerID int64) (projects.Created, error) {
	actor, err := s.require(access.CreateProject)
	if err != nil {
		return projects.Created{}, err
	}
	manager := actor
	if managerID != 0 {
		if manager, err = s.identity.Get(ctx, managerID); err != nil {
			return projects.Created{}, err
		}
	}
	return s.projects.CreateProject(ctx, name, description, actor, manager)
}

// Projects lists all projects.
func (s *Session) Projects(ctx context.Context) ([]models.Project, error) {
	return s.projects.List(ctx)
}

// Project fetches one project with its team.
func (s *Session) Project(ctx context.Context, id int64) (models.Project, error) {
	return s.projects.Get(ctx, id)
}

// ProjectsOf lists the projects whose team includes the user.
func (s *Session) ProjectsOf(ctx context.Context, userID int64) ([]models.Project, error) {
	return s.projects.ProjectsOf(ctx, userID)
}

// AddMember staffs a project. Only administrators and managers may do so.
func (s *Session) AddMember(ctx context.Context, projectID, userID int64) (models.Project, error) {
	actor, err := s.require(access.AddMember)
	if err != nil {
		return models.Project{}, err
	}
	return s.projects.AddMember(ctx, actor, projectID, userID)
}

// TaskInput is a task as typed by the user.
type TaskInput struct {
	Description    string
	ResponsibleID  int64
	Start          string
	End            string
	PriorityChoice int
}

// ParseInputDate parses a dd/mm/yyyy date.
func ParseInputDate(raw string) (civil.Date, error) {
	t, err := time.Parse(InputDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return civil.Date{}, fmt.Errorf("date %q must be dd/mm/yyyy: %w", raw, models.ErrInvalidInput)
	}
	return civil.DateOf(t), nil
}

// AddTask plans a task in a project.
func (s *Session) AddTask(ctx context.Context, projectID int64, in TaskInput) (models.Task, error) {
	if _, err := s.require(access.AddTask); err != nil {
		return models.Task{}, err
	}
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return models.Task{}, err
	}
	if len(project.Team) == 0 {
		return models.Task{}, fmt.Errorf("project %q has no team members: %w", project.Name, models.ErrInvalidInput)
	}

	start, err := ParseInputDate(in.Start)
	if err != nil {
		return models.Task{}, err
	}
	end, err := ParseInputDate(in.End)
	if err != nil {
		return models.Task{}, err
	}
	return s.engine.AddTask(ctx, projectID, lifecycle.NewTask{
		Description:   in.Description,
		ResponsibleID: in.ResponsibleID,
		Start:         start,
		End:           end,
		Priority:      models.PriorityFromChoice(in.PriorityChoice),
	})
}

// ListTasks evaluates deadlines and returns the project's tasks.
func (s *Session) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	if _, err := s.engine.EvaluateProject(ctx, projectID, s.today()); err != nil {
		return nil, err
	}
	return s.engine.ListTasks(ctx, projectID)
}

// Task fetches a task by id.
func (s *Session) Task(ctx context.Context, taskID int64) (models.Task, error) {
	return s.engine.Task(ctx, taskID)
}

// StartTask moves a planned task into progress.
func (s *Session) StartTask(ctx context.Context, taskID int64) (models.Task, error) {
	if _, err := s.require(access.CompleteTask); err != nil {
		return models.Task{}, err
	}
	return s.engine.Start(ctx, taskID)
}

// BeginCompletion tells the caller whether Complete needs a delay reason.
func (s *Session) BeginCompletion(ctx context.Context, taskID int64) (lifecycle.CompletionPlan, error) {
	if _, err := s.require(access.CompleteTask); err != nil {
		return lifecycle.CompletionPlan{}, err
	}
	return s.engine.BeginCompletion(ctx, taskID, s.today())
}

// Complete finishes a task today.
func (s *Session) Complete(ctx context.Context, taskID int64, delayReason string) (lifecycle.CompletionResult, error) {
	if _, err := s.require(access.CompleteTask); err != nil {
		return lifecycle.CompletionResult{}, err
	}
	return s.engine.Complete(ctx, taskID, s.today(), delayReason)
}

// Cancel cancels a task with a reason.
func (s *Session) Cancel(ctx context.Context, taskID int64, reason string) (lifecycle.CancellationResult, error) {
	if _, err := s.require(access.CancelTask); err != nil {
		return lifecycle.CancellationResult{}, err
	}
	return s.engine.Cancel(ctx, taskID, reason)
}

// EvaluateOverdue runs deadline evaluation on a single task.
func (s *Session) EvaluateOverdue(ctx context.Context, taskID int64) (bool, error) {
	return s.engine.EvaluateOverdue(ctx, taskID, s.today())
}

// Notifications returns the simulated e-mails recorded for a task.
func (s *Session) Notifications(ctx context.Context, taskID int64) ([]models.Notification, error) {
	return s.outbox.History(ctx, taskID)
}

// Serialize returns the export records of a project without writing them.
func (s *Session) Serialize(ctx context.Context, projectID int64) ([]export.Record, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.engine.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return export.Serialize(project, tasks), nil
}

// Export appends the records of every project to the sink and returns how
// many records were written.
func (s *Session) Export(ctx context.Context) (int, error) {
	if _, err := s.require(access.Export); err != nil {
		return 0, err
	}
	if s.sink == nil {
		return 0, fmt.Errorf("export: no sink configured: %w", models.ErrInvalidInput)
	}

	all, err := s.projects.List(ctx)
	if err != nil {
		return 0, err
	}
	written := 0
	for _, p := range all {
		records, err := s.Serialize(ctx, p.ID)
		if err != nil {
			return written, err
		}
		if err := s.sink.Append(records); err != nil {
			return written, err
		}
		written += len(records)
	}
	s.logger.Info("projects exported", slog.Int("projects", len(all)), slog.Int("records", written))
	return written, nil
}
