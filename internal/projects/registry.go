// Package projects creates projects and staffs their teams under the
// per-user project cap.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tracker/internal/access"
	"tracker/internal/models"
	"tracker/internal/storage/sqlite"
)

// Store is the part of the session repository the registry needs.
type Store interface {
	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	GetProject(ctx context.Context, id int64) (models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListUserProjects(ctx context.Context, userID int64) ([]models.Project, error)
	MembershipCount(ctx context.Context, userID int64) (int, error)
	AddMember(ctx context.Context, projectID, userID int64, guard sqlite.MembershipGuard) error
}

// Options tune membership rules.
type Options struct {
	// RejectDuplicates refuses to add a user already on the team.
	RejectDuplicates bool
}

// Registry owns project creation and team membership.
type Registry struct {
	store  Store
	opts   Options
	logger *slog.Logger
}

// Created is the outcome of CreateProject.
type Created struct {
	Project models.Project
	// CreatorEnrolled is false when the creator was already at the cap.
	CreatorEnrolled bool
}

// NewRegistry builds a project registry.
func NewRegistry(store Store, opts Options, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, opts: opts, logger: logger}
}

// CreateProject records creator as administrator and manager as manager,
// then tries to enroll the creator. A creator at the cap still gets the
// project, just not a team seat.
func (r *Registry) CreateProject(ctx context.Context, name, description string, creator, manager models.User) (Created, error) {
	p, err := r.store.CreateProject(ctx, models.Project{
		Name:          name,
		Description:   description,
		Administrator: creator,
		Manager:       manager,
	})
	if err != nil {
		return Created{}, fmt.Errorf("create project: %w", err)
	}
	r.logger.Info("project created",
		slog.Int64("project_id", p.ID),
		slog.String("name", p.Name),
		slog.Int64("administrator_id", creator.ID),
		slog.Int64("manager_id", manager.ID))

	err = r.store.AddMember(ctx, p.ID, creator.ID, r.guard())
	switch {
	case errors.Is(err, models.ErrRejectedCapacity):
		r.logger.Warn("creator not enrolled in new project", slog.Int64("project_id", p.ID), slog.Int64("user_id", creator.ID))
	case err != nil:
		return Created{}, fmt.Errorf("enroll creator: %w", err)
	}

	p, lerr := r.store.GetProject(ctx, p.ID)
	if lerr != nil {
		return Created{}, lerr
	}
	return Created{Project: p, CreatorEnrolled: err == nil}, nil
}

// AddMember appends user to the project team on behalf of actor. Nothing
// changes when the actor lacks the capability or the user is at the cap.
func (r *Registry) AddMember(ctx context.Context, actor models.User, projectID, userID int64) (models.Project, error) {
	if err := access.Check(actor.Role, access.AddMember); err != nil {
		r.logger.Warn("add member denied", slog.Int64("actor_id", actor.ID), slog.String("role", string(actor.Role)))
		return models.Project{}, err
	}

	if err := r.store.AddMember(ctx, projectID, userID, r.guard()); err != nil {
		if errors.Is(err, models.ErrRejectedCapacity) {
			r.logger.Warn("member rejected at capacity", slog.Int64("project_id", projectID), slog.Int64("user_id", userID))
		}
		return models.Project{}, fmt.Errorf("add member: %w", err)
	}
	r.logger.Info("member added", slog.Int64("project_id", projectID), slog.Int64("user_id", userID))
	return r.store.GetProject(ctx, projectID)
}

func (r *Registry) guard() sqlite.MembershipGuard {
	return func(current int, onTeam bool) error {
		if current >= models.MaxProjectsPerUser {
			return fmt.Errorf("%d of %d projects: %w", current, models.MaxProjectsPerUser, models.ErrRejectedCapacity)
		}
		if r.opts.RejectDuplicates && onTeam {
			return fmt.Errorf("user already on team: %w", models.ErrInvalidInput)
		}
		return nil
	}
}

// Get fetches a project with its team.
func (r *Registry) Get(ctx context.Context, id int64) (models.Project, error) {
	return r.store.GetProject(ctx, id)
}

// List returns all projects in creation order.
func (r *Registry) List(ctx context.Context) ([]models.Project, error) {
	return r.store.ListProjects(ctx)
}

// ProjectsOf is the user's back-reference set: every project whose team
// includes the user.
func (r *Registry) ProjectsOf(ctx context.Context, userID int64) ([]models.Project, error) {
	return r.store.ListUserProjects(ctx, userID)
}

// MembershipCount reports how many teams the user is on.
func (r *Registry) MembershipCount(ctx context.Context, userID int64) (int, error) {
	return r.store.MembershipCount(ctx, userID)
}
