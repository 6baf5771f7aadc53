// Package identity answers who a user is and which role they hold.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tracker/internal/models"
)

// UserStore is the read side of the session repository used for identity lookups.
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
}

// Registry resolves credentials and roles against the seeded users.
type Registry struct {
	store  UserStore
	logger *slog.Logger
}

// NewRegistry builds a registry over the given store.
func NewRegistry(store UserStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger}
}

// Authenticate returns the first user whose login or e-mail matches the
// identifier case-insensitively and whose secret matches exactly. The
// identifier is compared as typed, surrounding spaces included.
func (r *Registry) Authenticate(ctx context.Context, identifier, secret string) (models.User, error) {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("authenticate: %w", err)
	}

	for _, u := range users {
		if (strings.EqualFold(u.Login, identifier) || strings.EqualFold(u.Email, identifier)) && u.Secret == secret {
			r.logger.Info("user authenticated", slog.Int64("user_id", u.ID), slog.String("role", string(u.Role)))
			return u, nil
		}
	}

	r.logger.Warn("authentication failed", slog.String("identifier", identifier))
	return models.User{}, models.ErrInvalidCredentials
}

// RoleOf is a pure lookup of the user's role.
func RoleOf(u models.User) models.Role {
	return u.Role
}

// Get fetches a user by id.
func (r *Registry) Get(ctx context.Context, id int64) (models.User, error) {
	return r.store.GetUser(ctx, id)
}

// List returns every known user in seed order.
func (r *Registry) List(ctx context.Context) ([]models.User, error) {
	return r.store.ListUsers(ctx)
}

// ByRole returns the users holding the given role, in seed order.
func (r *Registry) ByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.User
	for _, u := range users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}
