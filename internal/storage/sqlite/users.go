package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tracker/internal/models"
)

const userColumns = `id, name, email, login, secret, title, role`

// CreateUser persists a seeded user and returns it with its id.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Login) == "" {
		return models.User{}, fmt.Errorf("user name and login must not be empty: %w", models.ErrInvalidInput)
	}
	if _, ok := models.ValidRoles[u.Role]; !ok {
		return models.User{}, fmt.Errorf("unknown role %q: %w", u.Role, models.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO users(name, email, login, secret, title, role) VALUES(?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(u.Name), strings.TrimSpace(u.Email), strings.TrimSpace(u.Login), u.Secret, u.Title, string(u.Role))
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a single user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUsers returns all users in seed order.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		u    models.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Login, &u.Secret, &u.Title, &role); err != nil {
		return models.User{}, err
	}
	u.Role = models.Role(role)
	return u, nil
}
