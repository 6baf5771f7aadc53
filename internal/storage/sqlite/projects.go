package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tracker/internal/models"
)

// MembershipGuard decides, inside the membership transaction, whether a user
// may join a team. current is the number of teams the user is on already.
type MembershipGuard func(current int, onTeam bool) error

const projectSelect = `SELECT p.id, p.public_id, p.name, p.description, p.created_at,
        a.id, a.name, a.email, a.login, a.secret, a.title, a.role,
        m.id, m.name, m.email, m.login, m.secret, m.title, m.role
    FROM projects p
    JOIN users a ON a.id = p.administrator_id
    JOIN users m ON m.id = p.manager_id`

// CreateProject persists a project referencing existing administrator and manager users.
func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty: %w", models.ErrInvalidInput)
	}
	if p.PublicID == "" {
		p.PublicID = uuid.NewString()
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO projects(public_id, name, description, administrator_id, manager_id) VALUES(?, ?, ?, ?, ?)`,
		p.PublicID, strings.TrimSpace(p.Name), strings.TrimSpace(p.Description), p.Administrator.ID, p.Manager.ID)
	if err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Project{}, fmt.Errorf("project id: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a project with its leadership and team.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	if p.Team, err = s.ListMembers(ctx, id); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// ListProjects retrieves all projects in creation order.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.queryProjects(ctx, projectSelect+` ORDER BY p.id`)
}

// ListUserProjects returns the projects whose team includes the user, one
// entry per membership.
func (s *Store) ListUserProjects(ctx context.Context, userID int64) ([]models.Project, error) {
	return s.queryProjects(ctx, projectSelect+`
    JOIN project_members pm ON pm.project_id = p.id
    WHERE pm.user_id = ? ORDER BY pm.id`, userID)
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list projects: %w", err)
	}
	rows.Close()

	// Teams are loaded after the cursor is closed; the pool has a single connection.
	for i := range projects {
		team, err := s.ListMembers(ctx, projects[i].ID)
		if err != nil {
			return nil, err
		}
		projects[i].Team = team
	}
	return projects, nil
}

// ListMembers returns the team of a project in the order members were added.
func (s *Store) ListMembers(ctx context.Context, projectID int64) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT u.id, u.name, u.email, u.login, u.secret, u.title, u.role
        FROM project_members pm JOIN users u ON u.id = pm.user_id
        WHERE pm.project_id = ? ORDER BY pm.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var team []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		team = append(team, u)
	}
	return team, rows.Err()
}

// MembershipCount reports how many team memberships a user holds.
func (s *Store) MembershipCount(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_members WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return n, nil
}

// AddMember appends the user to the project team when guard allows it.
// The check and the insert share one transaction.
func (s *Store) AddMember(ctx context.Context, projectID, userID int64, guard MembershipGuard) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)`, projectID).Scan(&exists); err != nil {
			return fmt.Errorf("check project: %w", err)
		}
		if !exists {
			return fmt.Errorf("project %d: %w", projectID, models.ErrNotFound)
		}
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, userID).Scan(&exists); err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if !exists {
			return fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
		}

		var current int
		var onTeam bool
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(project_id = ?), 0) > 0 FROM project_members WHERE user_id = ?`,
			projectID, userID).Scan(&current, &onTeam); err != nil {
			return fmt.Errorf("count memberships: %w", err)
		}
		if guard != nil {
			if err := guard(current, onTeam); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO project_members(project_id, user_id) VALUES(?, ?)`, projectID, userID); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
		return nil
	})
}

func scanProject(row rowScanner) (models.Project, error) {
	var (
		p                  models.Project
		adminRole, mgrRole string
	)
	err := row.Scan(&p.ID, &p.PublicID, &p.Name, &p.Description, &p.CreatedAt,
		&p.Administrator.ID, &p.Administrator.Name, &p.Administrator.Email, &p.Administrator.Login,
		&p.Administrator.Secret, &p.Administrator.Title, &adminRole,
		&p.Manager.ID, &p.Manager.Name, &p.Manager.Email, &p.Manager.Login,
		&p.Manager.Secret, &p.Manager.Title, &mgrRole)
	if err != nil {
		return models.Project{}, err
	}
	p.Administrator.Role = models.Role(adminRole)
	p.Manager.Role = models.Role(mgrRole)
	return p, nil
}
