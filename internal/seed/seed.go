// Package seed provides the fixed set of users a session starts with.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tracker/internal/models"
)

// DefaultSecret is the credential every built-in user starts with.
const DefaultSecret = "Padrao123"

// UserStore creates seeded users.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
}

type fileUser struct {
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Login  string `yaml:"login"`
	Secret string `yaml:"secret"`
	Title  string `yaml:"title"`
	Role   string `yaml:"role"`
}

type file struct {
	Users []fileUser `yaml:"users"`
}

// Default returns the built-in users: one administrator, one manager and
// two contributors.
func Default() []models.User {
	return []models.User{
		{Name: "Lucas Silva", Email: "lucas.silva@email.com", Login: "lucas.silva", Secret: DefaultSecret, Title: "Product Owner", Role: models.RoleAdministrator},
		{Name: "Carol Cavalcante", Email: "carol.cavalcante@email.com", Login: "carol.cavalcante", Secret: DefaultSecret, Title: "Manager", Role: models.RoleManager},
		{Name: "Thamiris Marie", Email: "thamiris.marie@email.com", Login: "thamiris.marie", Secret: DefaultSecret, Title: "Analyst", Role: models.RoleContributor},
		{Name: "Rodrigo Bat", Email: "rodrigo.bat@email.com", Login: "rodrigo.bat", Secret: DefaultSecret, Title: "Analyst", Role: models.RoleContributor},
	}
}

// Load reads users from a YAML file of the form
//
//	users:
//	  - name: Ada
//	    login: ada
//	    email: ada@example.com
//	    secret: s3cret
//	    title: Engineer
//	    role: manager
func Load(path string) ([]models.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: parse %s: %w", path, err)
	}
	if len(f.Users) == 0 {
		return nil, fmt.Errorf("seed: %s defines no users: %w", path, models.ErrInvalidInput)
	}

	users := make([]models.User, 0, len(f.Users))
	for i, fu := range f.Users {
		role := models.Role(strings.ToUpper(strings.TrimSpace(fu.Role)))
		if _, ok := models.ValidRoles[role]; !ok {
			return nil, fmt.Errorf("seed: user %d has unknown role %q: %w", i, fu.Role, models.ErrInvalidInput)
		}
		if strings.TrimSpace(fu.Login) == "" || fu.Secret == "" {
			return nil, fmt.Errorf("seed: user %d needs a login and a secret: %w", i, models.ErrInvalidInput)
		}
		users = append(users, models.User{
			Name:   fu.Name,
			Email:  fu.Email,
			Login:  fu.Login,
			Secret: fu.Secret,
			Title:  fu.Title,
			Role:   role,
		})
	}
	return users, nil
}

// Apply stores users in order and returns them with their ids.
func Apply(ctx context.Context, store UserStore, users []models.User) ([]models.User, error) {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		created, err := store.CreateUser(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Login, err)
		}
		out = append(out, created)
	}
	return out, nil
}
