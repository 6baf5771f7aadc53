package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/models"
	"tracker/internal/storage/sqlite"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	users := Default()
	require.Len(t, users, 4)
	assert.Equal(t, "Padrao123", DefaultSecret)

	roles := map[models.Role]int{}
	for _, u := range users {
		roles[u.Role]++
		assert.Equal(t, DefaultSecret, u.Secret)
		assert.NotEmpty(t, u.Login)
		assert.NotEmpty(t, u.Email)
	}
	assert.Equal(t, 1, roles[models.RoleAdministrator])
	assert.Equal(t, 1, roles[models.RoleManager])
	assert.Equal(t, 2, roles[models.RoleContributor])
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
users:
  - name: Ada
    login: ada
    email: ada@example.com
    secret: s3cret
    role: manager
  - name: Bob
    login: bob
    secret: pw
    role: " Contributor "
`)
	users, err := Load(path)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, models.RoleManager, users[0].Role)
	assert.Equal(t, "ada@example.com", users[0].Email)
	assert.Equal(t, models.RoleContributor, users[1].Role)

	tests := []struct {
		name string
		body string
	}{
		{"unknown role", "users:\n  - login: x\n    secret: y\n    role: owner\n"},
		{"missing secret", "users:\n  - login: x\n    role: manager\n"},
		{"no users", "users: []\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.body))
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "users: [\n"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(sqlite.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	created, err := Apply(ctx, store, Default())
	require.NoError(t, err)
	require.Len(t, created, 4)
	for i, u := range created {
		assert.Equal(t, int64(i+1), u.ID)
	}

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lucas Silva", users[0].Name)
}
