package session

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/access"
	"tracker/internal/export"
	"tracker/internal/models"
	"tracker/internal/seed"
	"tracker/internal/storage/sqlite"
)

type memorySink struct {
	batches [][]export.Record
}

func (m *memorySink) Append(records []export.Record) error {
	m.batches = append(m.batches, records)
	return nil
}

func newSession(t *testing.T, opts Options) (*Session, []models.User) {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	users, err := seed.Apply(context.Background(), store, seed.Default())
	require.NoError(t, err)

	if opts.Today == nil {
		opts.Today = func() civil.Date { return civil.Date{Year: 2024, Month: 1, Day: 15} }
	}
	return New(store, opts), users
}

func TestParseInputDate(t *testing.T) {
	d, err := ParseInputDate(" 05/02/2024 ")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2024, Month: 2, Day: 5}, d)

	for _, raw := range []string{"2024-02-05", "31/02/2024", "", "5/2/24"} {
		_, err := ParseInputDate(raw)
		assert.ErrorIs(t, err, models.ErrInvalidInput, raw)
	}
}

func TestSession_RequiresLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, Options{})

	_, err := s.CreateProject(ctx, "Apollo", "", 0)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.False(t, s.Can(access.CreateProject))

	_, err = s.Login(ctx, "lucas.silva", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, ok := s.Actor()
	assert.False(t, ok)

	u, err := s.Login(ctx, "LUCAS.SILVA@EMAIL.COM", seed.DefaultSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdministrator, u.Role)
	assert.True(t, s.Can(access.AddMember))

	s.Logout()
	_, ok = s.Actor()
	assert.False(t, ok)
}

func TestSession_ProjectWorkflow(t *testing.T) {
	ctx := context.Background()
	sink := &memorySink{}
	s, users := newSession(t, Options{Sink: sink})
	admin, mgr, thamiris, rodrigo := users[0], users[1], users[2], users[3]

	_, err := s.Login(ctx, admin.Login, seed.DefaultSecret)
	require.NoError(t, err)

	managers, err := s.ManagerCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, managers, 1)

	created, err := s.CreateProject(ctx, "Apollo", "moon", mgr.ID)
	require.NoError(t, err)
	require.True(t, created.CreatorEnrolled)
	projectID := created.Project.ID
	assert.Equal(t, mgr.ID, created.Project.Manager.ID)

	_, err = s.AddMember(ctx, projectID, rodrigo.ID)
	require.NoError(t, err)

	design, err := s.AddTask(ctx, projectID, TaskInput{
		Description: "design", ResponsibleID: rodrigo.ID, Start: "01/01/2024", End: "10/01/2024", PriorityChoice: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, design.Priority)

	build, err := s.AddTask(ctx, projectID, TaskInput{
		Description: "build", ResponsibleID: admin.ID, Start: "02/01/2024", End: "20/01/2024", PriorityChoice: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityNormal, build.Priority)

	t.Run("responsible must be on the team", func(t *testing.T) {
		_, err := s.AddTask(ctx, projectID, TaskInput{Description: "x", ResponsibleID: thamiris.ID, Start: "01/01/2024", End: "02/01/2024"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("listing marks late tasks overdue", func(t *testing.T) {
		tasks, err := s.ListTasks(ctx, projectID)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, models.StatusOverdue, tasks[0].Status)
		assert.Equal(t, models.StatusPlanning, tasks[1].Status)
	})

	t.Run("late completion asks for a reason", func(t *testing.T) {
		plan, err := s.BeginCompletion(ctx, design.ID)
		require.NoError(t, err)
		assert.True(t, plan.Late)

		_, err = s.Complete(ctx, design.ID, "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		res, err := s.Complete(ctx, design.ID, "client delay")
		require.NoError(t, err)
		assert.Equal(t, models.StatusOverdue, res.Task.Status)

		notes, err := s.Notifications(ctx, design.ID)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, []string{rodrigo.Email}, notes[0].Recipients)
		assert.Equal(t, []string{admin.Email, mgr.Email}, notes[1].Recipients)
	})

	t.Run("cancellation", func(t *testing.T) {
		res, err := s.Cancel(ctx, build.ID, "budget cut")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, res.Task.Status)
	})

	t.Run("export appends every project", func(t *testing.T) {
		n, err := s.Export(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		require.Len(t, sink.batches, 1)
		assert.Equal(t, "client delay", sink.batches[0][0].Reason)
		assert.Equal(t, "budget cut", sink.batches[0][1].Reason)
		assert.Equal(t, "Carol Cavalcante", sink.batches[0][1].Manager)
	})

	t.Run("contributor cannot staff", func(t *testing.T) {
		_, err := s.Login(ctx, rodrigo.Login, seed.DefaultSecret)
		require.NoError(t, err)

		_, err = s.AddMember(ctx, projectID, thamiris.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)

		mine, err := s.ProjectsOf(ctx, rodrigo.ID)
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	})
}

func TestSession_AddTaskNeedsTeam(t *testing.T) {
	ctx := context.Background()
	s, users := newSession(t, Options{})
	_, err := s.Login(ctx, users[1].Login, seed.DefaultSecret)
	require.NoError(t, err)

	for i := 0; i < models.MaxProjectsPerUser; i++ {
		_, err := s.CreateProject(ctx, "Filler", "", 0)
		require.NoError(t, err)
	}
	created, err := s.CreateProject(ctx, "Empty", "", 0)
	require.NoError(t, err)
	require.False(t, created.CreatorEnrolled)

	_, err = s.AddTask(ctx, created.Project.ID, TaskInput{Description: "x", ResponsibleID: users[1].ID, Start: "01/01/2024", End: "02/01/2024"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSession_ExportWithoutSink(t *testing.T) {
	ctx := context.Background()
	s, users := newSession(t, Options{})
	_, err := s.Login(ctx, users[0].Login, seed.DefaultSecret)
	require.NoError(t, err)

	_, err = s.Export(ctx)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSession_StrictRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s, users := newSession(t, Options{Strict: true})
	_, err := s.Login(ctx, users[0].Login, seed.DefaultSecret)
	require.NoError(t, err)

	created, err := s.CreateProject(ctx, "Apollo", "", 0)
	require.NoError(t, err)
	_, err = s.AddMember(ctx, created.Project.ID, users[0].ID)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
