package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/models"
)

func sampleProject() (models.Project, []models.Task) {
	admin := models.User{ID: 1, Name: "Lucas Silva"}
	mgr := models.User{ID: 2, Name: "Carol Cavalcante"}
	dev := models.User{ID: 3, Name: "Rodrigo Bat"}
	done := civil.Date{Year: 2024, Month: 1, Day: 9}

	project := models.Project{ID: 1, Name: "Apollo", Administrator: admin, Manager: mgr, Team: []models.User{admin, dev}}
	tasks := []models.Task{
		{
			ID: 1, ProjectID: 1, Description: "design",
			Start: civil.Date{Year: 2024, Month: 1, Day: 1}, PlannedEnd: civil.Date{Year: 2024, Month: 1, Day: 10},
			Status: models.StatusCancelled, Priority: models.PriorityHigh, Responsible: dev, CancelReason: "budget cut",
		},
		{
			ID: 2, ProjectID: 1, Description: "build",
			Start: civil.Date{Year: 2024, Month: 1, Day: 2}, PlannedEnd: civil.Date{Year: 2024, Month: 1, Day: 10},
			Status: models.StatusCompleted, Priority: models.PriorityNormal, Responsible: admin, CompletedOn: &done,
		},
	}
	return project, tasks
}

func TestSerialize(t *testing.T) {
	project, tasks := sampleProject()

	records := Serialize(project, tasks)
	require.Len(t, records, 2)

	assert.Equal(t, []string{
		"Apollo", "Lucas Silva", "Carol Cavalcante", "Rodrigo Bat", "design",
		"2024-01-01", "2024-01-10", "CANCELLED", "budget cut",
	}, records[0].Fields())
	assert.Equal(t, "COMPLETED", records[1].Status)
	assert.Empty(t, records[1].Reason)

	assert.Empty(t, Serialize(project, nil))
}

func TestSerialize_DelayReason(t *testing.T) {
	project, tasks := sampleProject()
	late := tasks[1]
	late.Status = models.StatusOverdue
	late.DelayReason = "client delay"

	records := Serialize(project, []models.Task{late})
	require.Len(t, records, 1)
	assert.Equal(t, "OVERDUE", records[0].Status)
	assert.Equal(t, "client delay", records[0].Reason)
}

func TestEncode(t *testing.T) {
	project, tasks := sampleProject()

	var first, second bytes.Buffer
	require.NoError(t, Encode(&first, Serialize(project, tasks)))
	require.NoError(t, Encode(&second, Serialize(project, tasks)))
	assert.Equal(t, first.Bytes(), second.Bytes())

	lines := strings.Split(strings.TrimSuffix(first.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Apollo;Lucas Silva;Carol Cavalcante;Rodrigo Bat;design;2024-01-01;2024-01-10;CANCELLED;budget cut", lines[0])
	assert.Equal(t, "Apollo;Lucas Silva;Carol Cavalcante;Lucas Silva;build;2024-01-02;2024-01-10;COMPLETED;", lines[1])

	t.Run("quotes fields containing the delimiter", func(t *testing.T) {
		var buf bytes.Buffer
		r := Record{Project: "A;B", Description: `say "hi"`}
		require.NoError(t, Encode(&buf, []Record{r}))
		assert.Equal(t, "\"A;B\";;;;\"say \"\"hi\"\"\";;;;\n", buf.String())
	})
}

func TestFileSink_Appends(t *testing.T) {
	project, tasks := sampleProject()
	path := filepath.Join(t.TempDir(), "out", "export.csv")
	sink := NewFileSink(path)

	require.NoError(t, sink.Append(Serialize(project, tasks)))
	require.NoError(t, sink.Append(Serialize(project, tasks[:1])))
	require.NoError(t, sink.Append(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, lines[0], lines[2])

	t.Run("empty path", func(t *testing.T) {
		assert.Error(t, NewFileSink("").Append(Serialize(project, tasks)))
	})
}
