package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/export"
	"tracker/internal/seed"
	"tracker/internal/session"
	"tracker/internal/storage/sqlite"
)

type memorySink struct {
	records []export.Record
}

func (m *memorySink) Append(records []export.Record) error {
	m.records = append(m.records, records...)
	return nil
}

func run(t *testing.T, sink session.Sink, lines ...string) string {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(sqlite.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, err = seed.Apply(ctx, store, seed.Default())
	require.NoError(t, err)

	sess := session.New(store, session.Options{
		Sink:  sink,
		Today: func() civil.Date { return civil.Date{Year: 2024, Month: 1, Day: 15} },
	})
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, New(sess, in, &out, nil).Run(ctx))
	return out.String()
}

func TestConsole_FullSession(t *testing.T) {
	sink := &memorySink{}
	out := run(t, sink,
		"lucas.silva", "nope",
		"lucas.silva", seed.DefaultSecret,
		"1", "Apollo", "moon landing", "0",
		"1", "3",
		"2", "design", "1", "01/01/2024", "10/01/2024", "1",
		"3", "0",
		"2", "client delay",
		"4",
		"5",
		"4",
		"5",
		"4",
		"6",
	)

	assert.Contains(t, out, "Invalid credentials.")
	assert.Contains(t, out, "Welcome, Lucas Silva")
	assert.Contains(t, out, "Project created: Apollo")
	assert.Contains(t, out, "Member added!")
	assert.Contains(t, out, "Task added!")
	assert.Contains(t, out, "design | Resp: Rodrigo Bat | Priority: HIGH | Status: OVERDUE")
	assert.Contains(t, out, "Task completed late. Please provide the reason:")
	assert.Contains(t, out, "Task marked OVERDUE.")
	assert.Contains(t, out, "To: rodrigo.bat@email.com")
	assert.Contains(t, out, "To: lucas.silva@email.com, carol.cavalcante@email.com")
	assert.Contains(t, out, "Team: 2 members")
	assert.Contains(t, out, "Exported 1 records.")
	assert.Contains(t, out, "Goodbye!")

	require.Len(t, sink.records, 1)
	assert.Equal(t, "client delay", sink.records[0].Reason)
}

func TestConsole_ContributorCannotStaff(t *testing.T) {
	out := run(t, nil,
		"rodrigo.bat", seed.DefaultSecret,
		"1", "Solo", "", "0",
		"1",
		"2", "x", "5",
		"5",
		"2",
		"9",
		"abc",
		"6",
	)

	assert.Contains(t, out, "You do not have permission to do that.")
	assert.Contains(t, out, "Invalid input:")
	assert.Contains(t, out, "0 - Solo | Manager: Carol Cavalcante | Members: 1")
	assert.Contains(t, out, "Goodbye!")
}

func TestConsole_CancelAndHistory(t *testing.T) {
	out := run(t, nil,
		"carol.cavalcante", seed.DefaultSecret,
		"1", "Gemini", "", "0",
		"2", "plan", "0", "01/02/2024", "20/02/2024", "2",
		"3", "0",
		"4",
		"3", "",
		"3", "budget cut",
		"4",
		"5",
		"5",
		"5",
	)

	assert.Contains(t, out, "No notifications for this task.")
	assert.Contains(t, out, "Task cancelled.")
	assert.Contains(t, out, "Your task \"plan\" has been cancelled. Reason: budget cut")
	assert.Contains(t, out, "===== LOGIN =====")
}

func TestConsole_EndOfInput(t *testing.T) {
	out := run(t, nil, "lucas.silva")
	assert.Contains(t, out, "Password: ")
	assert.NotContains(t, out, "Goodbye!")
}

func TestConsole_ReasonsKeptAsTyped(t *testing.T) {
	sink := &memorySink{}
	out := run(t, sink,
		"lucas.silva", seed.DefaultSecret,
		"1", "Apollo", "", "0",
		"2", "design", "0", "01/01/2024", "10/01/2024", "1",
		"2", "build", "0", "01/01/2024", "10/01/2024", "1",
		"3", "0",
		"2", "  client delay ",
		"5",
		"3", "1",
		"3", " budget cut ",
		"5",
		"5",
		"4",
		"6",
	)

	assert.Contains(t, out, "Exported 2 records.")
	require.Len(t, sink.records, 2)
	assert.Equal(t, "  client delay ", sink.records[0].Reason)
	assert.Equal(t, " budget cut ", sink.records[1].Reason)
}

func TestConsole_LoginIsNotTrimmed(t *testing.T) {
	out := run(t, nil,
		" lucas.silva", seed.DefaultSecret,
		"lucas.silva", seed.DefaultSecret,
		"6",
	)
	assert.Contains(t, out, "Invalid credentials.")
	assert.Contains(t, out, "Welcome, Lucas Silva")
}
