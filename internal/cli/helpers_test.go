package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDefinitions = `
package definitions

series: "team-sync": {
	title:  "Team Sync"
	anchor: "2025-06-02T10:00:00Z"
	rule:   "weekly"
	attendees: ["u1", "u2"]
}

series: "kickoff": {
	title:  "Kickoff"
	anchor: "2025-07-01T09:00:00Z"
}
`

// setupEnv points the CLI at a temp definitions dir and database.
func setupEnv(t *testing.T, definitions string) (defsDir, dbPath string) {
	t.Helper()
	dir := t.TempDir()

	defsDir = filepath.Join(dir, "definitions")
	require.NoError(t, os.MkdirAll(defsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(defsDir, "series.cue"), []byte(definitions), 0644))

	dbPath = filepath.Join(dir, "syncly.db")
	t.Setenv(EnvDefinitionsDir, defsDir)
	t.Setenv(EnvDBPath, dbPath)
	t.Setenv(EnvCalendarDir, "")
	t.Setenv(EnvActor, "tester")
	return defsDir, dbPath
}

// executeCommand runs the root command with args and captures stdout.
func executeCommand(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}
