package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayp120/syncly/internal/session"
	"github.com/jayp120/syncly/internal/store"
)

func TestNextWeeklySeries(t *testing.T) {
	setupEnv(t, testDefinitions)

	output, err := executeCommand(t, nil, "next", "team-sync", "--as-of", "2025-06-05")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-09\n", output)
}

func TestNextJSON(t *testing.T) {
	setupEnv(t, testDefinitions)

	output, err := executeCommand(t, nil, "--format", "json", "next", "team-sync", "--as-of", "2025-06-02")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   NextResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "2025-06-02", resp.Data.Date)
	assert.False(t, resp.Data.Exhausted)
}

func TestNextOneOffExhausted(t *testing.T) {
	setupEnv(t, testDefinitions)

	// The kickoff anchor is in the past relative to as-of.
	output, err := executeCommand(t, nil, "next", "kickoff", "--as-of", "2025-08-01")
	require.NoError(t, err)
	assert.Contains(t, output, "no upcoming occurrence")
}

func TestNextUnknownSeries(t *testing.T) {
	setupEnv(t, testDefinitions)

	_, err := executeCommand(t, nil, "next", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `series "nope" not found`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestNextBadAsOf(t *testing.T) {
	setupEnv(t, testDefinitions)

	_, err := executeCommand(t, nil, "next", "team-sync", "--as-of", "someday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --as-of")
}

func TestMissedReportsLatestGap(t *testing.T) {
	_, dbPath := setupEnv(t, testDefinitions)

	// Finalize 06-02 and 06-16, leaving 06-09 as the latest gap before 06-20.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	for _, date := range []string{"2025-06-02", "2025-06-16"} {
		_, err := st.CreateInstance(context.Background(), session.Instance{
			SeriesID:       "team-sync",
			OccurrenceDate: date,
			FinalizedAt:    time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	require.NoError(t, st.Close())

	output, err := executeCommand(t, nil, "missed", "team-sync", "--as-of", "2025-06-20")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-09\n", output)
}

func TestMissedNoneForFreshSeries(t *testing.T) {
	setupEnv(t, testDefinitions)

	output, err := executeCommand(t, nil, "missed", "team-sync", "--as-of", "2025-06-02")
	require.NoError(t, err)
	assert.Contains(t, output, "no missed occurrence")
}

func TestMissedJSON(t *testing.T) {
	setupEnv(t, testDefinitions)

	output, err := executeCommand(t, nil, "--format", "json", "missed", "team-sync", "--as-of", "2025-06-10")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   MissedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Missed)
	assert.Equal(t, "2025-06-09", resp.Data.Date)
}
