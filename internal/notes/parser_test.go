package notes

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func TestParse_TaskKeywordLine(t *testing.T) {
	got := Parse("/task Finalize slides due:tomorrow @[Priya](u123)", Options{
		MentionCandidates: []Mention{{Display: "Priya", ID: "u123"}},
		AsOf:              asOf,
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Finalize slides", got[0].Title)
	assert.Equal(t, []string{"u123"}, got[0].AssigneeIDs)
	assert.Equal(t, "2025-06-03", got[0].DueDate)
	assert.Equal(t, PriorityMedium, got[0].Priority)
}

func TestParse_BareMarkerWithFallback(t *testing.T) {
	got := Parse("/ Review budget priority:high", Options{
		FallbackAssigneeIDs: []string{"u1", "u2"},
		AsOf:                asOf,
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Review budget", got[0].Title)
	assert.Equal(t, []string{"u1", "u2"}, got[0].AssigneeIDs,
		"no mentions: fallback assignees imply everyone")
	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, "2025-06-05", got[0].DueDate, "default due is asOf+3 days")
}

func TestParse_EscapedMarkerIgnored(t *testing.T) {
	assert.Empty(t, Parse("// just a comment", Options{AsOf: asOf}))
	assert.Empty(t, Parse("//", Options{AsOf: asOf}))
}

func TestParse_ProseIgnored(t *testing.T) {
	text := "Discussed roadmap.\nNothing actionable here.\n task without marker"
	assert.Empty(t, Parse(text, Options{AsOf: asOf}))
}

func TestParse_EmptyTitleDropped(t *testing.T) {
	assert.Empty(t, Parse("/", Options{AsOf: asOf}))
	assert.Empty(t, Parse("/task due:today p:high", Options{AsOf: asOf}),
		"a line that is only tokens has no title")
	assert.Empty(t, Parse("/ @[Priya](u123)", Options{AsOf: asOf}),
		"a line that is only a mention has no title")
}

func TestParse_MentionOrderAndDuplicates(t *testing.T) {
	got := Parse("/ Pair on rollout @[Max](u7) @[Priya](u123) @[Max](u7)", Options{
		FallbackAssigneeIDs: []string{"u1"},
		AsOf:                asOf,
	})

	require.Len(t, got, 1)
	assert.Equal(t, []string{"u7", "u123", "u7"}, got[0].AssigneeIDs,
		"encounter order preserved, duplicates kept")
	assert.Equal(t, "Pair on rollout", got[0].Title)
}

func TestParse_UnknownMentionStrippedNotAssigned(t *testing.T) {
	got := Parse("/ Check access @[Ghost](u999)", Options{
		MentionCandidates:   []Mention{{Display: "Priya", ID: "u123"}},
		FallbackAssigneeIDs: []string{"u1"},
		AsOf:                asOf,
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Check access", got[0].Title, "token stripped from title")
	assert.Equal(t, []string{"u1"}, got[0].AssigneeIDs,
		"unknown id resolves to nothing, fallback applies")
}

func TestParse_DueDateForms(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"/ a due:today", "2025-06-02"},
		{"/ a due:tomorrow", "2025-06-03"},
		{"/ a due:tmw", "2025-06-03"},
		{"/ a on:2025-07-01", "2025-07-01"},
		{"/ a due:2025-06-20", "2025-06-20"},
		{"/ a due:whenever", "2025-06-05"},
		{"/ a due:", "2025-06-05"},
		{"/ a", "2025-06-05"},
	}
	for _, tc := range cases {
		got := Parse(tc.line, Options{AsOf: asOf})
		require.Len(t, got, 1, "line %q", tc.line)
		assert.Equal(t, tc.want, got[0].DueDate, "line %q", tc.line)
	}
}

func TestParse_PriorityForms(t *testing.T) {
	cases := []struct {
		line string
		want Priority
	}{
		{"/ a priority:high", PriorityHigh},
		{"/ a p:hi", PriorityHigh},
		{"/ a p:low", PriorityLow},
		{"/ a priority:lo", PriorityLow},
		{"/ a p:urgent", PriorityMedium},
		{"/ a p:", PriorityMedium},
		{"/ a", PriorityMedium},
	}
	for _, tc := range cases {
		got := Parse(tc.line, Options{AsOf: asOf})
		require.Len(t, got, 1, "line %q", tc.line)
		assert.Equal(t, tc.want, got[0].Priority, "line %q", tc.line)
	}
}

func TestParse_FirstTokenWins(t *testing.T) {
	got := Parse("/ a due:today due:tomorrow p:high p:low", Options{AsOf: asOf})
	require.Len(t, got, 1)
	assert.Equal(t, "2025-06-02", got[0].DueDate)
	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, "a", got[0].Title, "repeated tokens are consumed, not titled")
}

func TestParse_LineOrderPreserved(t *testing.T) {
	text := strings.Join([]string{
		"/ first",
		"prose in between",
		"/task second",
		"/ third",
	}, "\n")

	got := Parse(text, Options{AsOf: asOf})
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "second", got[1].Title)
	assert.Equal(t, "third", got[2].Title)
}

func TestParse_NeverErrors(t *testing.T) {
	// Half-typed garbage must degrade to defaults, never fail.
	garbage := "/ @[](  due::: p: on: @[x]() \t"
	assert.NotPanics(t, func() { Parse(garbage, Options{AsOf: asOf}) })
}

func TestParse_PreviewGolden(t *testing.T) {
	text := strings.Join([]string{
		"Weekly sync prep",
		"Discussed launch readiness.",
		"/task Finalize slides due:tomorrow @[Priya](u123)",
		"/ Review budget priority:high",
		"// escaped, not a command",
		"/task due:today",
		"/ Ship changelog on:2025-06-20 p:lo @[Max](u7) @[Priya](u123)",
	}, "\n")

	got := Parse(text, Options{
		MentionCandidates: []Mention{
			{Display: "Priya", ID: "u123"},
			{Display: "Max", ID: "u7"},
		},
		FallbackAssigneeIDs: []string{"u1", "u2"},
		AsOf:                asOf,
	})

	data, err := json.MarshalIndent(got, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "parse_preview", append(data, '\n'))
}
