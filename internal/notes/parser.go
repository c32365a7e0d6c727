package notes

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jayp120/syncly/internal/series"
)

// Priority of a pending task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// PendingTask is an unpersisted task descriptor extracted from notes.
// Values are ephemeral: recomputed on every edit, discarded once finalize
// succeeds.
type PendingTask struct {
	Title string `json:"title"`

	// AssigneeIDs preserves mention order and keeps duplicates; whether
	// repeated mentions of the same user should collapse is a product
	// decision the parser does not make.
	AssigneeIDs []string `json:"assignee_ids"`

	// DueDate is a date-only key (YYYY-MM-DD).
	DueDate string `json:"due_date"`

	Priority Priority `json:"priority"`
}

// Mention is a known user a mention token can resolve to.
type Mention struct {
	Display string `json:"display"`
	ID      string `json:"id"`
}

// Options configures a Parse call.
type Options struct {
	// MentionCandidates restricts which mention tokens resolve to
	// assignees. Empty means every well-formed token resolves.
	MentionCandidates []Mention

	// FallbackAssigneeIDs is copied onto a task that has no mentions.
	// Used for team-wide meetings where a bare task implies "everyone".
	FallbackAssigneeIDs []string

	// AsOf anchors relative due dates (today, tomorrow) and the
	// +3 day default.
	AsOf time.Time
}

const (
	marker        = "/"
	markerEscaped = "//"
	taskKeyword   = "/task "

	// defaultDueDays is applied when a line has no due token or the token
	// value cannot be resolved.
	defaultDueDays = 3
)

// mentionToken matches inline mentions of the form @[Display](id).
var mentionToken = regexp.MustCompile(`@\[([^\[\]]*)\]\(([^()\s]+)\)`)

// Parse extracts pending tasks from notes text, one per task line, in line
// order. It never returns an error; see the package doc for the fallback
// rules.
func Parse(text string, opts Options) []PendingTask {
	text = norm.NFC.String(text)

	var tasks []PendingTask
	for _, line := range strings.Split(text, "\n") {
		if task, ok := parseLine(line, opts); ok {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// parseLine parses a single line. ok is false for prose, escaped lines, and
// task lines whose title is empty after token stripping.
func parseLine(line string, opts Options) (PendingTask, bool) {
	line = strings.TrimSpace(line)

	var rest string
	switch {
	case strings.HasPrefix(line, markerEscaped):
		// Doubled marker escapes the line: it is a comment, not a command.
		return PendingTask{}, false
	case strings.HasPrefix(line, taskKeyword):
		rest = line[len(taskKeyword):]
	case strings.HasPrefix(line, marker):
		rest = line[len(marker):]
	default:
		return PendingTask{}, false
	}

	assignees, rest := extractMentions(rest, opts.MentionCandidates)
	if len(assignees) == 0 && len(opts.FallbackAssigneeIDs) > 0 {
		assignees = append([]string(nil), opts.FallbackAssigneeIDs...)
	}

	due := series.DateKey(opts.AsOf.AddDate(0, 0, defaultDueDays))
	priority := PriorityMedium

	words := strings.Fields(rest)
	title := make([]string, 0, len(words))
	dueSet, prioritySet := false, false
	for _, w := range words {
		if v, ok := tokenValue(w, "due:", "on:"); ok {
			if !dueSet {
				due = resolveDue(v, opts.AsOf)
				dueSet = true
			}
			continue
		}
		if v, ok := tokenValue(w, "priority:", "p:"); ok {
			if !prioritySet {
				priority = resolvePriority(v)
				prioritySet = true
			}
			continue
		}
		title = append(title, w)
	}

	if len(title) == 0 {
		// No title left: the line yields nothing. Not an error.
		return PendingTask{}, false
	}

	return PendingTask{
		Title:       strings.Join(title, " "),
		AssigneeIDs: assignees,
		DueDate:     due,
		Priority:    priority,
	}, true
}

// extractMentions collects assignee ids from mention tokens in encounter
// order and returns the line with the tokens stripped. When candidates are
// given, tokens naming unknown ids are stripped but yield no assignee.
func extractMentions(line string, candidates []Mention) ([]string, string) {
	var ids []string
	stripped := mentionToken.ReplaceAllStringFunc(line, func(tok string) string {
		m := mentionToken.FindStringSubmatch(tok)
		id := m[2]
		if len(candidates) == 0 || isCandidate(id, candidates) {
			ids = append(ids, id)
		}
		return " "
	})
	return ids, stripped
}

func isCandidate(id string, candidates []Mention) bool {
	for _, c := range candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

// tokenValue returns the value of w if it carries one of the given keyword
// prefixes (case-insensitive).
func tokenValue(w string, prefixes ...string) (string, bool) {
	lower := strings.ToLower(w)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return lower[len(p):], true
		}
	}
	return "", false
}

// resolveDue maps a due token value to a date key. Unparseable values fall
// back to asOf+3 days rather than failing the line.
func resolveDue(v string, asOf time.Time) string {
	switch v {
	case "today":
		return series.DateKey(asOf)
	case "tomorrow", "tmw":
		return series.DateKey(asOf.AddDate(0, 0, 1))
	}
	if d, err := series.ParseDateKey(v); err == nil {
		return series.DateKey(d)
	}
	return series.DateKey(asOf.AddDate(0, 0, defaultDueDays))
}

// resolvePriority maps a priority token value; anything unrecognized is
// Medium.
func resolvePriority(v string) Priority {
	switch v {
	case "high", "hi":
		return PriorityHigh
	case "low", "lo":
		return PriorityLow
	}
	return PriorityMedium
}
