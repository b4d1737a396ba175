package calendar

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/issuecal/internal/github"
	"github.com/charlesng35/issuecal/internal/models"
)

func mustIssues(t *testing.T, raw ...string) []github.RawIssue {
	t.Helper()
	issues := make([]github.RawIssue, 0, len(raw))
	for _, r := range raw {
		issue, err := github.ParseRawIssue(r)
		require.NoError(t, err)
		issues = append(issues, issue)
	}
	return issues
}

func TestStartPrefersMilestoneDueDate(t *testing.T) {
	issues := mustIssues(t,
		`{"title":"a","updated_at":"2024-02-01","milestone":{"due_on":"2024-01-01"}}`,
		`{"title":"b","updated_at":"2024-02-01"}`,
		`{"title":"c","updated_at":"2024-02-01","milestone":null}`,
		`{"title":"d","updated_at":"2024-02-01","milestone":{"title":"backlog","due_on":null}}`,
		`{"title":"e","updated_at":"2024-02-01","milestone":{"due_on":""}}`,
	)

	require.Equal(t, "2024-01-01", Start(issues[0]))
	for _, issue := range issues[1:] {
		require.Equal(t, "2024-02-01", Start(issue))
	}
}

func TestToEventsFiltersPullRequestsAnywhere(t *testing.T) {
	issues := mustIssues(t,
		`{"number":1,"title":"pr first","pull_request":{"url":"x"},"updated_at":"2024-01-01"}`,
		`{"number":2,"title":"issue","html_url":"https://github.com/acme/widgets/issues/2","updated_at":"2024-01-02"}`,
		`{"number":3,"title":"pr null marker","pull_request":null,"updated_at":"2024-01-03"}`,
		`{"number":4,"title":"another issue","html_url":"https://github.com/acme/widgets/issues/4","updated_at":"2024-01-04"}`,
		`{"number":5,"title":"pr last","pull_request":{},"updated_at":"2024-01-05"}`,
	)

	events := ToEvents(issues)

	require.Equal(t, []models.CalendarEvent{
		{Title: "issue", Start: "2024-01-02", URL: "https://github.com/acme/widgets/issues/2"},
		{Title: "another issue", Start: "2024-01-04", URL: "https://github.com/acme/widgets/issues/4"},
	}, events)
}

func TestToEventsToleratesMissingFields(t *testing.T) {
	events := ToEvents(mustIssues(t, `{}`, `{"title":null,"html_url":null}`))

	require.Len(t, events, 2)
	for _, event := range events {
		require.Equal(t, models.CalendarEvent{}, event)
	}
}

func TestToEventsIsDeterministic(t *testing.T) {
	issues := mustIssues(t,
		`{"title":"a","html_url":"u1","updated_at":"2024-02-01","milestone":{"due_on":"2024-01-01"}}`,
		`{"title":"b","html_url":"u2","updated_at":"2024-03-01"}`,
		`{"title":"c","pull_request":{}}`,
	)

	first := ToEvents(issues)
	second := ToEvents(issues)
	require.Equal(t, first, second)
	require.Len(t, first, 2)
}

func TestToEventsEmptyInput(t *testing.T) {
	events := ToEvents(nil)
	require.NotNil(t, events)
	require.Empty(t, events)
}
