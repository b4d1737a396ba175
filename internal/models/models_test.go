package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueCacheTableName(t *testing.T) {
	require.Equal(t, "issue_cache", IssueCache{}.TableName())
}

func TestIssueCacheFetchedTime(t *testing.T) {
	entry := IssueCache{FetchedAt: 1700000000}
	require.True(t, entry.FetchedTime().Equal(time.Unix(1700000000, 0)))
}

func TestCalendarEventJSONShape(t *testing.T) {
	raw, err := json.Marshal(CalendarEvent{Title: "Fix login", Start: "2030-01-01T00:00:00Z", URL: "https://github.com/acme/widgets/issues/1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"Fix login","start":"2030-01-01T00:00:00Z","url":"https://github.com/acme/widgets/issues/1"}`, string(raw))
}

func TestIssueCacheEventsValueEncodesArray(t *testing.T) {
	entry := IssueCache{Events: []CalendarEvent{{Title: "a", Start: "2024-01-01", URL: "u"}}}

	value, err := entry.Events.Value()
	require.NoError(t, err)

	var encoded string
	switch v := value.(type) {
	case string:
		encoded = v
	case []byte:
		encoded = string(v)
	default:
		t.Fatalf("unexpected driver value type %T", value)
	}
	require.JSONEq(t, `[{"title":"a","start":"2024-01-01","url":"u"}]`, encoded)
}
