// Package calendar turns issue-tracker records into calendar events.
package calendar

import (
	"go.uber.org/zap"

	"github.com/charlesng35/issuecal/internal/github"
	"github.com/charlesng35/issuecal/internal/models"
	"github.com/charlesng35/issuecal/pkg/logger"
)

const (
	pullRequestKey   = "pull_request"
	milestoneDuePath = "milestone.due_on"
	updatedAtPath    = "updated_at"
	titlePath        = "title"
	htmlURLPath      = "html_url"
)

// ToEvents converts raw issue records to calendar events, keeping upstream order
// and dropping pull requests. It never fails; missing fields become empty strings.
func ToEvents(issues []github.RawIssue) []models.CalendarEvent {
	log := logger.WithModule("calendar")

	events := make([]models.CalendarEvent, 0, len(issues))
	for _, issue := range issues {
		if IsPullRequest(issue) {
			log.Debug("skipping pull request", zap.Int64("number", issue.Number()))
			continue
		}
		events = append(events, ToEvent(issue))
	}

	log.Info("converted issues to calendar events", zap.Int("issues", len(issues)), zap.Int("events", len(events)))
	return events
}

// ToEvent converts a single record regardless of its kind.
func ToEvent(issue github.RawIssue) models.CalendarEvent {
	return models.CalendarEvent{
		Title: issue.Get(titlePath).String(),
		Start: Start(issue),
		URL:   issue.Get(htmlURLPath).String(),
	}
}

// IsPullRequest reports whether the record carries the pull request marker.
func IsPullRequest(issue github.RawIssue) bool {
	return issue.Has(pullRequestKey)
}

// Start anchors the event on the milestone due date when there is one,
// falling back to the last update time.
func Start(issue github.RawIssue) string {
	if due := issue.Get(milestoneDuePath).String(); due != "" {
		return due
	}
	return issue.Get(updatedAtPath).String()
}
