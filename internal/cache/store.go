package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/issuecal/internal/models"
)

// IssueStore persists transformed issue lists keyed by repository.
// Implementations never judge freshness; callers compare Entry.FetchedAt against their own TTL.
type IssueStore interface {
	Get(ctx context.Context, repo string) (Entry, bool, error)
	Put(ctx context.Context, repo string, events []models.CalendarEvent) error
}

// Pruner removes cache rows that no longer serve the running process.
type Pruner interface {
	Prune(ctx context.Context, keep string, olderThan time.Time) (int64, error)
}

// Entry is a cached event list together with the moment it was fetched.
type Entry struct {
	Repo      string
	Events    []models.CalendarEvent
	FetchedAt time.Time
}

// Age reports how long ago the entry was fetched relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// StorageError reports a failed read or write against the backing store.
type StorageError struct {
	Op   string
	Repo string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Repo == "" {
		return fmt.Sprintf("cache: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache: %s %s: %v", e.Op, e.Repo, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func copyEvents(events []models.CalendarEvent) []models.CalendarEvent {
	out := make([]models.CalendarEvent, len(events))
	copy(out, events)
	return out
}
