package cache

import (
	"context"
	"sync"
	"time"

	"github.com/charlesng35/issuecal/internal/models"
)

// MemoryStore is a process-local IssueStore. Entries do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// SetClock overrides the clock used to stamp entries.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.now = now
	}
}

// Seed stores an entry with an explicit fetch time.
func (s *MemoryStore) Seed(repo string, events []models.CalendarEvent, fetchedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[repo] = Entry{Repo: repo, Events: copyEvents(events), FetchedAt: fetchedAt}
}

func (s *MemoryStore) Get(_ context.Context, repo string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[repo]
	if !ok {
		return Entry{}, false, nil
	}
	entry.Events = copyEvents(entry.Events)
	return entry, true, nil
}

func (s *MemoryStore) Put(_ context.Context, repo string, events []models.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[repo] = Entry{
		Repo:      repo,
		Events:    copyEvents(events),
		FetchedAt: time.Unix(s.now().Unix(), 0),
	}
	return nil
}

func (s *MemoryStore) Prune(_ context.Context, keep string, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for repo, entry := range s.entries {
		if repo != keep || (!olderThan.IsZero() && entry.FetchedAt.Before(olderThan)) {
			delete(s.entries, repo)
			removed++
		}
	}
	return removed, nil
}
