package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/issuecal/internal/models"
)

// DatabaseStore implements IssueStore on top of the issue_cache table.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

// DatabaseOption customises a DatabaseStore.
type DatabaseOption func(*DatabaseStore)

// WithStoreClock overrides the clock used to stamp fetched_at.
func WithStoreClock(now func() time.Time) DatabaseOption {
	return func(s *DatabaseStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDatabaseStore constructs a database-backed IssueStore.
func NewDatabaseStore(db *gorm.DB, opts ...DatabaseOption) *DatabaseStore {
	if db == nil {
		return nil
	}
	store := &DatabaseStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Get returns the cached entry for repo, if any.
func (s *DatabaseStore) Get(ctx context.Context, repo string) (Entry, bool, error) {
	if s == nil {
		return Entry{}, false, &StorageError{Op: "get", Repo: repo, Err: errors.New("database store not initialised")}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var row models.IssueCache
	err := s.db.WithContext(ctx).Take(&row, "repo = ?", repo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, &StorageError{Op: "get", Repo: repo, Err: err}
	}

	return Entry{
		Repo:      row.Repo,
		Events:    copyEvents(row.Events),
		FetchedAt: row.FetchedTime(),
	}, true, nil
}

// Put replaces the cached entry for repo and stamps it with the current time.
func (s *DatabaseStore) Put(ctx context.Context, repo string, events []models.CalendarEvent) error {
	if s == nil {
		return &StorageError{Op: "put", Repo: repo, Err: errors.New("database store not initialised")}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := models.IssueCache{
		Repo:      repo,
		Events:    copyEvents(events),
		FetchedAt: s.now().Unix(),
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "repo"}},
			DoUpdates: clause.AssignmentColumns([]string{"json", "fetched_at"}),
		}).Create(&row).Error
	if err != nil {
		return &StorageError{Op: "put", Repo: repo, Err: err}
	}
	return nil
}

// Prune deletes rows for repositories other than keep, and rows fetched before olderThan.
// A zero olderThan only removes foreign repositories.
func (s *DatabaseStore) Prune(ctx context.Context, keep string, olderThan time.Time) (int64, error) {
	if s == nil {
		return 0, &StorageError{Op: "prune", Err: errors.New("database store not initialised")}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	query := s.db.WithContext(ctx).Where("repo <> ?", keep)
	if !olderThan.IsZero() {
		query = query.Or("fetched_at < ?", olderThan.Unix())
	}

	result := query.Delete(&models.IssueCache{})
	if result.Error != nil {
		return 0, &StorageError{Op: "prune", Err: result.Error}
	}
	return result.RowsAffected, nil
}
