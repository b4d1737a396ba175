package models

import (
	"time"

	"gorm.io/datatypes"
)

// IssueCache stores the last transformed issue list for one repository.
// Rows are replaced wholesale on every refresh.
type IssueCache struct {
	Repo      string                             `gorm:"column:repo;primaryKey;size:255"`
	Events    datatypes.JSONSlice[CalendarEvent] `gorm:"column:json;not null"`
	FetchedAt int64                              `gorm:"column:fetched_at;not null;index"`
}

// TableName pins the table name shared with existing cache databases.
func (IssueCache) TableName() string {
	return "issue_cache"
}

// FetchedTime returns FetchedAt as a time.Time.
func (c IssueCache) FetchedTime() time.Time {
	return time.Unix(c.FetchedAt, 0)
}
