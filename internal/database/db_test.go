package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/issuecal/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t, Config{Driver: "sqlite"})

	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	db := openTestDB(t, Config{Driver: "sqlite", Path: path})

	require.NoError(t, AutoMigrate(db))
	require.FileExists(t, path)
}

func TestAutoMigrateCreatesIssueCacheTable(t *testing.T) {
	db := openTestDB(t, Config{})

	require.NoError(t, AutoMigrate(db))
	require.True(t, db.Migrator().HasTable("issue_cache"))
	require.True(t, db.Migrator().HasColumn(&models.IssueCache{}, "json"))
	require.True(t, db.Migrator().HasColumn(&models.IssueCache{}, "fetched_at"))

	// migrating an existing schema is a no-op
	require.NoError(t, AutoMigrate(db))
}

func TestAutoMigrateRejectsNilHandle(t *testing.T) {
	require.Error(t, AutoMigrate(nil))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestBuildSQLiteDSN(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{})
	require.NoError(t, err)
	require.Contains(t, dsn, "mode=memory")
	require.Contains(t, dsn, "cache=shared")

	dsn, err = buildSQLiteDSN(Config{DSN: "file:custom.db"})
	require.NoError(t, err)
	require.Equal(t, "file:custom.db", dsn)

	dsn, err = buildSQLiteDSN(Config{Path: "cache.db"})
	require.NoError(t, err)
	require.Equal(t, "file:cache.db?_journal_mode=WAL&_busy_timeout=5000", dsn)
}

func openTestDB(t *testing.T, cfg Config) *gorm.DB {
	t.Helper()

	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Close(db)
	})

	return db
}
