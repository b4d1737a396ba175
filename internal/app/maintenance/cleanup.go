package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/issuecal/internal/cache"
	"github.com/charlesng35/issuecal/internal/monitoring/checks"
	"github.com/charlesng35/issuecal/pkg/logger"
	"github.com/charlesng35/issuecal/pkg/metrics"
)

const (
	defaultSchedule  = "@daily"
	defaultRetention = 7 * 24 * time.Hour
)

// Cleaner coordinates background maintenance of the issue cache: dropping rows for
// repositories the process no longer serves, dropping rows past the retention window,
// and checkpointing the sqlite write-ahead log.
type Cleaner struct {
	store     cache.Pruner
	db        *gorm.DB
	repo      string
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention time.Duration
	ttl       time.Duration
	schedule  string

	mu     sync.Mutex
	status checks.RunStatus
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithRetention adjusts how long a cache row may live before it is pruned.
// Zero disables age based pruning.
func WithRetention(retention time.Duration) Option {
	return func(cleaner *Cleaner) {
		if retention >= 0 {
			cleaner.retention = retention
		}
	}
}

// WithTTL sets the cache freshness window. Rows younger than it are never pruned for
// age, whatever the retention.
func WithTTL(ttl time.Duration) Option {
	return func(cleaner *Cleaner) {
		if ttl > 0 {
			cleaner.ttl = ttl
		}
	}
}

// WithSchedule overrides the cron specification for the cleanup job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithDatabase enables the WAL checkpoint step when db is backed by sqlite.
func WithDatabase(db *gorm.DB) Option {
	return func(cleaner *Cleaner) {
		cleaner.db = db
	}
}

// NewCleaner constructs a Cleaner that keeps only repo's row in store.
// A nil store disables pruning.
func NewCleaner(store cache.Pruner, repo string, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		store:     store,
		repo:      repo,
		now:       time.Now,
		retention: defaultRetention,
		schedule:  defaultSchedule,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

func (c *Cleaner) enabled() bool {
	return c.store != nil || isSQLite(c.db)
}

// Start registers the cleanup job with the cron scheduler and launches it when there
// is anything to clean.
func (c *Cleaner) Start() error {
	if !c.enabled() {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("cache maintenance failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule %q: %w", c.schedule, err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every cleanup step and returns their combined errors. Used by the
// scheduled job and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.store != nil {
		removed, err := PruneCache(ctx, c.store, c.repo, c.cutoff())
		if err != nil {
			metrics.CacheStoreFailures.WithLabelValues("prune").Inc()
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("pruned cache rows", zap.Int64("removed", removed), zap.String("kept", c.repo))
		}
	}

	if isSQLite(c.db) {
		if err := CheckpointWAL(ctx, c.db); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	c.record(errs)
	return errs
}

// LastRun reports the outcome of the most recent RunOnce.
func (c *Cleaner) LastRun() checks.RunStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Cleaner) record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.LastRunAt = c.now()
	c.status.LastError = err
	if err != nil {
		c.status.ConsecutiveFailures++
		metrics.MaintenanceRuns.WithLabelValues("failure").Inc()
		return
	}
	c.status.ConsecutiveFailures = 0
	metrics.MaintenanceRuns.WithLabelValues("success").Inc()
}

func (c *Cleaner) cutoff() time.Time {
	if c.retention <= 0 {
		return time.Time{}
	}
	window := c.retention
	if c.ttl > window {
		window = c.ttl
	}
	return c.now().Add(-window)
}

// PruneCache removes rows for repositories other than keep, and rows fetched before
// olderThan when it is non-zero.
func PruneCache(ctx context.Context, store cache.Pruner, keep string, olderThan time.Time) (int64, error) {
	if store == nil {
		return 0, errors.New("prune cache: store is required")
	}
	removed, err := store.Prune(ctx, keep, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return removed, nil
}

// CheckpointWAL folds the sqlite write-ahead log back into the main database file.
func CheckpointWAL(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("checkpoint wal: db is required")
	}
	if err := db.WithContext(ctx).Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		return fmt.Errorf("checkpoint wal: %w", err)
	}
	return nil
}

func isSQLite(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "sqlite"
}
