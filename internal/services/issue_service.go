package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/charlesng35/issuecal/internal/cache"
	"github.com/charlesng35/issuecal/internal/calendar"
	"github.com/charlesng35/issuecal/internal/github"
	"github.com/charlesng35/issuecal/internal/models"
	"github.com/charlesng35/issuecal/pkg/logger"
	"github.com/charlesng35/issuecal/pkg/metrics"
)

const (
	// DefaultCacheTTL is the freshness window applied when none is configured.
	DefaultCacheTTL     = time.Hour
	defaultStoreTimeout = 5 * time.Second
)

// IssueFetcher lists the open issues of a repository.
type IssueFetcher interface {
	FetchOpenIssues(ctx context.Context, repo string) ([]github.RawIssue, error)
}

// EventSource tells where a result was served from.
type EventSource string

const (
	SourceCache    EventSource = "cache"
	SourceUpstream EventSource = "upstream"
)

// EventsResult is the outcome of a successful Events call.
type EventsResult struct {
	Events    []models.CalendarEvent
	Source    EventSource
	FetchedAt time.Time
}

// IssueServiceConfig configures an IssueService.
type IssueServiceConfig struct {
	Repo         string
	TTL          time.Duration
	StoreTimeout time.Duration
	// SingleFlight collapses concurrent cache misses into one upstream call.
	// When false every missing request fetches on its own and the last write wins.
	SingleFlight bool
}

// IssueService serves the configured repository's open issues as calendar events,
// reading through the issue cache.
type IssueService struct {
	store        cache.IssueStore
	upstream     IssueFetcher
	repo         string
	ttl          time.Duration
	storeTimeout time.Duration
	group        *singleflight.Group
	now          func() time.Time
	log          *zap.Logger
}

// IssueServiceOption customises an IssueService.
type IssueServiceOption func(*IssueService)

// WithIssueClock overrides the clock used to compute cache age.
func WithIssueClock(now func() time.Time) IssueServiceOption {
	return func(s *IssueService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewIssueService wires a store and an upstream fetcher together.
func NewIssueService(store cache.IssueStore, upstream IssueFetcher, cfg IssueServiceConfig, opts ...IssueServiceOption) (*IssueService, error) {
	if store == nil {
		return nil, errors.New("issue service: store is required")
	}
	if upstream == nil {
		return nil, errors.New("issue service: upstream fetcher is required")
	}
	repo := strings.TrimSpace(cfg.Repo)
	if repo == "" {
		return nil, errors.New("issue service: repository is required")
	}

	svc := &IssueService{
		store:        store,
		upstream:     upstream,
		repo:         repo,
		ttl:          cfg.TTL,
		storeTimeout: cfg.StoreTimeout,
		now:          time.Now,
		log:          logger.WithModule("issues"),
	}
	if svc.ttl <= 0 {
		svc.ttl = DefaultCacheTTL
	}
	if svc.storeTimeout <= 0 {
		svc.storeTimeout = defaultStoreTimeout
	}
	if cfg.SingleFlight {
		svc.group = &singleflight.Group{}
	}

	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Repo returns the repository this service serves.
func (s *IssueService) Repo() string {
	return s.repo
}

// TTL returns the configured freshness window.
func (s *IssueService) TTL() time.Duration {
	return s.ttl
}

// Events returns the repository's calendar events. A cached entry no older than the
// TTL is returned as is; otherwise the issues are fetched, transformed and written
// back. Upstream failures are returned and stale entries are never served.
func (s *IssueService) Events(ctx context.Context) (EventsResult, error) {
	ctx = ensuredContext(ctx)

	if result, ok := s.cached(ctx); ok {
		return result, nil
	}

	if s.group == nil {
		return s.refresh(ctx)
	}

	// The shared refresh must not die with whichever caller started it.
	ch := s.group.DoChan(s.repo, func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return EventsResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return EventsResult{}, res.Err
		}
		return res.Val.(EventsResult), nil
	}
}

func (s *IssueService) cached(ctx context.Context) (EventsResult, bool) {
	entry, ok, err := s.store.Get(ctx, s.repo)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		metrics.CacheStoreFailures.WithLabelValues("get").Inc()
		s.log.Warn("cache read failed; treating as miss", zap.String("repo", s.repo), zap.Error(err))
		return EventsResult{}, false
	}
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		s.log.Info("cache miss (no entry)", zap.String("repo", s.repo))
		return EventsResult{}, false
	}

	age := entry.Age(s.now())
	if age > s.ttl {
		metrics.CacheLookups.WithLabelValues("expired").Inc()
		s.log.Info("cache expired",
			zap.String("repo", s.repo),
			zap.Duration("age", age),
			zap.Duration("ttl", s.ttl),
		)
		return EventsResult{}, false
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	s.log.Info("cache hit", zap.String("repo", s.repo), zap.Duration("age", age))
	return EventsResult{
		Events:    entry.Events,
		Source:    SourceCache,
		FetchedAt: entry.FetchedAt,
	}, true
}

func (s *IssueService) refresh(ctx context.Context) (EventsResult, error) {
	issues, err := s.upstream.FetchOpenIssues(ctx, s.repo)
	if err != nil {
		return EventsResult{}, fmt.Errorf("issue service: refresh %s: %w", s.repo, err)
	}

	events := calendar.ToEvents(issues)
	fetchedAt := s.now()
	s.save(ctx, events)
	metrics.CachedEvents.Set(float64(len(events)))

	return EventsResult{
		Events:    events,
		Source:    SourceUpstream,
		FetchedAt: fetchedAt,
	}, nil
}

// save writes through to the store. Failures are logged only: the caller still
// receives the events it fetched.
func (s *IssueService) save(ctx context.Context, events []models.CalendarEvent) {
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	s.log.Info("saving cache", zap.String("repo", s.repo), zap.Int("items", len(events)))
	if err := s.store.Put(storeCtx, s.repo, events); err != nil {
		metrics.CacheStoreFailures.WithLabelValues("put").Inc()
		s.log.Error("cache write failed; response served without caching",
			zap.String("repo", s.repo),
			zap.Error(err),
		)
	}
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
