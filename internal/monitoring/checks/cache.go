package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/issuecal/internal/cache"
	"github.com/charlesng35/issuecal/internal/monitoring"
)

const defaultCacheTimeout = 2 * time.Second

// Cache reports the state of repo's cache entry. A missing or expired entry is
// normal and still up; an unreadable store is degraded, since requests keep being
// served from upstream.
func Cache(store cache.IssueStore, repo string, ttl time.Duration, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  "cache store not configured",
				Duration: time.Since(start),
			}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultCacheTimeout))
		defer cancel()

		entry, ok, err := store.Get(probeCtx, repo)
		if err != nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  err.Error(),
				Duration: time.Since(start),
			}
		}

		details := "empty"
		if ok {
			age := entry.Age(time.Now()).Truncate(time.Second)
			state := "fresh"
			if age > ttl {
				state = "expired"
			}
			details = fmt.Sprintf("%s, %d events, age %s", state, len(entry.Events), age)
		}

		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Details:  details,
			Duration: time.Since(start),
		}
	})
}
