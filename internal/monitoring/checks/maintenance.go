package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/issuecal/internal/monitoring"
)

const defaultMaintenanceMaxAge = 48 * time.Hour

// RunStatus summarises the most recent maintenance run.
type RunStatus struct {
	LastRunAt           time.Time
	LastError           error
	ConsecutiveFailures int
}

// RunReporter exposes the status of a background job.
type RunReporter interface {
	LastRun() RunStatus
}

// Maintenance verifies that the cache cleanup job runs successfully within maxAge.
// When maxAge is zero a two day window is used.
func Maintenance(reporter RunReporter, maxAge time.Duration) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}

	return monitoring.NewCheck("maintenance", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if reporter == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusUp,
				Details:  "maintenance disabled",
				Duration: time.Since(start),
			}
		}

		run := reporter.LastRun()
		switch {
		case run.LastRunAt.IsZero():
			return monitoring.ProbeResult{
				Status:   monitoring.StatusUp,
				Details:  "pending first run",
				Duration: time.Since(start),
			}
		case run.ConsecutiveFailures > 0:
			details := fmt.Sprintf("%d consecutive failures", run.ConsecutiveFailures)
			if run.LastError != nil {
				details += ": " + run.LastError.Error()
			}
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  details,
				Duration: time.Since(start),
			}
		case time.Since(run.LastRunAt) > maxAge:
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  "stale run " + run.LastRunAt.UTC().Format(time.RFC3339),
				Duration: time.Since(start),
			}
		}

		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Details:  "last run " + run.LastRunAt.UTC().Format(time.RFC3339),
			Duration: time.Since(start),
		}
	})
}
