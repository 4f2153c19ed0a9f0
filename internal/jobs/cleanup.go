package jobs

import (
	"context"
	"fmt"
	"time"
)

// Job type constants for cleanup jobs
const (
	JobTypeEvictIdleSessions = "cleanup:idle_sessions"
	JobTypePruneVisitorState = "cleanup:visitor_state"
	JobTypeRateLimiterSweep  = "cleanup:rate_limiter"
)

// Job is a periodic maintenance task. Run reports how many items it touched.
type Job struct {
	Type     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) (int64, error)
}

// SessionEvicter drops idle visitors from memory.
type SessionEvicter interface {
	Evict(idle time.Duration) int
}

// StatePruner deletes persisted snapshots older than a cutoff.
type StatePruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper drops idle entries from an in-memory table.
type Sweeper interface {
	Cleanup() int
}

// EvictIdleSessions releases visitors that have been idle longer than idle.
// Their snapshots stay in the state store and are reloaded on the next request.
func EvictIdleSessions(sessions SessionEvicter, interval, idle time.Duration) Job {
	return Job{
		Type:     JobTypeEvictIdleSessions,
		Interval: interval,
		Run: func(ctx context.Context) (int64, error) {
			return int64(sessions.Evict(idle)), nil
		},
	}
}

// PruneVisitorState deletes snapshots that have not been written for maxAge.
func PruneVisitorState(store StatePruner, interval, maxAge time.Duration) Job {
	return Job{
		Type:     JobTypePruneVisitorState,
		Interval: interval,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) (int64, error) {
			n, err := store.Prune(ctx, time.Now().Add(-maxAge))
			if err != nil {
				return 0, fmt.Errorf("failed to prune visitor state: %w", err)
			}
			return n, nil
		},
	}
}

// SweepRateLimiter forgets clients the limiter has not seen recently.
func SweepRateLimiter(limiter Sweeper, interval time.Duration) Job {
	return Job{
		Type:     JobTypeRateLimiterSweep,
		Interval: interval,
		Run: func(ctx context.Context) (int64, error) {
			return int64(limiter.Cleanup()), nil
		},
	}
}
