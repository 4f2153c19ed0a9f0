package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/jobs"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often to check for due jobs
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of jobs to process concurrently
	MaxConcurrency int

	// ShutdownTimeout bounds how long Start waits for running jobs on exit
	ShutdownTimeout time.Duration
}

type schedule struct {
	job     jobs.Job
	nextRun time.Time
	running bool
}

// Worker runs periodic maintenance jobs
type Worker struct {
	config Config
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	schedules []*schedule
	wg        sync.WaitGroup
}

// NewWorker creates a new background job worker
func NewWorker(config Config, logger zerolog.Logger, js ...jobs.Job) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 2
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	w := &Worker{
		config: config,
		logger: logger.With().Str("component", "worker").Str("worker_id", config.WorkerID).Logger(),
		now:    time.Now,
	}
	start := w.now()
	for _, j := range js {
		w.schedules = append(w.schedules, &schedule{job: j, nextRun: start.Add(j.Interval)})
	}
	return w
}

// Start runs due jobs until the context is cancelled, then waits up to
// ShutdownTimeout for in-flight jobs.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().
		Int("jobs", len(w.schedules)).
		Dur("poll_interval", w.config.PollInterval).
		Int("max_concurrency", w.config.MaxConcurrency).
		Msg("worker starting")

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker shutting down")
			w.wait()
			return ctx.Err()

		case <-ticker.C:
			for _, s := range w.claimDue() {
				select {
				case sem <- struct{}{}:
					w.wg.Add(1)
					go func(s *schedule) {
						defer w.wg.Done()
						defer func() { <-sem }()
						w.process(ctx, s)
					}(s)
				default:
					// At max concurrency; the job stays due for the next poll.
					w.release(s, false)
				}
			}
		}
	}
}

// RunOnce runs every job immediately and sequentially.
func (w *Worker) RunOnce(ctx context.Context) {
	for _, s := range w.schedules {
		w.process(ctx, s)
	}
}

func (w *Worker) wait() {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn().Msg("worker shutdown timed out with jobs still running")
	}
}

// claimDue marks due, idle jobs as running and returns them.
func (w *Worker) claimDue() []*schedule {
	now := w.now()
	w.mu.Lock()
	defer w.mu.Unlock()

	var due []*schedule
	for _, s := range w.schedules {
		if s.running || now.Before(s.nextRun) {
			continue
		}
		s.running = true
		due = append(due, s)
	}
	return due
}

func (w *Worker) release(s *schedule, ran bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s.running = false
	if ran {
		s.nextRun = w.now().Add(s.job.Interval)
	}
}

// process runs a single job under its timeout
func (w *Worker) process(ctx context.Context, s *schedule) {
	jobCtx := ctx
	if s.job.Timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.job.Timeout)
		defer cancel()
	}

	start := w.now()
	n, err := s.job.Run(jobCtx)
	w.release(s, true)

	if err != nil {
		w.logger.Error().Err(err).Str("job_type", s.job.Type).Msg("job failed")
		return
	}
	evt := w.logger.Debug()
	if n > 0 {
		evt = w.logger.Info()
	}
	evt.Str("job_type", s.job.Type).
		Int64("affected", n).
		Dur("duration", w.now().Sub(start)).
		Msg("job completed")
}
