package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mantenix/inventory-service/pkg/logging"
)

// DefaultTimeout bounds a single job run
const DefaultTimeout = 5 * time.Minute

// Job is a named periodic task
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron schedules. A job still running
// when its next tick fires is skipped for that tick.
type Scheduler struct {
	cron   *cron.Cron
	logger *logging.Logger

	mu   sync.Mutex
	jobs map[string]Job
}

// NewScheduler creates a Scheduler
func NewScheduler(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithComponent("scheduler")
	cl := cronLogger{logger}

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		jobs:   make(map[string]Job),
	}
}

// Register adds a job. Schedules use the standard five-field cron syntax or
// descriptors such as "@every 5m".
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("duplicate job %q", job.Name)
	}
	if job.Timeout <= 0 {
		job.Timeout = DefaultTimeout
	}
	if _, err := s.cron.AddFunc(job.Schedule, func() { _ = s.execute(context.Background(), job) }); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", job.Schedule, job.Name, err)
	}
	s.jobs[job.Name] = job
	return nil
}

// Start begins running scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", s.Names())
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stopped before running jobs finished")
	}
}

// RunNow runs the named job immediately on the caller's goroutine
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.execute(ctx, job)
}

// Names returns the registered job names in order
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	s.logger.Performance(ctx, "job."+job.Name, time.Since(start), err == nil, nil)
	if err != nil {
		s.logger.WithError(err).Error("Job failed", "job", job.Name)
	}
	return err
}

// cronLogger adapts Logger to cron's logging interface
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithError(err).Error(msg, keysAndValues...)
}
