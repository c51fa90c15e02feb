package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"AirCast/internal/domain/models"
	xlogger "AirCast/pkg/logger"

	"github.com/go-co-op/gocron"
)

// Runner is one scheduled ingest pass.
type Runner interface {
	Run(ctx context.Context) (models.IngestResult, error)
}

// Scheduler runs the sync job on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       Runner
	interval  time.Duration
	timeout   time.Duration
	l         *xlogger.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func New(job Runner, interval, timeout time.Duration, l *xlogger.Logger) *Scheduler {
	if l == nil {
		l = xlogger.Nop()
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		job:       job,
		interval:  interval,
		timeout:   timeout,
		l:         l,
	}
}

// Start schedules the job, running it once immediately, and returns.
// Overlapping runs are skipped while a previous one is still going.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.tick); err != nil {
		s.cancel()
		s.cancel = nil
		return err
	}
	s.scheduler.StartAsync()
	s.l.Info("scheduler started", xlogger.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.job.Run(ctx)
	if err != nil {
		s.l.Error("scheduled sync failed", xlogger.Error(err), xlogger.Duration("elapsed", time.Since(start)))
		return
	}
	s.l.Info("scheduled sync done",
		xlogger.Int("fetched", res.Fetched),
		xlogger.Int("inserted", res.Inserted),
		xlogger.Int("skipped", res.Skipped),
		xlogger.Int("published", res.Published),
	)
}

// Stop cancels the running job and stops future runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.scheduler.Stop()
}
