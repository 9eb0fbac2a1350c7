package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named maintenance task run on a cron spec.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	c       *cron.Cron
	log     *zap.Logger
	timeout time.Duration
}

// NewScheduler runs every job in UTC and skips a tick while the previous
// run of the same job is still going.
func NewScheduler(log *zap.Logger, timeout time.Duration) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{c: c, log: log, timeout: timeout}
}

func (s *Scheduler) Add(job Job) error {
	_, err := s.c.AddFunc(job.Spec, func() { s.run(job) })
	if err != nil {
		return err
	}
	s.log.Info("Scheduled job", zap.String("job", job.Name), zap.String("spec", job.Spec))
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Job panicked", zap.String("job", job.Name), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("Job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.log.Debug("Job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.c.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
