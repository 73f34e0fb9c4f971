package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/janisrealty/janis/core"
)

// Job is a unit of periodic work.
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron specs. Runs of the same job never overlap.
type Scheduler struct {
	cron    *cron.Cron
	logger  core.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(logger core.Logger, timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers job under name. An empty spec leaves the job disabled.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if spec == "" {
		s.logger.Info("scheduler: " + name + " disabled")
		return nil
	}
	run := func() {
		ctx := s.ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("scheduler: "+name+" failed", err)
			return
		}
		s.logger.Info("scheduler: "+name+" done", map[string]interface{}{"took": time.Since(start).String()})
	}
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(run))
	if _, err := s.cron.AddJob(spec, wrapped); err != nil {
		return errors.Wrapf(err, "scheduling %s", name)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
