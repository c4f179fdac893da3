package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the cleanup in-process on a cron schedule, for deployments
// without an external cron caller.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	timeout time.Duration
	logger  logrus.FieldLogger
}

func NewScheduler(runner Runner, spec string, timeout time.Duration, logger logrus.FieldLogger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		timeout: timeout,
		logger:  logger.WithField("component", "cleanup_scheduler"),
	}
	if _, err := s.cron.AddFunc(spec, s.runJob); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	s.logger = s.logger.WithField("schedule", spec)
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduled cleanup started")
}

// Stop prevents new runs and waits for a running one to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduled cleanup stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduled cleanup stopped (context Done)")
	}
}

func (s *Scheduler) runJob() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if _, err := s.runner.Run(ctx); err != nil {
		s.logger.WithError(err).Error("Scheduled cleanup error")
	}
}
