// Package jobs runs periodic housekeeping: completing ended rentals and
// expiring subscriptions and coupons.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Task is one periodic sweep. Run returns how many records it changed.
type Task struct {
	Name string
	Spec string // cron expression or descriptor such as "@every 1m"
	Run  func(ctx context.Context, now time.Time) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewScheduler(loc *time.Location, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		log:     log,
		timeout: time.Minute,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Add registers t. Invalid specs are rejected.
func (s *Scheduler) Add(t Task) error {
	if _, err := cronParser.Parse(t.Spec); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", t.Spec, t.Name, err)
	}
	_, err := s.cron.AddFunc(t.Spec, func() {
		s.RunOnce(context.Background(), t)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", t.Name, err)
	}
	return nil
}

// RunOnce executes t immediately with the scheduler's timeout and logs the outcome.
func (s *Scheduler) RunOnce(ctx context.Context, t Task) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := t.Run(ctx, s.now())
	if err != nil {
		s.log.Error("job failed", zap.String("job", t.Name), zap.Error(err))
		return n, err
	}
	if n > 0 {
		s.log.Info("job finished",
			zap.String("job", t.Name),
			zap.Int("changed", n),
			zap.Duration("took", time.Since(start)),
		)
	}
	return n, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
