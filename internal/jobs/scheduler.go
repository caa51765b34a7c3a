// Package jobs runs periodic housekeeping tasks on top of gocron.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Scheduler owns a gocron scheduler and logs each task run.
type Scheduler struct {
	s      gocron.Scheduler
	logger *zerolog.Logger
}

func NewScheduler(logger *zerolog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{s: s, logger: logger}, nil
}

// Every registers fn to run each interval. Overlapping runs of the same task
// are skipped.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	_, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			start := time.Now()
			if err := fn(ctx); err != nil {
				s.logger.Error().Err(err).Str("job", name).Msg("job failed")
				return
			}
			s.logger.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job done")
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.s.Start()
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.s.Start()
	<-ctx.Done()
	return s.Shutdown()
}

func (s *Scheduler) Shutdown() error {
	return s.s.Shutdown()
}

func (s *Scheduler) Jobs() int {
	return len(s.s.Jobs())
}
