// ABOUTME: Fires the daily notification run at a fixed wall-clock time
// ABOUTME: Missed runs are skipped, never caught up
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunFunc performs one run.
type RunFunc func(ctx context.Context) (Summary, error)

// Scheduler triggers a run once per day at Hour:Minute in Location.
type Scheduler struct {
	run      RunFunc
	hour     int
	minute   int
	location *time.Location
	logger   *zap.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func NewScheduler(run RunFunc, hour, minute int, location *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		run:      run,
		hour:     hour,
		minute:   minute,
		location: location,
		logger:   logger.Named("scheduler"),
		now:      time.Now,
		after:    time.After,
	}
}

// NextRun returns the first Hour:Minute in loc strictly after now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// Start blocks, running once per day until ctx is cancelled. With runNow set
// a run happens immediately as well. Runs execute inline, so a run that
// overshoots the next trigger simply pushes the schedule to the following day.
func (s *Scheduler) Start(ctx context.Context, runNow bool) error {
	if runNow {
		s.fire(ctx)
	}

	for {
		now := s.now()
		next := NextRun(now, s.hour, s.minute, s.location)
		s.logger.Info("Next notification run scheduled", zap.Time("at", next))

		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-s.after(next.Sub(now)):
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	if _, err := s.run(ctx); err != nil {
		s.logger.Error("Notification run failed", zap.Error(err))
	}
}
