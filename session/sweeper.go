package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Janitor interface {
	SweepExpired(ctx context.Context) (int64, error)
	ComprehensiveCleanup(ctx context.Context) (CleanupReport, error)
}

// Sweeper runs the light expiry sweep and the comprehensive cleanup on two
// independent schedules. Both passes delete by predicate, overlapping runs are
// harmless.
type Sweeper struct {
	janitor      Janitor
	sweepEvery   time.Duration
	cleanupEvery time.Duration
	log          *slog.Logger
}

func NewSweeper(janitor Janitor, sweepEvery, cleanupEvery time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{
		janitor:      janitor,
		sweepEvery:   sweepEvery,
		cleanupEvery: cleanupEvery,
		log:          log,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.every(ctx, s.sweepEvery, s.sweep)
	}()
	go func() {
		defer wg.Done()
		s.every(ctx, s.cleanupEvery, s.cleanup)
	}()
	wg.Wait()
	s.log.Debug("Stopping session sweeper")
}

func (s *Sweeper) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.janitor.SweepExpired(ctx)
	if err != nil {
		s.log.Error("Session sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("Expired sessions swept", "count", n)
	}
}

func (s *Sweeper) cleanup(ctx context.Context) {
	report, err := s.janitor.ComprehensiveCleanup(ctx)
	if err != nil {
		s.log.Error("Session cleanup failed", "error", err)
		return
	}
	s.log.Info("Session cleanup done",
		"expired", report.Expired,
		"idle", report.Idle,
		"duplicates", report.Duplicates,
	)
}
