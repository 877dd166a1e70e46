package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MissedSweeper marks overdue pending follow-ups as missed.
type MissedSweeper interface {
	SweepMissed(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config controls the cron jobs.
type Config struct {
	MissedSweepSpec   string
	MissedGracePeriod time.Duration
	Timeout           time.Duration
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron    *cron.Cron
	sweeper MissedSweeper
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

// New registers the jobs. Specs use seconds precision and UTC.
func New(sweeper MissedSweeper, cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithSeconds()),
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "scheduler")),
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(cfg.MissedSweepSpec, s.runMissedSweep); err != nil {
		return nil, fmt.Errorf("register missed sweep %q: %w", cfg.MissedSweepSpec, err)
	}
	return s, nil
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runMissedSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if _, err := s.SweepMissed(ctx); err != nil {
		s.logger.Error("missed sweep failed", zap.Error(err))
	}
}

// SweepMissed marks follow-ups scheduled before now minus the grace period.
func (s *Scheduler) SweepMissed(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.cfg.MissedGracePeriod)
	marked, err := s.sweeper.SweepMissed(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		s.logger.Info("follow-ups marked missed", zap.Int64("count", marked), zap.Time("cutoff", cutoff))
	}
	return marked, nil
}
