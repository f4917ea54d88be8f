package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const snapshotTimeout = 5 * time.Minute

// Snapshotter writes one inventory snapshot and returns where it went.
type Snapshotter interface {
	Snapshot(ctx context.Context) (string, error)
}

// Scheduler runs the periodic inventory snapshot.
type Scheduler struct {
	cron        *cron.Cron
	snapshotter Snapshotter
	logger      *zap.Logger
}

func NewScheduler(snapshotter Snapshotter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:        cron.New(),
		snapshotter: snapshotter,
		logger:      logger,
	}
}

// Start schedules the snapshot with a standard five-field cron spec and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runSnapshot); err != nil {
		return fmt.Errorf("schedule snapshot %q: %w", spec, err)
	}
	s.logger.Info("starting scheduler", zap.String("snapshot_cron", spec))
	s.cron.Start()
	return nil
}

// Stop stops scheduling and waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	key, err := s.snapshotter.Snapshot(ctx)
	if err != nil {
		s.logger.Error("inventory snapshot failed", zap.Error(err))
		return
	}
	s.logger.Info("inventory snapshot completed", zap.String("key", key))
}
