package backup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

// Scheduler takes snapshots of every entity on a cron schedule. Failed
// snapshots are logged and retried at the next tick.
type Scheduler struct {
	coord    *Coordinator
	schedule string

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler uses a standard five-field cron expression.
func NewScheduler(coord *Coordinator, schedule string) *Scheduler {
	return &Scheduler{
		coord:    coord,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the job and starts the cron runner. An empty schedule
// leaves the scheduler disabled. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.schedule == "" {
		slog.Info("backup scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunNow(ctx) }); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.isRunning = true
	slog.Info("backup scheduler started", "schedule", s.schedule, "next_run", s.nextRun())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running snapshot to finish and stops the runner.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	slog.Info("backup scheduler stopped")
}

// IsRunning reports whether the cron runner is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunNow snapshots every entity once and returns the artifacts written.
func (s *Scheduler) RunNow(ctx context.Context) []catalog.BackupArtifact {
	start := time.Now()
	var written []catalog.BackupArtifact
	for _, entity := range catalog.Entities {
		if ctx.Err() != nil {
			break
		}
		a, err := s.coord.Snapshot(ctx, entity)
		if err != nil {
			slog.Error("scheduled snapshot failed", "entity", entity, "error", err)
			continue
		}
		written = append(written, a)
	}
	slog.Info("scheduled backup completed", "snapshots", len(written), "duration_ms", time.Since(start).Milliseconds())
	return written
}

func (s *Scheduler) nextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
