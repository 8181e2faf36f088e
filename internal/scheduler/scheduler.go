package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// SessionCleaner removes expired login sessions
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler runs periodic maintenance tasks
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  SessionCleaner
	interval  time.Duration
}

// New creates a scheduler that purges expired sessions every interval
func New(sessions SessionCleaner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
		interval:  interval,
	}
}

// Start schedules the tasks and runs them in the background. The first run
// happens immediately.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.cleanupSessions); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) cleanupSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		log.Printf("Error cleaning up expired sessions: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Removed %d expired sessions", n)
	}
}
