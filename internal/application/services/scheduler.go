package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/harborcrm/backend/internal/infrastructure/cache"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
)

// Scheduler runs the background maintenance jobs: expired sessions are purged
// hourly and the dashboard cache is swept every 15 minutes so stale summaries
// never outlive their window.
type Scheduler struct {
	cron     *cron.Cron
	sessions *persistence.SessionRepository
	cache    *cache.Store
}

// NewScheduler creates a new Scheduler
func NewScheduler(sessions *persistence.SessionRepository, store *cache.Store) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		cache:    store,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.purgeSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 15m", s.sweepDashboards); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("⏰ Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("⏰ Scheduler stopped")
}

func (s *Scheduler) purgeSessions() {
	ctx := context.Background()
	purged, err := s.sessions.PurgeExpired(ctx, time.Now())
	if err != nil {
		log.Printf("⚠️ Session purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("🧹 Purged %d expired sessions", purged)
	}
}

func (s *Scheduler) sweepDashboards() {
	ctx := context.Background()
	deleted := s.cache.DeleteScanMatch(ctx, cache.KeyPrefix+":*:"+sectionDashboard+":*")
	if deleted > 0 {
		log.Printf("🧹 Swept %d dashboard cache entries", deleted)
	}
}
