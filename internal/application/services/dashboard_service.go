package services

import (
	"context"
	"log"
	"time"

	"github.com/harborcrm/backend/internal/domain/models"
	"github.com/harborcrm/backend/internal/infrastructure/cache"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/auth"
	"github.com/harborcrm/backend/pkg/errors"
)

// closedWindow is how far back won/lost totals reach.
const closedWindow = 30 * 24 * time.Hour

const upcomingLimit = 10

// DashboardSummary is the aggregate view served at /api/dashboard.
type DashboardSummary struct {
	LeadsByStatus      map[string]int64           `json:"leads_by_status"`
	Pipeline           []persistence.StageSummary `json:"pipeline"`
	WonAmount30d       float64                    `json:"won_amount_30d"`
	LostAmount30d      float64                    `json:"lost_amount_30d"`
	UpcomingActivities []*models.Activity         `json:"upcoming_activities"`
	GeneratedAt        time.Time                  `json:"generated_at"`
}

// DashboardService aggregates tenant-wide counts. Results are cached per
// tenant and swept whenever any entity section changes.
type DashboardService struct {
	leads         *persistence.LeadRepository
	opportunities *persistence.OpportunityRepository
	activities    *persistence.ActivityRepository
	cache         *cache.Store
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(leads *persistence.LeadRepository, opportunities *persistence.OpportunityRepository, activities *persistence.ActivityRepository, store *cache.Store) *DashboardService {
	return &DashboardService{leads: leads, opportunities: opportunities, activities: activities, cache: store}
}

// Summary builds the dashboard, read through the cache.
func (s *DashboardService) Summary(ctx context.Context, sess auth.UserSession) (*DashboardSummary, error) {
	var cached DashboardSummary
	if err := s.cache.GetJSON(ctx, sess.TenantID, sectionDashboard, "summary", &cached); err == nil {
		return &cached, nil
	} else if err != cache.ErrKeyNotFound {
		log.Printf("⚠️ Dashboard cache read failed: %v", err)
	}

	now := time.Now()

	leadsByStatus, err := s.leads.CountByStatus(ctx, sess.TenantID)
	if err != nil {
		return nil, errors.NewInternalError("failed to count leads", err)
	}

	pipeline, err := s.opportunities.PipelineSummary(ctx, sess.TenantID)
	if err != nil {
		return nil, errors.NewInternalError("failed to summarize pipeline", err)
	}

	won, lost, err := s.opportunities.ClosedTotals(ctx, sess.TenantID, now.Add(-closedWindow))
	if err != nil {
		return nil, errors.NewInternalError("failed to total closed opportunities", err)
	}

	upcoming, err := s.activities.ListUpcoming(ctx, sess.TenantID, now, now.Add(7*24*time.Hour), upcomingLimit)
	if err != nil {
		return nil, errors.NewInternalError("failed to list upcoming activities", err)
	}

	summary := &DashboardSummary{
		LeadsByStatus:      leadsByStatus,
		Pipeline:           pipeline,
		WonAmount30d:       won,
		LostAmount30d:      lost,
		UpcomingActivities: upcoming,
		GeneratedAt:        now,
	}

	if err := s.cache.SetJSON(ctx, sess.TenantID, sectionDashboard, "summary", summary); err != nil {
		log.Printf("⚠️ Dashboard cache write failed: %v", err)
	}
	return summary, nil
}
