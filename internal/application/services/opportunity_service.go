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
	"github.com/harborcrm/backend/pkg/utils"
)

// OpportunityService manages opportunities and the pipeline view.
type OpportunityService struct {
	opportunities *persistence.OpportunityRepository
	accounts      *persistence.AccountRepository
	cache         *cache.Store
}

// NewOpportunityService creates a new OpportunityService
func NewOpportunityService(opportunities *persistence.OpportunityRepository, accounts *persistence.AccountRepository, store *cache.Store) *OpportunityService {
	return &OpportunityService{opportunities: opportunities, accounts: accounts, cache: store}
}

// OpportunityCreateInput is the payload for creating an opportunity.
type OpportunityCreateInput struct {
	AccountID         string     `json:"account_id" binding:"required"`
	Name              string     `json:"name" binding:"required"`
	Amount            float64    `json:"amount"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	OwnerID           string     `json:"owner_id"`
}

// OpportunityUpdateInput carries the updatable opportunity fields. Stage
// changes go through ChangeStage so probability and closed_at stay coherent.
type OpportunityUpdateInput struct {
	Name              *string    `json:"name"`
	Amount            *float64   `json:"amount"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	OwnerID           *string    `json:"owner_id"`
}

// Create inserts an opportunity at the prospecting stage.
func (s *OpportunityService) Create(ctx context.Context, sess auth.UserSession, input OpportunityCreateInput) (*models.Opportunity, error) {
	if input.Amount < 0 {
		return nil, errors.NewValidationError("amount", "must not be negative")
	}

	exists, err := s.accounts.Exists(ctx, sess.TenantID, input.AccountID)
	if err != nil {
		return nil, errors.NewInternalError("failed to check account", err)
	}
	if !exists {
		return nil, errors.NewNotFoundError("Account", input.AccountID)
	}

	ownerID := input.OwnerID
	if ownerID == "" {
		ownerID = sess.ID
	}

	now := time.Now()
	opp := &models.Opportunity{
		Audit: models.Audit{
			ID:        utils.NewID(),
			TenantID:  sess.TenantID,
			CreatedAt: now,
			CreatedBy: sess.ID,
			UpdatedAt: now,
			UpdatedBy: sess.ID,
		},
		AccountID:         input.AccountID,
		Name:              input.Name,
		Stage:             models.StageProspecting,
		Amount:            input.Amount,
		Probability:       models.StageProbability[models.StageProspecting],
		ExpectedCloseDate: input.ExpectedCloseDate,
		OwnerID:           ownerID,
	}

	if err := s.opportunities.Insert(ctx, opp); err != nil {
		return nil, errors.NewInternalError("failed to create opportunity", err)
	}

	s.invalidate(ctx, sess.TenantID)
	return opp, nil
}

// Get fetches one opportunity.
func (s *OpportunityService) Get(ctx context.Context, sess auth.UserSession, id string) (*models.Opportunity, error) {
	opp, err := s.opportunities.FindByID(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up opportunity", err)
	}
	if opp == nil {
		return nil, errors.NewNotFoundError("Opportunity", id)
	}
	return opp, nil
}

// List pages through the tenant's opportunities.
func (s *OpportunityService) List(ctx context.Context, sess auth.UserSession, filter persistence.OpportunityFilter, page persistence.Page) (*persistence.PageResult[*models.Opportunity], error) {
	if filter.Stage != "" {
		if _, ok := models.StageProbability[filter.Stage]; !ok {
			return nil, errors.NewValidationError("stage", "unknown stage")
		}
	}
	result, err := s.opportunities.List(ctx, sess.TenantID, filter, page)
	if err != nil {
		return nil, errors.NewInternalError("failed to list opportunities", err)
	}
	return result, nil
}

// Update edits an opportunity's non-stage fields.
func (s *OpportunityService) Update(ctx context.Context, sess auth.UserSession, id string, input OpportunityUpdateInput) (*models.Opportunity, error) {
	updates := map[string]interface{}{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, errors.NewValidationError("name", "must not be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Amount != nil {
		if *input.Amount < 0 {
			return nil, errors.NewValidationError("amount", "must not be negative")
		}
		updates["amount"] = *input.Amount
	}
	if input.ExpectedCloseDate != nil {
		updates["expected_close_date"] = *input.ExpectedCloseDate
	}
	if input.OwnerID != nil {
		updates["owner_id"] = *input.OwnerID
	}

	found, err := s.opportunities.Update(ctx, sess.TenantID, id, sess.ID, updates)
	if err != nil {
		return nil, errors.NewInternalError("failed to update opportunity", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Opportunity", id)
	}

	s.invalidate(ctx, sess.TenantID)
	return s.Get(ctx, sess, id)
}

// ChangeStage moves an opportunity through the pipeline. Probability snaps to
// the stage default and terminal stages stamp closed_at. A closed opportunity
// cannot move again.
func (s *OpportunityService) ChangeStage(ctx context.Context, sess auth.UserSession, id, stage string) (*models.Opportunity, error) {
	probability, ok := models.StageProbability[stage]
	if !ok {
		return nil, errors.NewValidationError("stage", "unknown stage")
	}

	opp, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalStage(opp.Stage) {
		return nil, errors.NewConflictError("Opportunity stage change", "stage", opp.Stage)
	}

	updates := map[string]interface{}{
		"stage":       stage,
		"probability": probability,
	}
	if models.IsTerminalStage(stage) {
		updates["closed_at"] = time.Now()
	}

	found, err := s.opportunities.Update(ctx, sess.TenantID, id, sess.ID, updates)
	if err != nil {
		return nil, errors.NewInternalError("failed to change stage", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Opportunity", id)
	}

	s.invalidate(ctx, sess.TenantID)
	log.Printf("📈 Opportunity %s moved to %s by %s", id, stage, sess.ID)
	return s.Get(ctx, sess, id)
}

// Delete soft-deletes an opportunity.
func (s *OpportunityService) Delete(ctx context.Context, sess auth.UserSession, id string) error {
	found, err := s.opportunities.SoftDelete(ctx, sess.TenantID, id, sess.ID)
	if err != nil {
		return errors.NewInternalError("failed to delete opportunity", err)
	}
	if !found {
		return errors.NewNotFoundError("Opportunity", id)
	}
	s.invalidate(ctx, sess.TenantID)
	return nil
}

// Restore brings a soft-deleted opportunity back.
func (s *OpportunityService) Restore(ctx context.Context, sess auth.UserSession, id string) (*models.Opportunity, error) {
	found, err := s.opportunities.Restore(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to restore opportunity", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Opportunity", id)
	}
	s.invalidate(ctx, sess.TenantID)
	return s.Get(ctx, sess, id)
}

// Pipeline returns the open-stage summary, read through the cache.
func (s *OpportunityService) Pipeline(ctx context.Context, sess auth.UserSession) ([]persistence.StageSummary, error) {
	var cached []persistence.StageSummary
	if err := s.cache.GetJSON(ctx, sess.TenantID, sectionDashboard, "pipeline", &cached); err == nil {
		return cached, nil
	} else if err != cache.ErrKeyNotFound {
		log.Printf("⚠️ Pipeline cache read failed: %v", err)
	}

	summary, err := s.opportunities.PipelineSummary(ctx, sess.TenantID)
	if err != nil {
		return nil, errors.NewInternalError("failed to summarize pipeline", err)
	}

	if err := s.cache.SetJSON(ctx, sess.TenantID, sectionDashboard, "pipeline", summary); err != nil {
		log.Printf("⚠️ Pipeline cache write failed: %v", err)
	}
	return summary, nil
}

func (s *OpportunityService) invalidate(ctx context.Context, tenantID string) {
	s.cache.InvalidateSection(ctx, tenantID, sectionOpportunities)
	s.cache.InvalidateSection(ctx, tenantID, sectionDashboard)
}
