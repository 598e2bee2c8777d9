package services

import (
	"context"
	"time"

	"github.com/harborcrm/backend/internal/domain/models"
	"github.com/harborcrm/backend/internal/infrastructure/cache"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/auth"
	"github.com/harborcrm/backend/pkg/errors"
	"github.com/harborcrm/backend/pkg/utils"
)

// validRelatedTypes are the record kinds an activity can attach to.
var validRelatedTypes = map[string]bool{
	"lead": true, "account": true, "contact": true, "opportunity": true,
}

var validActivityTypes = map[string]bool{
	models.ActivityCall: true, models.ActivityEmail: true,
	models.ActivityMeeting: true, models.ActivityTask: true,
	models.ActivityNote: true,
}

// ActivityService manages activities: tasks and logged interactions.
type ActivityService struct {
	activities *persistence.ActivityRepository
	cache      *cache.Store
}

// NewActivityService creates a new ActivityService
func NewActivityService(activities *persistence.ActivityRepository, store *cache.Store) *ActivityService {
	return &ActivityService{activities: activities, cache: store}
}

// ActivityCreateInput is the payload for creating an activity.
type ActivityCreateInput struct {
	RelatedType string     `json:"related_type" binding:"required"`
	RelatedID   string     `json:"related_id" binding:"required"`
	Type        string     `json:"type" binding:"required"`
	Subject     string     `json:"subject" binding:"required"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	OwnerID     string     `json:"owner_id"`
}

// ActivityUpdateInput carries the updatable activity fields.
type ActivityUpdateInput struct {
	Subject     *string    `json:"subject"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	OwnerID     *string    `json:"owner_id"`
}

// Create inserts an activity.
func (s *ActivityService) Create(ctx context.Context, sess auth.UserSession, input ActivityCreateInput) (*models.Activity, error) {
	if !validRelatedTypes[input.RelatedType] {
		return nil, errors.NewValidationError("related_type", "must be lead, account, contact or opportunity")
	}
	if !validActivityTypes[input.Type] {
		return nil, errors.NewValidationError("type", "unknown activity type")
	}

	ownerID := input.OwnerID
	if ownerID == "" {
		ownerID = sess.ID
	}

	now := time.Now()
	activity := &models.Activity{
		Audit: models.Audit{
			ID:        utils.NewID(),
			TenantID:  sess.TenantID,
			CreatedAt: now,
			CreatedBy: sess.ID,
			UpdatedAt: now,
			UpdatedBy: sess.ID,
		},
		RelatedType: input.RelatedType,
		RelatedID:   input.RelatedID,
		Type:        input.Type,
		Subject:     input.Subject,
		Description: input.Description,
		DueAt:       input.DueAt,
		OwnerID:     ownerID,
	}

	if err := s.activities.Insert(ctx, activity); err != nil {
		return nil, errors.NewInternalError("failed to create activity", err)
	}

	s.invalidate(ctx, sess.TenantID)
	return activity, nil
}

// Get fetches one activity.
func (s *ActivityService) Get(ctx context.Context, sess auth.UserSession, id string) (*models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up activity", err)
	}
	if activity == nil {
		return nil, errors.NewNotFoundError("Activity", id)
	}
	return activity, nil
}

// List pages through the tenant's activities.
func (s *ActivityService) List(ctx context.Context, sess auth.UserSession, filter persistence.ActivityFilter, page persistence.Page) (*persistence.PageResult[*models.Activity], error) {
	result, err := s.activities.List(ctx, sess.TenantID, filter, page)
	if err != nil {
		return nil, errors.NewInternalError("failed to list activities", err)
	}
	return result, nil
}

// ListOverdue pages through open activities past their due date.
func (s *ActivityService) ListOverdue(ctx context.Context, sess auth.UserSession, page persistence.Page) (*persistence.PageResult[*models.Activity], error) {
	result, err := s.activities.ListOverdue(ctx, sess.TenantID, time.Now(), page)
	if err != nil {
		return nil, errors.NewInternalError("failed to list overdue activities", err)
	}
	return result, nil
}

// Update edits an activity.
func (s *ActivityService) Update(ctx context.Context, sess auth.UserSession, id string, input ActivityUpdateInput) (*models.Activity, error) {
	updates := map[string]interface{}{}
	if input.Subject != nil {
		if *input.Subject == "" {
			return nil, errors.NewValidationError("subject", "must not be empty")
		}
		updates["subject"] = *input.Subject
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.DueAt != nil {
		updates["due_at"] = *input.DueAt
	}
	if input.OwnerID != nil {
		updates["owner_id"] = *input.OwnerID
	}

	found, err := s.activities.Update(ctx, sess.TenantID, id, sess.ID, updates)
	if err != nil {
		return nil, errors.NewInternalError("failed to update activity", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Activity", id)
	}

	s.invalidate(ctx, sess.TenantID)
	return s.Get(ctx, sess, id)
}

// Complete stamps the activity done. Idempotent.
func (s *ActivityService) Complete(ctx context.Context, sess auth.UserSession, id string) (*models.Activity, error) {
	found, err := s.activities.Complete(ctx, sess.TenantID, id, sess.ID, time.Now())
	if err != nil {
		return nil, errors.NewInternalError("failed to complete activity", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Activity", id)
	}

	s.invalidate(ctx, sess.TenantID)
	return s.Get(ctx, sess, id)
}

// Delete soft-deletes an activity.
func (s *ActivityService) Delete(ctx context.Context, sess auth.UserSession, id string) error {
	found, err := s.activities.SoftDelete(ctx, sess.TenantID, id, sess.ID)
	if err != nil {
		return errors.NewInternalError("failed to delete activity", err)
	}
	if !found {
		return errors.NewNotFoundError("Activity", id)
	}
	s.invalidate(ctx, sess.TenantID)
	return nil
}

func (s *ActivityService) invalidate(ctx context.Context, tenantID string) {
	s.cache.InvalidateSection(ctx, tenantID, sectionActivities)
	s.cache.InvalidateSection(ctx, tenantID, sectionDashboard)
}
