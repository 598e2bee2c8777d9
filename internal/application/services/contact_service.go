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

// ContactService manages contacts. Every contact hangs off an account in the
// same tenant.
type ContactService struct {
	contacts *persistence.ContactRepository
	accounts *persistence.AccountRepository
	cache    *cache.Store
}

// NewContactService creates a new ContactService
func NewContactService(contacts *persistence.ContactRepository, accounts *persistence.AccountRepository, store *cache.Store) *ContactService {
	return &ContactService{contacts: contacts, accounts: accounts, cache: store}
}

// ContactCreateInput is the payload for creating a contact.
type ContactCreateInput struct {
	AccountID string `json:"account_id" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Title     string `json:"title"`
	OwnerID   string `json:"owner_id"`
}

// ContactUpdateInput carries the updatable contact fields.
type ContactUpdateInput struct {
	AccountID *string `json:"account_id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Title     *string `json:"title"`
	OwnerID   *string `json:"owner_id"`
}

// Create inserts a contact after checking the account exists in the tenant.
func (s *ContactService) Create(ctx context.Context, sess auth.UserSession, input ContactCreateInput) (*models.Contact, error) {
	if input.Email != "" && !auth.IsValidEmail(input.Email) {
		return nil, errors.NewValidationError("email", "invalid email address")
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
	contact := &models.Contact{
		Audit: models.Audit{
			ID:        utils.NewID(),
			TenantID:  sess.TenantID,
			CreatedAt: now,
			CreatedBy: sess.ID,
			UpdatedAt: now,
			UpdatedBy: sess.ID,
		},
		AccountID: input.AccountID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Title:     input.Title,
		OwnerID:   ownerID,
	}

	if err := s.contacts.Insert(ctx, contact); err != nil {
		return nil, errors.NewInternalError("failed to create contact", err)
	}

	s.cache.InvalidateSection(ctx, sess.TenantID, sectionContacts)
	return contact, nil
}

// Get fetches one contact.
func (s *ContactService) Get(ctx context.Context, sess auth.UserSession, id string) (*models.Contact, error) {
	contact, err := s.contacts.FindByID(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up contact", err)
	}
	if contact == nil {
		return nil, errors.NewNotFoundError("Contact", id)
	}
	return contact, nil
}

// List pages through the tenant's contacts.
func (s *ContactService) List(ctx context.Context, sess auth.UserSession, filter persistence.ContactFilter, page persistence.Page) (*persistence.PageResult[*models.Contact], error) {
	result, err := s.contacts.List(ctx, sess.TenantID, filter, page)
	if err != nil {
		return nil, errors.NewInternalError("failed to list contacts", err)
	}
	return result, nil
}

// Update edits a contact. Re-parenting to another account revalidates it.
func (s *ContactService) Update(ctx context.Context, sess auth.UserSession, id string, input ContactUpdateInput) (*models.Contact, error) {
	updates := map[string]interface{}{}
	if input.AccountID != nil {
		exists, err := s.accounts.Exists(ctx, sess.TenantID, *input.AccountID)
		if err != nil {
			return nil, errors.NewInternalError("failed to check account", err)
		}
		if !exists {
			return nil, errors.NewNotFoundError("Account", *input.AccountID)
		}
		updates["account_id"] = *input.AccountID
	}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Email != nil {
		if *input.Email != "" && !auth.IsValidEmail(*input.Email) {
			return nil, errors.NewValidationError("email", "invalid email address")
		}
		updates["email"] = *input.Email
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.OwnerID != nil {
		updates["owner_id"] = *input.OwnerID
	}

	found, err := s.contacts.Update(ctx, sess.TenantID, id, sess.ID, updates)
	if err != nil {
		return nil, errors.NewInternalError("failed to update contact", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Contact", id)
	}

	s.cache.InvalidateSection(ctx, sess.TenantID, sectionContacts)
	return s.Get(ctx, sess, id)
}

// Delete soft-deletes a contact.
func (s *ContactService) Delete(ctx context.Context, sess auth.UserSession, id string) error {
	found, err := s.contacts.SoftDelete(ctx, sess.TenantID, id, sess.ID)
	if err != nil {
		return errors.NewInternalError("failed to delete contact", err)
	}
	if !found {
		return errors.NewNotFoundError("Contact", id)
	}
	s.cache.InvalidateSection(ctx, sess.TenantID, sectionContacts)
	return nil
}

// Restore brings a soft-deleted contact back.
func (s *ContactService) Restore(ctx context.Context, sess auth.UserSession, id string) (*models.Contact, error) {
	found, err := s.contacts.Restore(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to restore contact", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Contact", id)
	}
	s.cache.InvalidateSection(ctx, sess.TenantID, sectionContacts)
	return s.Get(ctx, sess, id)
}
