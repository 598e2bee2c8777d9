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

// AccountService manages accounts.
type AccountService struct {
	accounts *persistence.AccountRepository
	cache    *cache.Store
}

// NewAccountService creates a new AccountService
func NewAccountService(accounts *persistence.AccountRepository, store *cache.Store) *AccountService {
	return &AccountService{accounts: accounts, cache: store}
}

// AccountCreateInput is the payload for creating an account.
type AccountCreateInput struct {
	Name           string  `json:"name" binding:"required"`
	Industry       string  `json:"industry"`
	Website        string  `json:"website"`
	Phone          string  `json:"phone"`
	AnnualRevenue  float64 `json:"annual_revenue"`
	EmployeeCount  int     `json:"employee_count"`
	BillingAddress string  `json:"billing_address"`
	OwnerID        string  `json:"owner_id"`
}

// AccountUpdateInput carries the updatable account fields.
type AccountUpdateInput struct {
	Name           *string  `json:"name"`
	Industry       *string  `json:"industry"`
	Website        *string  `json:"website"`
	Phone          *string  `json:"phone"`
	AnnualRevenue  *float64 `json:"annual_revenue"`
	EmployeeCount  *int     `json:"employee_count"`
	BillingAddress *string  `json:"billing_address"`
	OwnerID        *string  `json:"owner_id"`
}

// Create inserts an account.
func (s *AccountService) Create(ctx context.Context, sess auth.UserSession, input AccountCreateInput) (*models.Account, error) {
	ownerID := input.OwnerID
	if ownerID == "" {
		ownerID = sess.ID
	}

	now := time.Now()
	account := &models.Account{
		Audit: models.Audit{
			ID:        utils.NewID(),
			TenantID:  sess.TenantID,
			CreatedAt: now,
			CreatedBy: sess.ID,
			UpdatedAt: now,
			UpdatedBy: sess.ID,
		},
		Name:           input.Name,
		Industry:       input.Industry,
		Website:        input.Website,
		Phone:          input.Phone,
		AnnualRevenue:  input.AnnualRevenue,
		EmployeeCount:  input.EmployeeCount,
		BillingAddress: input.BillingAddress,
		OwnerID:        ownerID,
	}

	if err := s.accounts.Insert(ctx, account); err != nil {
		return nil, errors.NewInternalError("failed to create account", err)
	}

	s.cache.InvalidateSection(ctx, sess.TenantID, sectionAccounts)
	return account, nil
}

// Get fetches one account, read through the cache.
func (s *AccountService) Get(ctx context.Context, sess auth.UserSession, id string) (*models.Account, error) {
	var cached models.Account
	if err := s.cache.GetJSON(ctx, sess.TenantID, sectionAccounts, id, &cached); err == nil {
		return &cached, nil
	} else if err != cache.ErrKeyNotFound {
		log.Printf("⚠️ Account cache read failed: %v", err)
	}

	account, err := s.accounts.FindByID(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up account", err)
	}
	if account == nil {
		return nil, errors.NewNotFoundError("Account", id)
	}

	if err := s.cache.SetJSON(ctx, sess.TenantID, sectionAccounts, id, account); err != nil {
		log.Printf("⚠️ Account cache write failed: %v", err)
	}
	return account, nil
}

// List pages through the tenant's accounts.
func (s *AccountService) List(ctx context.Context, sess auth.UserSession, filter persistence.AccountFilter, page persistence.Page) (*persistence.PageResult[*models.Account], error) {
	result, err := s.accounts.List(ctx, sess.TenantID, filter, page)
	if err != nil {
		return nil, errors.NewInternalError("failed to list accounts", err)
	}
	return result, nil
}

// Update edits an account.
func (s *AccountService) Update(ctx context.Context, sess auth.UserSession, id string, input AccountUpdateInput) (*models.Account, error) {
	updates := map[string]interface{}{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, errors.NewValidationError("name", "must not be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Industry != nil {
		updates["industry"] = *input.Industry
	}
	if input.Website != nil {
		updates["website"] = *input.Website
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.AnnualRevenue != nil {
		updates["annual_revenue"] = *input.AnnualRevenue
	}
	if input.EmployeeCount != nil {
		updates["employee_count"] = *input.EmployeeCount
	}
	if input.BillingAddress != nil {
		updates["billing_address"] = *input.BillingAddress
	}
	if input.OwnerID != nil {
		updates["owner_id"] = *input.OwnerID
	}

	found, err := s.accounts.Update(ctx, sess.TenantID, id, sess.ID, updates)
	if err != nil {
		return nil, errors.NewInternalError("failed to update account", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Account", id)
	}

	s.cache.InvalidateSection(ctx, sess.TenantID, sectionAccounts)
	return s.reload(ctx, sess, id)
}

// Delete soft-deletes an account.
func (s *AccountService) Delete(ctx context.Context, sess auth.UserSession, id string) error {
	found, err := s.accounts.SoftDelete(ctx, sess.TenantID, id, sess.ID)
	if err != nil {
		return errors.NewInternalError("failed to delete account", err)
	}
	if !found {
		return errors.NewNotFoundError("Account", id)
	}
	s.cache.InvalidateSection(ctx, sess.TenantID, sectionAccounts)
	s.cache.InvalidateSection(ctx, sess.TenantID, sectionDashboard)
	return nil
}

// Restore brings a soft-deleted account back.
func (s *AccountService) Restore(ctx context.Context, sess auth.UserSession, id string) (*models.Account, error) {
	found, err := s.accounts.Restore(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to restore account", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Account", id)
	}
	s.cache.InvalidateSection(ctx, sess.TenantID, sectionAccounts)
	return s.reload(ctx, sess, id)
}

func (s *AccountService) reload(ctx context.Context, sess auth.UserSession, id string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to reload account", err)
	}
	if account == nil {
		return nil, errors.NewNotFoundError("Account", id)
	}
	return account, nil
}
