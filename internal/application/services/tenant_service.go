package services

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/harborcrm/backend/internal/domain/models"
	"github.com/harborcrm/backend/internal/infrastructure/cache"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/auth"
	"github.com/harborcrm/backend/pkg/constants"
	"github.com/harborcrm/backend/pkg/errors"
	"github.com/harborcrm/backend/pkg/utils"
)

// TenantService manages tenants and self-service registration.
type TenantService struct {
	db      *sql.DB
	tenants *persistence.TenantRepository
	users   *persistence.UserRepository
	cache   *cache.Store
}

// NewTenantService creates a new TenantService
func NewTenantService(db *sql.DB, tenants *persistence.TenantRepository, users *persistence.UserRepository, store *cache.Store) *TenantService {
	return &TenantService{db: db, tenants: tenants, users: users, cache: store}
}

// RegisterInput is the self-service signup payload: a new tenant plus its
// first admin user.
type RegisterInput struct {
	TenantName string `json:"tenant_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
}

// RegisterResult is the created tenant and admin user.
type RegisterResult struct {
	Tenant *models.Tenant `json:"tenant"`
	Admin  *models.User   `json:"admin"`
}

// Register creates a tenant and its admin user in one transaction.
func (s *TenantService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if !auth.IsValidEmail(input.Email) {
		return nil, errors.NewValidationError("email", "invalid email address")
	}
	if err := auth.ValidatePasswordStrength(input.Password); err != nil {
		return nil, errors.NewValidationError("password", err.Error())
	}

	slug := utils.Slugify(input.TenantName)
	if slug == "" {
		return nil, errors.NewValidationError("tenant_name", "name must contain letters or digits")
	}
	taken, err := s.tenants.SlugExists(ctx, slug)
	if err != nil {
		return nil, errors.NewInternalError("failed to check tenant slug", err)
	}
	if taken {
		return nil, errors.NewConflictError("Tenant", "slug", slug)
	}

	existing, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, errors.NewInternalError("failed to check email", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError("User", "email", input.Email)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	now := time.Now()
	tenant := &models.Tenant{
		ID:        utils.NewID(),
		Name:      input.TenantName,
		Slug:      slug,
		Plan:      models.PlanFree,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	admin := &models.User{
		Audit: models.Audit{
			ID:        utils.NewID(),
			TenantID:  tenant.ID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         constants.RoleAdmin,
		IsActive:     true,
	}
	admin.CreatedBy = admin.ID
	admin.UpdatedBy = admin.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.tenants.InsertTx(ctx, tx, tenant); err != nil {
		return nil, errors.NewInternalError("failed to create tenant", err)
	}
	if err := s.users.InsertTx(ctx, tx, admin); err != nil {
		return nil, errors.NewInternalError("failed to create admin user", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternalError("failed to commit registration", err)
	}

	log.Printf("🏢 Tenant %s (%s) registered with admin %s", tenant.Name, tenant.ID, admin.Email)
	return &RegisterResult{Tenant: tenant, Admin: admin}, nil
}

// Get returns the tenant for the authenticated session.
func (s *TenantService) Get(ctx context.Context, tenantID string) (*models.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up tenant", err)
	}
	if tenant == nil {
		return nil, errors.NewNotFoundError("Tenant", tenantID)
	}
	return tenant, nil
}

// TenantUpdateInput carries the updatable tenant fields.
type TenantUpdateInput struct {
	Name *string `json:"name"`
	Plan *string `json:"plan"`
}

// Update renames or replans the tenant.
func (s *TenantService) Update(ctx context.Context, tenantID string, input TenantUpdateInput) (*models.Tenant, error) {
	updates := map[string]interface{}{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, errors.NewValidationError("name", "must not be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Plan != nil {
		switch *input.Plan {
		case models.PlanFree, models.PlanTeam, models.PlanEnterprise:
			updates["plan"] = *input.Plan
		default:
			return nil, errors.NewValidationError("plan", "unknown plan")
		}
	}

	found, err := s.tenants.Update(ctx, tenantID, updates)
	if err != nil {
		return nil, errors.NewInternalError("failed to update tenant", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Tenant", tenantID)
	}
	return s.Get(ctx, tenantID)
}

// Deactivate switches the tenant off; logins are rejected and the cache for
// the tenant is dropped.
func (s *TenantService) Deactivate(ctx context.Context, tenantID string) error {
	found, err := s.tenants.Update(ctx, tenantID, map[string]interface{}{"is_active": false})
	if err != nil {
		return errors.NewInternalError("failed to deactivate tenant", err)
	}
	if !found {
		return errors.NewNotFoundError("Tenant", tenantID)
	}
	s.cache.InvalidateTenant(ctx, tenantID)
	return nil
}
