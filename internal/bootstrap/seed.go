package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/harborcrm/backend/internal/domain/models"
	"github.com/harborcrm/backend/internal/infrastructure/database"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/auth"
	"github.com/harborcrm/backend/pkg/constants"
	"github.com/harborcrm/backend/pkg/utils"
)

const (
	defaultTenantName = "Harbor"
	defaultAdminEmail = "admin@harborcrm.local"
)

// SeedSystemData creates a default tenant and admin user on an empty
// database so a fresh install is immediately usable. A non-empty users table
// means the system is already set up and seeding is skipped.
func SeedSystemData(db *database.Connection) error {
	ctx := context.Background()
	users := persistence.NewUserRepository(db.DB())
	tenants := persistence.NewTenantRepository(db.DB())

	count, err := users.CountAll(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe123"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now()
	tenant := &models.Tenant{
		ID:        utils.NewID(),
		Name:      defaultTenantName,
		Slug:      utils.Slugify(defaultTenantName),
		Plan:      models.PlanFree,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tenants.Insert(ctx, tenant); err != nil {
		return err
	}

	admin := &models.User{
		Audit: models.Audit{
			ID:        utils.NewID(),
			TenantID:  tenant.ID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:        defaultAdminEmail,
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Admin",
		Role:         constants.RoleAdmin,
		IsActive:     true,
	}
	admin.CreatedBy = admin.ID
	admin.UpdatedBy = admin.ID
	if err := users.Insert(ctx, admin); err != nil {
		return err
	}

	log.Printf("🏢 Seeded tenant %q with admin %s", tenant.Name, admin.Email)
	return nil
}
