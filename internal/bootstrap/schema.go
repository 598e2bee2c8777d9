package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/harborcrm/backend/internal/infrastructure/database"
	"github.com/harborcrm/backend/pkg/constants"
)

// tableDDL holds the CREATE TABLE statement per table. Every tenant-scoped
// table carries the audit columns and an index on (tenant_id, deleted_at) so
// scoped list queries never scan across tenants.
var tableDDL = map[string]string{
	constants.TableTenant: `
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL,
			plan VARCHAR(32) NOT NULL DEFAULT 'free',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME NULL,
			UNIQUE KEY uk_tenants_slug (slug)
		)`,
	constants.TableUser: `
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			tenant_id VARCHAR(36) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(128) NOT NULL,
			last_name VARCHAR(128) NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'rep',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_login_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			created_by VARCHAR(36) NULL,
			updated_at DATETIME NOT NULL,
			updated_by VARCHAR(36) NULL,
			deleted_at DATETIME NULL,
			UNIQUE KEY uk_users_email (email),
			KEY idx_users_tenant (tenant_id, deleted_at)
		)`,
	constants.TableSession: `
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			tenant_id VARCHAR(36) NOT NULL,
			token TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			is_revoked BOOLEAN NOT NULL DEFAULT FALSE,
			ip_address VARCHAR(64) NULL,
			user_agent VARCHAR(512) NULL,
			last_activity DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			KEY idx_sessions_user (user_id),
			KEY idx_sessions_expiry (expires_at)
		)`,
	constants.TableLead: `
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			tenant_id VARCHAR(36) NOT NULL,
			first_name VARCHAR(128) NOT NULL,
			last_name VARCHAR(128) NOT NULL,
			company VARCHAR(255) NULL,
			email VARCHAR(255) NULL,
			phone VARCHAR(64) NULL,
			source VARCHAR(64) NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'new',
			score INT NOT NULL DEFAULT 0,
			owner_id VARCHAR(36) NOT NULL,
			account_id VARCHAR(36) NULL,
			contact_id VARCHAR(36) NULL,
			opportunity_id VARCHAR(36) NULL,
			created_at DATETIME NOT NULL,
			created_by VARCHAR(36) NULL,
			updated_at DATETIME NOT NULL,
			updated_by VARCHAR(36) NULL,
			deleted_at DATETIME NULL,
			KEY idx_leads_tenant (tenant_id, deleted_at),
			KEY idx_leads_status (tenant_id, status)
		)`,
	constants.TableAccount: `
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			tenant_id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			industry VARCHAR(128) NULL,
			website VARCHAR(255) NULL,
			phone VARCHAR(64) NULL,
			annual_revenue DOUBLE NOT NULL DEFAULT 0,
			employee_count INT NOT NULL DEFAULT 0,
			billing_address VARCHAR(512) NULL,
			owner_id VARCHAR(36) NOT NULL,
			created_at DATETIME NOT NULL,
			created_by VARCHAR(36) NULL,
			updated_at DATETIME NOT NULL,
			updated_by VARCHAR(36) NULL,
			deleted_at DATETIME NULL,
			KEY idx_accounts_tenant (tenant_id, deleted_at)
		)`,
	constants.TableContact: `
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			tenant_id VARCHAR(36) NOT NULL,
			account_id VARCHAR(36) NOT NULL,
			first_name VARCHAR(128) NOT NULL,
			last_name VARCHAR(128) NOT NULL,
			email VARCHAR(255) NULL,
			phone VARCHAR(64) NULL,
			title VARCHAR(128) NULL,
			owner_id VARCHAR(36) NOT NULL,
			created_at DATETIME NOT NULL,
			created_by VARCHAR(36) NULL,
			updated_at DATETIME NOT NULL,
			updated_by VARCHAR(36) NULL,
			deleted_at DATETIME NULL,
			KEY idx_contacts_tenant (tenant_id, deleted_at),
			KEY idx_contacts_account (tenant_id, account_id)
		)`,
	constants.TableOpportunity: `
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			tenant_id VARCHAR(36) NOT NULL,
			account_id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			stage VARCHAR(32) NOT NULL DEFAULT 'prospecting',
			amount DOUBLE NOT NULL DEFAULT 0,
			probability INT NOT NULL DEFAULT 10,
			expected_close_date DATETIME NULL,
			closed_at DATETIME NULL,
			owner_id VARCHAR(36) NOT NULL,
			created_at DATETIME NOT NULL,
			created_by VARCHAR(36) NULL,
			updated_at DATETIME NOT NULL,
			updated_by VARCHAR(36) NULL,
			deleted_at DATETIME NULL,
			KEY idx_opportunities_tenant (tenant_id, deleted_at),
			KEY idx_opportunities_stage (tenant_id, stage)
		)`,
	constants.TableActivity: `
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			tenant_id VARCHAR(36) NOT NULL,
			related_type VARCHAR(32) NOT NULL,
			related_id VARCHAR(36) NOT NULL,
			type VARCHAR(32) NOT NULL,
			subject VARCHAR(255) NOT NULL,
			description TEXT NULL,
			due_at DATETIME NULL,
			completed_at DATETIME NULL,
			owner_id VARCHAR(36) NOT NULL,
			created_at DATETIME NOT NULL,
			created_by VARCHAR(36) NULL,
			updated_at DATETIME NOT NULL,
			updated_by VARCHAR(36) NULL,
			deleted_at DATETIME NULL,
			KEY idx_activities_tenant (tenant_id, deleted_at),
			KEY idx_activities_related (tenant_id, related_type, related_id),
			KEY idx_activities_due (tenant_id, due_at)
		)`,
}

// tableOrder keeps DDL execution deterministic.
var tableOrder = []string{
	constants.TableTenant,
	constants.TableUser,
	constants.TableSession,
	constants.TableLead,
	constants.TableAccount,
	constants.TableContact,
	constants.TableOpportunity,
	constants.TableActivity,
}

// InitializeSchema creates all tables if they do not exist yet.
func InitializeSchema(db *database.Connection) error {
	log.Println("🔧 Initializing schema...")
	ctx := context.Background()

	for _, table := range tableOrder {
		ddl := fmt.Sprintf(tableDDL[table], table)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	log.Printf("✅ Schema ready (%d tables)", len(tableOrder))
	return nil
}
