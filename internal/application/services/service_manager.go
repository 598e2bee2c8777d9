package services

import (
	"database/sql"
	"time"

	"github.com/harborcrm/backend/internal/infrastructure/cache"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/scoring"
)

// Cache sections. Each maps to a key namespace under the tenant prefix and is
// invalidated as a unit.
const (
	sectionLeads         = "leads"
	sectionAccounts      = "accounts"
	sectionContacts      = "contacts"
	sectionOpportunities = "opportunities"
	sectionActivities    = "activities"
	sectionDashboard     = "dashboard"
)

// ServiceManager wires repositories and services over one DB handle and one
// cache store.
type ServiceManager struct {
	Auth          *AuthService
	Tenants       *TenantService
	Users         *UserService
	Leads         *LeadService
	Accounts      *AccountService
	Contacts      *ContactService
	Opportunities *OpportunityService
	Activities    *ActivityService
	Dashboard     *DashboardService

	Sessions *persistence.SessionRepository
}

// NewServiceManager creates a new ServiceManager
func NewServiceManager(db *sql.DB, store *cache.Store, tokenTTL time.Duration) *ServiceManager {
	tenants := persistence.NewTenantRepository(db)
	users := persistence.NewUserRepository(db)
	sessions := persistence.NewSessionRepository(db)
	leads := persistence.NewLeadRepository(db)
	accounts := persistence.NewAccountRepository(db)
	contacts := persistence.NewContactRepository(db)
	opportunities := persistence.NewOpportunityRepository(db)
	activities := persistence.NewActivityRepository(db)

	scorer := scoring.NewEngine()

	return &ServiceManager{
		Auth:          NewAuthService(users, tenants, sessions, tokenTTL),
		Tenants:       NewTenantService(db, tenants, users, store),
		Users:         NewUserService(users, sessions),
		Leads:         NewLeadService(db, leads, accounts, contacts, opportunities, scorer, store),
		Accounts:      NewAccountService(accounts, store),
		Contacts:      NewContactService(contacts, accounts, store),
		Opportunities: NewOpportunityService(opportunities, accounts, store),
		Activities:    NewActivityService(activities, store),
		Dashboard:     NewDashboardService(leads, opportunities, activities, store),
		Sessions:      sessions,
	}
}
