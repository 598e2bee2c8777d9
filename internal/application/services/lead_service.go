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
	"github.com/harborcrm/backend/pkg/errors"
	"github.com/harborcrm/backend/pkg/scoring"
	"github.com/harborcrm/backend/pkg/utils"
)

// LeadService manages leads: CRUD, scoring, and conversion into
// account + contact + opportunity.
type LeadService struct {
	db            *sql.DB
	leads         *persistence.LeadRepository
	accounts      *persistence.AccountRepository
	contacts      *persistence.ContactRepository
	opportunities *persistence.OpportunityRepository
	scorer        *scoring.Engine
	cache         *cache.Store
}

// NewLeadService creates a new LeadService
func NewLeadService(db *sql.DB, leads *persistence.LeadRepository, accounts *persistence.AccountRepository, contacts *persistence.ContactRepository, opportunities *persistence.OpportunityRepository, scorer *scoring.Engine, store *cache.Store) *LeadService {
	return &LeadService{
		db:            db,
		leads:         leads,
		accounts:      accounts,
		contacts:      contacts,
		opportunities: opportunities,
		scorer:        scorer,
		cache:         store,
	}
}

// LeadCreateInput is the payload for creating a lead.
type LeadCreateInput struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Source    string `json:"source"`
	OwnerID   string `json:"owner_id"`
}

// LeadUpdateInput carries the updatable lead fields.
type LeadUpdateInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Company   *string `json:"company"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Source    *string `json:"source"`
	Status    *string `json:"status"`
	OwnerID   *string `json:"owner_id"`
}

// ConvertInput controls lead conversion. When CreateOpportunity is set, an
// opportunity is opened on the new account as well.
type ConvertInput struct {
	CreateOpportunity bool    `json:"create_opportunity"`
	OpportunityName   string  `json:"opportunity_name"`
	Amount            float64 `json:"amount"`
}

// ConvertResult reports the records created by a conversion.
type ConvertResult struct {
	Lead        *models.Lead        `json:"lead"`
	Account     *models.Account     `json:"account"`
	Contact     *models.Contact     `json:"contact"`
	Opportunity *models.Opportunity `json:"opportunity,omitempty"`
}

// Create inserts a lead with a freshly computed score.
func (s *LeadService) Create(ctx context.Context, sess auth.UserSession, input LeadCreateInput) (*models.Lead, error) {
	if input.Email != "" && !auth.IsValidEmail(input.Email) {
		return nil, errors.NewValidationError("email", "invalid email address")
	}

	ownerID := input.OwnerID
	if ownerID == "" {
		ownerID = sess.ID
	}

	now := time.Now()
	lead := &models.Lead{
		Audit: models.Audit{
			ID:        utils.NewID(),
			TenantID:  sess.TenantID,
			CreatedAt: now,
			CreatedBy: sess.ID,
			UpdatedAt: now,
			UpdatedBy: sess.ID,
		},
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Company:   input.Company,
		Email:     input.Email,
		Phone:     input.Phone,
		Source:    input.Source,
		Status:    models.LeadStatusNew,
		OwnerID:   ownerID,
	}
	lead.Score = s.score(lead)

	if err := s.leads.Insert(ctx, lead); err != nil {
		return nil, errors.NewInternalError("failed to create lead", err)
	}

	s.invalidate(ctx, sess.TenantID)
	return lead, nil
}

// Get fetches one lead, read through the cache.
func (s *LeadService) Get(ctx context.Context, sess auth.UserSession, id string) (*models.Lead, error) {
	var cached models.Lead
	if err := s.cache.GetJSON(ctx, sess.TenantID, sectionLeads, id, &cached); err == nil {
		return &cached, nil
	} else if err != cache.ErrKeyNotFound {
		log.Printf("⚠️ Lead cache read failed: %v", err)
	}

	lead, err := s.leads.FindByID(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up lead", err)
	}
	if lead == nil {
		return nil, errors.NewNotFoundError("Lead", id)
	}

	if err := s.cache.SetJSON(ctx, sess.TenantID, sectionLeads, id, lead); err != nil {
		log.Printf("⚠️ Lead cache write failed: %v", err)
	}
	return lead, nil
}

// List pages through the tenant's leads.
func (s *LeadService) List(ctx context.Context, sess auth.UserSession, filter persistence.LeadFilter, page persistence.Page) (*persistence.PageResult[*models.Lead], error) {
	if filter.Status != "" && !isValidLeadStatus(filter.Status) {
		return nil, errors.NewValidationError("status", "unknown lead status")
	}
	result, err := s.leads.List(ctx, sess.TenantID, filter, page)
	if err != nil {
		return nil, errors.NewInternalError("failed to list leads", err)
	}
	return result, nil
}

// Update edits a lead and recomputes its score. Status may not be set to
// converted directly; use Convert.
func (s *LeadService) Update(ctx context.Context, sess auth.UserSession, id string, input LeadUpdateInput) (*models.Lead, error) {
	updates := map[string]interface{}{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Company != nil {
		updates["company"] = *input.Company
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
	if input.Source != nil {
		updates["source"] = *input.Source
	}
	if input.Status != nil {
		if !isValidLeadStatus(*input.Status) {
			return nil, errors.NewValidationError("status", "unknown lead status")
		}
		if *input.Status == models.LeadStatusConverted {
			return nil, errors.NewValidationError("status", "use the convert operation to convert a lead")
		}
		updates["status"] = *input.Status
	}
	if input.OwnerID != nil {
		updates["owner_id"] = *input.OwnerID
	}

	found, err := s.leads.Update(ctx, sess.TenantID, id, sess.ID, updates)
	if err != nil {
		return nil, errors.NewInternalError("failed to update lead", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Lead", id)
	}

	// Rescore against the updated row
	lead, err := s.leads.FindByID(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to reload lead", err)
	}
	if lead == nil {
		return nil, errors.NewNotFoundError("Lead", id)
	}
	if newScore := s.score(lead); newScore != lead.Score {
		if _, err := s.leads.Update(ctx, sess.TenantID, id, sess.ID, map[string]interface{}{"score": newScore}); err != nil {
			log.Printf("⚠️ Failed to store recomputed score for lead %s: %v", id, err)
		} else {
			lead.Score = newScore
		}
	}

	s.invalidate(ctx, sess.TenantID)
	return lead, nil
}

// Delete soft-deletes a lead.
func (s *LeadService) Delete(ctx context.Context, sess auth.UserSession, id string) error {
	found, err := s.leads.SoftDelete(ctx, sess.TenantID, id, sess.ID)
	if err != nil {
		return errors.NewInternalError("failed to delete lead", err)
	}
	if !found {
		return errors.NewNotFoundError("Lead", id)
	}
	s.invalidate(ctx, sess.TenantID)
	return nil
}

// Restore brings a soft-deleted lead back.
func (s *LeadService) Restore(ctx context.Context, sess auth.UserSession, id string) (*models.Lead, error) {
	found, err := s.leads.Restore(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to restore lead", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("Lead", id)
	}
	s.invalidate(ctx, sess.TenantID)

	lead, err := s.leads.FindByID(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to reload lead", err)
	}
	if lead == nil {
		return nil, errors.NewNotFoundError("Lead", id)
	}
	return lead, nil
}

// Convert turns a lead into an account + contact (+ optional opportunity) in
// one transaction and marks the lead converted. Converting a converted lead
// is a conflict.
func (s *LeadService) Convert(ctx context.Context, sess auth.UserSession, id string, input ConvertInput) (*ConvertResult, error) {
	lead, err := s.leads.FindByID(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up lead", err)
	}
	if lead == nil {
		return nil, errors.NewNotFoundError("Lead", id)
	}
	if lead.IsConverted() {
		return nil, errors.NewConflictError("Lead conversion", "lead_id", id)
	}

	now := time.Now()
	audit := models.Audit{
		TenantID:  sess.TenantID,
		CreatedAt: now,
		CreatedBy: sess.ID,
		UpdatedAt: now,
		UpdatedBy: sess.ID,
	}

	accountName := lead.Company
	if accountName == "" {
		accountName = lead.FirstName + " " + lead.LastName
	}

	account := &models.Account{Audit: audit, Name: accountName, Phone: lead.Phone, OwnerID: lead.OwnerID}
	account.ID = utils.NewID()

	contact := &models.Contact{
		Audit:     audit,
		AccountID: account.ID,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Email:     lead.Email,
		Phone:     lead.Phone,
		OwnerID:   lead.OwnerID,
	}
	contact.ID = utils.NewID()

	var opportunity *models.Opportunity
	var opportunityID *string
	if input.CreateOpportunity {
		name := input.OpportunityName
		if name == "" {
			name = accountName + " - New Business"
		}
		opportunity = &models.Opportunity{
			Audit:       audit,
			AccountID:   account.ID,
			Name:        name,
			Stage:       models.StageProspecting,
			Amount:      input.Amount,
			Probability: models.StageProbability[models.StageProspecting],
			OwnerID:     lead.OwnerID,
		}
		opportunity.ID = utils.NewID()
		opportunityID = &opportunity.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.accounts.InsertTx(ctx, tx, account); err != nil {
		return nil, errors.NewInternalError("failed to create account", err)
	}
	if err := s.contacts.InsertTx(ctx, tx, contact); err != nil {
		return nil, errors.NewInternalError("failed to create contact", err)
	}
	if opportunity != nil {
		if err := s.opportunities.InsertTx(ctx, tx, opportunity); err != nil {
			return nil, errors.NewInternalError("failed to create opportunity", err)
		}
	}
	found, err := s.leads.MarkConvertedTx(ctx, tx, sess.TenantID, id, sess.ID, account.ID, contact.ID, opportunityID)
	if err != nil {
		return nil, errors.NewInternalError("failed to mark lead converted", err)
	}
	if !found {
		// Deleted between the read and the update
		return nil, errors.NewNotFoundError("Lead", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternalError("failed to commit conversion", err)
	}

	lead.Status = models.LeadStatusConverted
	lead.AccountID = &account.ID
	lead.ContactID = &contact.ID
	lead.OpportunityID = opportunityID

	s.invalidate(ctx, sess.TenantID)
	s.cache.InvalidateSection(ctx, sess.TenantID, sectionAccounts)
	s.cache.InvalidateSection(ctx, sess.TenantID, sectionContacts)
	s.cache.InvalidateSection(ctx, sess.TenantID, sectionOpportunities)

	log.Printf("🔁 Lead %s converted to account %s by %s", id, account.ID, sess.ID)
	return &ConvertResult{Lead: lead, Account: account, Contact: contact, Opportunity: opportunity}, nil
}

func (s *LeadService) score(lead *models.Lead) int {
	env := map[string]interface{}{
		"first_name": lead.FirstName,
		"last_name":  lead.LastName,
		"company":    lead.Company,
		"email":      lead.Email,
		"phone":      lead.Phone,
		"source":     lead.Source,
		"status":     lead.Status,
	}
	score, err := s.scorer.Score(env, nil)
	if err != nil {
		log.Printf("⚠️ Lead scoring failed, keeping score 0: %v", err)
		return 0
	}
	return score
}

func (s *LeadService) invalidate(ctx context.Context, tenantID string) {
	s.cache.InvalidateSection(ctx, tenantID, sectionLeads)
	s.cache.InvalidateSection(ctx, tenantID, sectionDashboard)
}

func isValidLeadStatus(status string) bool {
	for _, v := range models.ValidLeadStatuses {
		if v == status {
			return true
		}
	}
	return false
}
