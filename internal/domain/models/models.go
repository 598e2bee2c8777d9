package models

import "time"

// Audit carries the bookkeeping columns present on every record.
// TenantID scopes the row; DeletedAt marks soft deletion (hidden from reads
// but recoverable).
type Audit struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Tenant is an organization-scoped partition of all CRM data.
// It is the only record not carrying a tenant_id of its own.
type Tenant struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Plan      string     `json:"plan"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Tenant plans
const (
	PlanFree       = "free"
	PlanTeam       = "team"
	PlanEnterprise = "enterprise"
)

// User is a CRM user belonging to exactly one tenant.
type User struct {
	Audit
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// FullName returns "First Last" with missing parts dropped.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Lead statuses
const (
	LeadStatusNew         = "new"
	LeadStatusContacted   = "contacted"
	LeadStatusQualified   = "qualified"
	LeadStatusUnqualified = "unqualified"
	LeadStatusConverted   = "converted"
)

// ValidLeadStatuses lists the accepted lead status values.
var ValidLeadStatuses = []string{
	LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
	LeadStatusUnqualified, LeadStatusConverted,
}

// Lead is an unqualified prospect at the top of the pipeline.
type Lead struct {
	Audit
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Company       string  `json:"company"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Source        string  `json:"source"`
	Status        string  `json:"status"`
	Score         int     `json:"score"`
	OwnerID       string  `json:"owner_id"`
	AccountID     *string `json:"account_id,omitempty"`
	ContactID     *string `json:"contact_id,omitempty"`
	OpportunityID *string `json:"opportunity_id,omitempty"`
}

// IsConverted reports whether the lead has already been converted.
func (l *Lead) IsConverted() bool {
	return l.Status == LeadStatusConverted
}

// Account is a company the tenant does business with.
type Account struct {
	Audit
	Name           string  `json:"name"`
	Industry       string  `json:"industry"`
	Website        string  `json:"website"`
	Phone          string  `json:"phone"`
	AnnualRevenue  float64 `json:"annual_revenue"`
	EmployeeCount  int     `json:"employee_count"`
	BillingAddress string  `json:"billing_address"`
	OwnerID        string  `json:"owner_id"`
}

// Contact is a person attached to an account.
type Contact struct {
	Audit
	AccountID string `json:"account_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Title     string `json:"title"`
	OwnerID   string `json:"owner_id"`
}

// Opportunity stages
const (
	StageProspecting   = "prospecting"
	StageQualification = "qualification"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosedWon     = "closed_won"
	StageClosedLost    = "closed_lost"
)

// OpenStages lists the non-terminal pipeline stages in order.
var OpenStages = []string{
	StageProspecting, StageQualification, StageProposal, StageNegotiation,
}

// StageProbability maps each stage to its default win probability.
var StageProbability = map[string]int{
	StageProspecting:   10,
	StageQualification: 25,
	StageProposal:      50,
	StageNegotiation:   75,
	StageClosedWon:     100,
	StageClosedLost:    0,
}

// IsTerminalStage reports whether a stage ends the opportunity.
func IsTerminalStage(stage string) bool {
	return stage == StageClosedWon || stage == StageClosedLost
}

// Opportunity is a potential deal attached to an account.
type Opportunity struct {
	Audit
	AccountID         string     `json:"account_id"`
	Name              string     `json:"name"`
	Stage             string     `json:"stage"`
	Amount            float64    `json:"amount"`
	Probability       int        `json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	OwnerID           string     `json:"owner_id"`
}

// Activity types
const (
	ActivityCall    = "call"
	ActivityEmail   = "email"
	ActivityMeeting = "meeting"
	ActivityTask    = "task"
	ActivityNote    = "note"
)

// Activity is a task or interaction attached to any CRM record via
// RelatedType ("lead" | "account" | "contact" | "opportunity") + RelatedID.
type Activity struct {
	Audit
	RelatedType string     `json:"related_type"`
	RelatedID   string     `json:"related_id"`
	Type        string     `json:"type"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OwnerID     string     `json:"owner_id"`
}

// IsCompleted reports whether the activity has been closed out.
func (a *Activity) IsCompleted() bool {
	return a.CompletedAt != nil
}

// Session is a server-side record of an issued JWT, keyed by the token's jti.
// Revoking the row invalidates the token before its natural expiry.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TenantID     string    `json:"tenant_id"`
	Token        string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsRevoked    bool      `json:"is_revoked"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}
