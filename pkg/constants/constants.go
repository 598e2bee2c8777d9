package constants

// Table names
const (
	TableTenant      = "tenants"
	TableUser        = "users"
	TableSession     = "sessions"
	TableLead        = "leads"
	TableAccount     = "accounts"
	TableContact     = "contacts"
	TableOpportunity = "opportunities"
	TableActivity    = "activities"
)

// Common column names shared by every tenant-scoped table
const (
	FieldID        = "id"
	FieldTenantID  = "tenant_id"
	FieldCreatedAt = "created_at"
	FieldCreatedBy = "created_by"
	FieldUpdatedAt = "updated_at"
	FieldUpdatedBy = "updated_by"
	FieldDeletedAt = "deleted_at"
	FieldEmail     = "email"
)

// HTTP / gin context keys
const (
	HeaderAuthorization = "Authorization"
	ContextKeyUser      = "user"
	ContextKeyToken     = "token"
	ResponseError       = "error"
	ResponseMessage     = "message"
	ResponseData        = "data"
)

// User roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleRep     = "rep"
)

// IsAdminRole reports whether the role carries tenant administration rights.
func IsAdminRole(role string) bool {
	return role == RoleAdmin
}
