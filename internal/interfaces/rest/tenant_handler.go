package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/pkg/errors"
)

type TenantHandler struct {
	svcMgr *services.ServiceManager
}

func NewTenantHandler(svcMgr *services.ServiceManager) *TenantHandler {
	return &TenantHandler{svcMgr: svcMgr}
}

// Register handles POST /api/tenants/register. Public: creates a tenant and
// its first admin user.
func (h *TenantHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if !BindJSON(c, &input) {
		return
	}

	HandleCreateEnvelope(c, "registration", "Tenant registered successfully", func() (interface{}, error) {
		return h.svcMgr.Tenants.Register(c.Request.Context(), input)
	})
}

// Get handles GET /api/tenant
func (h *TenantHandler) Get(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "tenant", func() (interface{}, error) {
		return h.svcMgr.Tenants.Get(c.Request.Context(), sess.TenantID)
	})
}

// Update handles PATCH /api/tenant
func (h *TenantHandler) Update(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.TenantUpdateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleUpdateEnvelope(c, "tenant", "Tenant updated successfully", func() (interface{}, error) {
		return h.svcMgr.Tenants.Update(c.Request.Context(), sess.TenantID, input)
	})
}

// Deactivate handles DELETE /api/tenant
func (h *TenantHandler) Deactivate(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleDeleteEnvelope(c, "Tenant deactivated", func() error {
		return h.svcMgr.Tenants.Deactivate(c.Request.Context(), sess.TenantID)
	})
}
