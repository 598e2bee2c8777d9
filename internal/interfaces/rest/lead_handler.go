package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/errors"
)

type LeadHandler struct {
	svcMgr *services.ServiceManager
}

func NewLeadHandler(svcMgr *services.ServiceManager) *LeadHandler {
	return &LeadHandler{svcMgr: svcMgr}
}

// Create handles POST /api/leads
func (h *LeadHandler) Create(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.LeadCreateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleCreateEnvelope(c, "lead", "Lead created successfully", func() (interface{}, error) {
		return h.svcMgr.Leads.Create(c.Request.Context(), sess, input)
	})
}

// Get handles GET /api/leads/:id
func (h *LeadHandler) Get(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "lead", func() (interface{}, error) {
		return h.svcMgr.Leads.Get(c.Request.Context(), sess, c.Param("id"))
	})
}

// List handles GET /api/leads
func (h *LeadHandler) List(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	filter := persistence.LeadFilter{
		Status:  c.Query("status"),
		Source:  c.Query("source"),
		OwnerID: c.Query("owner_id"),
		Search:  c.Query("search"),
	}

	HandleListEnvelope(c, func() (interface{}, error) {
		return h.svcMgr.Leads.List(c.Request.Context(), sess, filter, pageFromQuery(c))
	})
}

// Update handles PATCH /api/leads/:id
func (h *LeadHandler) Update(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.LeadUpdateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleUpdateEnvelope(c, "lead", "Lead updated successfully", func() (interface{}, error) {
		return h.svcMgr.Leads.Update(c.Request.Context(), sess, c.Param("id"), input)
	})
}

// Delete handles DELETE /api/leads/:id
func (h *LeadHandler) Delete(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleDeleteEnvelope(c, "Lead deleted successfully", func() error {
		return h.svcMgr.Leads.Delete(c.Request.Context(), sess, c.Param("id"))
	})
}

// Restore handles POST /api/leads/:id/restore
func (h *LeadHandler) Restore(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleUpdateEnvelope(c, "lead", "Lead restored successfully", func() (interface{}, error) {
		return h.svcMgr.Leads.Restore(c.Request.Context(), sess, c.Param("id"))
	})
}

// Convert handles POST /api/leads/:id/convert
func (h *LeadHandler) Convert(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.ConvertInput
	if c.Request.ContentLength > 0 {
		if !BindJSON(c, &input) {
			return
		}
	}

	HandleCreateEnvelope(c, "conversion", "Lead converted successfully", func() (interface{}, error) {
		return h.svcMgr.Leads.Convert(c.Request.Context(), sess, c.Param("id"), input)
	})
}
