package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/errors"
)

type OpportunityHandler struct {
	svcMgr *services.ServiceManager
}

func NewOpportunityHandler(svcMgr *services.ServiceManager) *OpportunityHandler {
	return &OpportunityHandler{svcMgr: svcMgr}
}

// Create handles POST /api/opportunities
func (h *OpportunityHandler) Create(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.OpportunityCreateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleCreateEnvelope(c, "opportunity", "Opportunity created successfully", func() (interface{}, error) {
		return h.svcMgr.Opportunities.Create(c.Request.Context(), sess, input)
	})
}

// Get handles GET /api/opportunities/:id
func (h *OpportunityHandler) Get(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "opportunity", func() (interface{}, error) {
		return h.svcMgr.Opportunities.Get(c.Request.Context(), sess, c.Param("id"))
	})
}

// List handles GET /api/opportunities
func (h *OpportunityHandler) List(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	filter := persistence.OpportunityFilter{
		AccountID: c.Query("account_id"),
		Stage:     c.Query("stage"),
		OwnerID:   c.Query("owner_id"),
		Search:    c.Query("search"),
	}

	HandleListEnvelope(c, func() (interface{}, error) {
		return h.svcMgr.Opportunities.List(c.Request.Context(), sess, filter, pageFromQuery(c))
	})
}

// Update handles PATCH /api/opportunities/:id
func (h *OpportunityHandler) Update(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.OpportunityUpdateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleUpdateEnvelope(c, "opportunity", "Opportunity updated successfully", func() (interface{}, error) {
		return h.svcMgr.Opportunities.Update(c.Request.Context(), sess, c.Param("id"), input)
	})
}

// StageRequest represents a stage change request
type StageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// ChangeStage handles POST /api/opportunities/:id/stage
func (h *OpportunityHandler) ChangeStage(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var req StageRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleUpdateEnvelope(c, "opportunity", "Stage changed successfully", func() (interface{}, error) {
		return h.svcMgr.Opportunities.ChangeStage(c.Request.Context(), sess, c.Param("id"), req.Stage)
	})
}

// Pipeline handles GET /api/opportunities/pipeline
func (h *OpportunityHandler) Pipeline(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "pipeline", func() (interface{}, error) {
		return h.svcMgr.Opportunities.Pipeline(c.Request.Context(), sess)
	})
}

// Delete handles DELETE /api/opportunities/:id
func (h *OpportunityHandler) Delete(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleDeleteEnvelope(c, "Opportunity deleted successfully", func() error {
		return h.svcMgr.Opportunities.Delete(c.Request.Context(), sess, c.Param("id"))
	})
}

// Restore handles POST /api/opportunities/:id/restore
func (h *OpportunityHandler) Restore(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleUpdateEnvelope(c, "opportunity", "Opportunity restored successfully", func() (interface{}, error) {
		return h.svcMgr.Opportunities.Restore(c.Request.Context(), sess, c.Param("id"))
	})
}
