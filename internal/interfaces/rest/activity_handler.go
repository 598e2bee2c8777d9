package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/errors"
)

type ActivityHandler struct {
	svcMgr *services.ServiceManager
}

func NewActivityHandler(svcMgr *services.ServiceManager) *ActivityHandler {
	return &ActivityHandler{svcMgr: svcMgr}
}

// Create handles POST /api/activities
func (h *ActivityHandler) Create(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.ActivityCreateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleCreateEnvelope(c, "activity", "Activity created successfully", func() (interface{}, error) {
		return h.svcMgr.Activities.Create(c.Request.Context(), sess, input)
	})
}

// Get handles GET /api/activities/:id
func (h *ActivityHandler) Get(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "activity", func() (interface{}, error) {
		return h.svcMgr.Activities.Get(c.Request.Context(), sess, c.Param("id"))
	})
}

// List handles GET /api/activities
func (h *ActivityHandler) List(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	filter := persistence.ActivityFilter{
		RelatedType: c.Query("related_type"),
		RelatedID:   c.Query("related_id"),
		Type:        c.Query("type"),
		OwnerID:     c.Query("owner_id"),
		OpenOnly:    c.Query("open") == "true",
	}

	HandleListEnvelope(c, func() (interface{}, error) {
		return h.svcMgr.Activities.List(c.Request.Context(), sess, filter, pageFromQuery(c))
	})
}

// ListOverdue handles GET /api/activities/overdue
func (h *ActivityHandler) ListOverdue(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleListEnvelope(c, func() (interface{}, error) {
		return h.svcMgr.Activities.ListOverdue(c.Request.Context(), sess, pageFromQuery(c))
	})
}

// Update handles PATCH /api/activities/:id
func (h *ActivityHandler) Update(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.ActivityUpdateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleUpdateEnvelope(c, "activity", "Activity updated successfully", func() (interface{}, error) {
		return h.svcMgr.Activities.Update(c.Request.Context(), sess, c.Param("id"), input)
	})
}

// Complete handles POST /api/activities/:id/complete
func (h *ActivityHandler) Complete(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleUpdateEnvelope(c, "activity", "Activity completed", func() (interface{}, error) {
		return h.svcMgr.Activities.Complete(c.Request.Context(), sess, c.Param("id"))
	})
}

// Delete handles DELETE /api/activities/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleDeleteEnvelope(c, "Activity deleted successfully", func() error {
		return h.svcMgr.Activities.Delete(c.Request.Context(), sess, c.Param("id"))
	})
}
