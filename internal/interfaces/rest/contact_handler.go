package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/errors"
)

type ContactHandler struct {
	svcMgr *services.ServiceManager
}

func NewContactHandler(svcMgr *services.ServiceManager) *ContactHandler {
	return &ContactHandler{svcMgr: svcMgr}
}

// Create handles POST /api/contacts
func (h *ContactHandler) Create(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.ContactCreateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleCreateEnvelope(c, "contact", "Contact created successfully", func() (interface{}, error) {
		return h.svcMgr.Contacts.Create(c.Request.Context(), sess, input)
	})
}

// Get handles GET /api/contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "contact", func() (interface{}, error) {
		return h.svcMgr.Contacts.Get(c.Request.Context(), sess, c.Param("id"))
	})
}

// List handles GET /api/contacts
func (h *ContactHandler) List(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	filter := persistence.ContactFilter{
		AccountID: c.Query("account_id"),
		OwnerID:   c.Query("owner_id"),
		Search:    c.Query("search"),
	}

	HandleListEnvelope(c, func() (interface{}, error) {
		return h.svcMgr.Contacts.List(c.Request.Context(), sess, filter, pageFromQuery(c))
	})
}

// Update handles PATCH /api/contacts/:id
func (h *ContactHandler) Update(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.ContactUpdateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleUpdateEnvelope(c, "contact", "Contact updated successfully", func() (interface{}, error) {
		return h.svcMgr.Contacts.Update(c.Request.Context(), sess, c.Param("id"), input)
	})
}

// Delete handles DELETE /api/contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleDeleteEnvelope(c, "Contact deleted successfully", func() error {
		return h.svcMgr.Contacts.Delete(c.Request.Context(), sess, c.Param("id"))
	})
}

// Restore handles POST /api/contacts/:id/restore
func (h *ContactHandler) Restore(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleUpdateEnvelope(c, "contact", "Contact restored successfully", func() (interface{}, error) {
		return h.svcMgr.Contacts.Restore(c.Request.Context(), sess, c.Param("id"))
	})
}
