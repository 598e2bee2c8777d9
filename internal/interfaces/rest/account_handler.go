package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/errors"
)

type AccountHandler struct {
	svcMgr *services.ServiceManager
}

func NewAccountHandler(svcMgr *services.ServiceManager) *AccountHandler {
	return &AccountHandler{svcMgr: svcMgr}
}

// Create handles POST /api/accounts
func (h *AccountHandler) Create(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.AccountCreateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleCreateEnvelope(c, "account", "Account created successfully", func() (interface{}, error) {
		return h.svcMgr.Accounts.Create(c.Request.Context(), sess, input)
	})
}

// Get handles GET /api/accounts/:id
func (h *AccountHandler) Get(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "account", func() (interface{}, error) {
		return h.svcMgr.Accounts.Get(c.Request.Context(), sess, c.Param("id"))
	})
}

// List handles GET /api/accounts
func (h *AccountHandler) List(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	filter := persistence.AccountFilter{
		Industry: c.Query("industry"),
		OwnerID:  c.Query("owner_id"),
		Search:   c.Query("search"),
	}

	HandleListEnvelope(c, func() (interface{}, error) {
		return h.svcMgr.Accounts.List(c.Request.Context(), sess, filter, pageFromQuery(c))
	})
}

// Update handles PATCH /api/accounts/:id
func (h *AccountHandler) Update(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.AccountUpdateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleUpdateEnvelope(c, "account", "Account updated successfully", func() (interface{}, error) {
		return h.svcMgr.Accounts.Update(c.Request.Context(), sess, c.Param("id"), input)
	})
}

// Delete handles DELETE /api/accounts/:id
func (h *AccountHandler) Delete(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleDeleteEnvelope(c, "Account deleted successfully", func() error {
		return h.svcMgr.Accounts.Delete(c.Request.Context(), sess, c.Param("id"))
	})
}

// Restore handles POST /api/accounts/:id/restore
func (h *AccountHandler) Restore(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleUpdateEnvelope(c, "account", "Account restored successfully", func() (interface{}, error) {
		return h.svcMgr.Accounts.Restore(c.Request.Context(), sess, c.Param("id"))
	})
}
