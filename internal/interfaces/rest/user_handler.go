package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/pkg/errors"
)

type UserHandler struct {
	svcMgr *services.ServiceManager
}

func NewUserHandler(svcMgr *services.ServiceManager) *UserHandler {
	return &UserHandler{svcMgr: svcMgr}
}

// Create handles POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.UserCreateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleCreateEnvelope(c, "user", "User created successfully", func() (interface{}, error) {
		return h.svcMgr.Users.Create(c.Request.Context(), sess, input)
	})
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "user", func() (interface{}, error) {
		return h.svcMgr.Users.Get(c.Request.Context(), sess, c.Param("id"))
	})
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleListEnvelope(c, func() (interface{}, error) {
		return h.svcMgr.Users.List(c.Request.Context(), sess, pageFromQuery(c))
	})
}

// Update handles PATCH /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var input services.UserUpdateInput
	if !BindJSON(c, &input) {
		return
	}

	HandleUpdateEnvelope(c, "user", "User updated successfully", func() (interface{}, error) {
		return h.svcMgr.Users.Update(c.Request.Context(), sess, c.Param("id"), input)
	})
}

// Delete handles DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleDeleteEnvelope(c, "User deleted successfully", func() error {
		return h.svcMgr.Users.Delete(c.Request.Context(), sess, c.Param("id"))
	})
}
