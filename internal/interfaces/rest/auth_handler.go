package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/pkg/auth"
	"github.com/harborcrm/backend/pkg/constants"
	"github.com/harborcrm/backend/pkg/errors"
)

type AuthHandler struct {
	svcMgr *services.ServiceManager
}

func NewAuthHandler(svcMgr *services.ServiceManager) *AuthHandler {
	return &AuthHandler{svcMgr: svcMgr}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !BindJSON(c, &req) {
		return
	}

	if !auth.IsValidEmail(req.Email) {
		RespondAppError(c, errors.NewValidationError("email", "invalid email address"))
		return
	}

	result, err := h.svcMgr.Auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"user":       result.User,
		"expires_at": result.ExpiresAt.Format(time.RFC3339),
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString, exists := c.Get(constants.ContextKeyToken)
	if !exists {
		RespondAppError(c, errors.NewUnauthorizedError("No token provided"))
		return
	}

	HandleDeleteEnvelope(c, "Logged out successfully", func() error {
		return h.svcMgr.Auth.Logout(c.Request.Context(), tokenString.(string))
	})
}

// GetMe handles GET /api/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "user", func() (interface{}, error) {
		return h.svcMgr.Auth.Me(c.Request.Context(), sess)
	})
}

// ChangePasswordRequest represents change password request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var req ChangePasswordRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleDeleteEnvelope(c, "Password changed successfully", func() error {
		return h.svcMgr.Auth.ChangePassword(c.Request.Context(), sess, req.CurrentPassword, req.NewPassword)
	})
}
