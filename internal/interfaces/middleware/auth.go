package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/pkg/auth"
	"github.com/harborcrm/backend/pkg/constants"
)

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		constants.ResponseError:   "Unauthorized",
		constants.ResponseMessage: message,
		"code":                    "UNAUTHORIZED",
		constants.ResponseData:    nil,
	})
	c.Abort()
}

// RequireAuth validates the bearer token and its server-side session, then
// puts the user session into the request context. Every tenant-scoped query
// downstream reads its tenant from here, never from the client payload.
func RequireAuth(authSvc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, "No authorization token provided")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}
		tokenString := parts[1]

		claims, err := authSvc.ValidateSession(c.Request.Context(), tokenString)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		// Update last activity (fire and forget)
		authSvc.TouchSession(claims.RegisteredClaims.ID)

		c.Set(constants.ContextKeyUser, claims.User)
		c.Set(constants.ContextKeyToken, tokenString)

		c.Next()
	}
}

// RequireAdmin gates tenant administration endpoints.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userInterface, exists := c.Get(constants.ContextKeyUser)
		if !exists {
			abortUnauthorized(c, "User not authenticated")
			return
		}

		user := userInterface.(auth.UserSession)
		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				constants.ResponseError:   "Forbidden",
				constants.ResponseMessage: "Only administrators can access this resource",
				"code":                    "FORBIDDEN",
				constants.ResponseData:    nil,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
