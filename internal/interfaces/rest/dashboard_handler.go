package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/pkg/errors"
)

type DashboardHandler struct {
	svcMgr *services.ServiceManager
}

func NewDashboardHandler(svcMgr *services.ServiceManager) *DashboardHandler {
	return &DashboardHandler{svcMgr: svcMgr}
}

// Summary handles GET /api/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	sess, ok := GetUserFromContext(c)
	if !ok {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "summary", func() (interface{}, error) {
		return h.svcMgr.Dashboard.Summary(c.Request.Context(), sess)
	})
}
