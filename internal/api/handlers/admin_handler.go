package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/tabletalk/voicegate/internal/services"
	"github.com/tabletalk/voicegate/internal/utils"
)

// AdminHandler exposes staff-facing endpoints, distinct from the public
// voice channel and gated by middleware.JWTAuth + middleware.RequireAdmin.
type AdminHandler struct {
	audit services.AuditService
}

func NewAdminHandler(audit services.AuditService) *AdminHandler {
	return &AdminHandler{audit: audit}
}

func (h *AdminHandler) SessionEvents(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.SessionEvents", "missing session_id", nil))
		return
	}

	events, err := h.audit.ListEvents(c.Request.Context(), sessionID, 200)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, gin.H{"events": events})
}
