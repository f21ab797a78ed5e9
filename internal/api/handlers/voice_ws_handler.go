package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/tabletalk/voicegate/internal/utils"
	"github.com/tabletalk/voicegate/internal/ws"
)

// VoiceHandler is the thin Gin adapter for the /voice/:qr_token
// channel: it validates the path parameter and hands the raw
// http.ResponseWriter/Request to the ws driver, which owns the
// upgrade and the full duplex-channel lifecycle (§4.9, §6.1).
type VoiceHandler struct {
	driver *ws.Driver
}

func NewVoiceHandler(driver *ws.Driver) *VoiceHandler {
	return &VoiceHandler{driver: driver}
}

func (h *VoiceHandler) Channel(c *gin.Context) {
	qrToken := c.Param("qr_token")
	if qrToken == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "VoiceHandler.Channel", "missing qr_token", nil))
		return
	}
	h.driver.Serve(c.Writer, c.Request, qrToken)
}
