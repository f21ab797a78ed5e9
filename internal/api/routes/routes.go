package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tabletalk/voicegate/internal/api/handlers"
	"github.com/tabletalk/voicegate/internal/api/middleware"
)

// Deps carries the handlers RegisterRoutes wires up. Voice is the
// public, unauthenticated duplex channel (§6.1): a diner's phone never
// authenticates, the table's QR token does. Admin is staff-facing and
// is the only surface protected by middleware.JWTAuth /
// middleware.RequireAdmin — neither is ever applied to the voice route.
type Deps struct {
	Voice *handlers.VoiceHandler
	Admin *handlers.AdminHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/healthz", handlers.Healthz)
	r.GET("/voice/:qr_token", d.Voice.Channel)

	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	admin.GET("/sessions/:session_id/events", d.Admin.SessionEvents)
}
