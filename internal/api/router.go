package api

import (
	"time"

	a "go-chat-relay/internal/auth"
	"go-chat-relay/internal/middleware"
	ws "go-chat-relay/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Router struct {
	ah  *AuthHandlers
	chh *ChannelHandlers
	mh  *MessageHandlers
	wsh *WebSocketHandler
	am  *a.AuthMiddleware
	rl  *middleware.IPRateLimiter
}

func NewRouter(db *gorm.DB, hub *ws.Hub, registry *ws.Registry, dispatcher *ws.MessageHandler) *Router {
	return &Router{
		ah:  NewAuthHandlers(db),
		chh: NewChannelHandlers(db),
		mh:  NewMessageHandlers(db),
		wsh: NewWebSocketHandler(hub, registry, dispatcher),
		am:  a.NewAuthMiddleware(),
		rl: middleware.NewIPRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         20,
			CleanupInterval:   5 * time.Minute,
		}),
	}
}

func (r *Router) RegisterRoutes(router *gin.Engine) {
	router.Use(middleware.RateLimitMiddleware(r.rl))

	{
		unprotected := router.Group("/")
		unprotected.GET("/hc", HealthCheckHandler)
		unprotected.POST("/register", r.ah.RegisterHandler)
		unprotected.POST("/login", r.ah.LoginHandler)
	}

	{
		protected := router.Group("/api")
		protected.Use(r.am.RequireAuth())
		protected.POST("/logout", r.ah.LogoutHandler)
		protected.POST("/refresh_token", r.ah.RefreshTokenHandler)

		protected.GET("/channels", r.chh.GetUserChannelsHandler)
		protected.GET("/channels/all", r.chh.GetAllChannelsHandler)
		protected.POST("/channels", r.chh.CreateChannelHandler)
		protected.POST("/channels/:id/join", r.chh.JoinChannelHandler)
		protected.POST("/channels/:id/leave", r.chh.LeaveChannelHandler)
		protected.GET("/channels/:id/members", r.chh.GetChannelMembersHandler)
		protected.GET("/channels/:id/messages", r.mh.GetChannelMessagesHandler)
		protected.POST("/messages", r.mh.SendMessageHandler)

		protected.GET("/ws/info", r.wsh.GetConnectionInfo)
	}

	// The upgrade endpoint authenticates the cookie itself so the
	// handshake can also fall back to a token query parameter.
	router.GET("/ws", r.wsh.HandleWebSocket)
}

func HealthCheckHandler(c *gin.Context) {
	c.String(200, "Running")
}
