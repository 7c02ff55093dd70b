package api

import (
	"net/http"
	"time"

	"go-chat-relay/internal/auth"
	ws "go-chat-relay/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the configured frontend origin
		return true
	},
}

type WebSocketHandler struct {
	hub      *ws.Hub
	registry *ws.Registry
	handler  *ws.MessageHandler
}

func NewWebSocketHandler(hub *ws.Hub, registry *ws.Registry, handler *ws.MessageHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		registry: registry,
		handler:  handler,
	}
}

// HandleWebSocket authenticates the cookie token, upgrades the
// connection, and hands the client to the dispatch core.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, username, err := h.authenticate(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID, username)
	h.handler.HandleConnect(client)

	go client.WritePump()
	go client.ReadPump(h.handler)
}

func (h *WebSocketHandler) authenticate(c *gin.Context) (string, string, error) {
	token, err := c.Cookie("token")
	if err != nil {
		// Fallback for clients that cannot send cookies on the upgrade.
		token = c.Query("token")
	}
	if token == "" {
		return "", "", http.ErrNoCookie
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		return "", "", err
	}
	return claims.UserID, claims.Username, nil
}

type ConnectionDetail struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Channels    int    `json:"channels"`
	ConnectedAt string `json:"connected_at"`
	LastSeen    string `json:"last_seen"`
}

type WebSocketInfoResponse struct {
	TotalConnections int                `json:"total_connections"`
	ChannelStats     map[string]int     `json:"channel_stats"`
	OnlineUsers      []string           `json:"online_users"`
	Connections      []ConnectionDetail `json:"connections"`
	ServerTime       string             `json:"server_time"`
}

func (h *WebSocketHandler) GetConnectionInfo(c *gin.Context) {
	infos := h.hub.Connections()
	details := make([]ConnectionDetail, 0, len(infos))
	for _, info := range infos {
		details = append(details, ConnectionDetail{
			UserID:      info.UserID,
			Username:    info.Username,
			Channels:    info.Channels,
			ConnectedAt: info.ConnectedAt.Format(time.RFC3339),
			LastSeen:    info.LastSeen.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, WebSocketInfoResponse{
		TotalConnections: h.hub.GetClientCount(),
		ChannelStats:     h.hub.ChannelStats(),
		OnlineUsers:      h.registry.OnlineUsers(),
		Connections:      details,
		ServerTime:       time.Now().Format(time.RFC3339),
	})
}
