package api

import (
	"errors"
	"log"
	"net/http"

	"go-chat-relay/internal/audit"
	ch "go-chat-relay/internal/channel"
	"go-chat-relay/pkg/chat"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ChannelHandlers struct {
	service      *ch.ChannelService
	auditService *audit.AuditService
}

func NewChannelHandlers(db *gorm.DB) *ChannelHandlers {
	return &ChannelHandlers{
		service:      ch.NewChannelService(db),
		auditService: audit.NewAuditService(db),
	}
}

type CreateChannelRequest struct {
	Name string `json:"name" binding:"required"`
}

type ChannelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	CreatedBy struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"created_by"`
}

func channelInfo(channel chat.Channel) ChannelInfo {
	info := ChannelInfo{
		ID:        channel.ID,
		Name:      channel.Name,
		CreatedAt: channel.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	info.CreatedBy.ID = channel.CreatedBy.ID
	info.CreatedBy.Username = channel.CreatedBy.Username
	return info
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, chat.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *ChannelHandlers) CreateChannelHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel, err := h.service.CreateChannel(userID.(string), req.Name)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if err := h.auditService.LogChannelCreation(userID.(string), channel.ID, channel.Name); err != nil {
		log.Printf("audit write failed (create channel %s): %v", channel.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"channel": gin.H{
			"id":         channel.ID,
			"name":       channel.Name,
			"created_by": channel.CreatedByID,
		},
	})
}

// GetUserChannelsHandler lists the channels the caller is a member of.
func (h *ChannelHandlers) GetUserChannelsHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	channels, err := h.service.GetUserChannels(userID.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch channels"})
		return
	}

	list := make([]ChannelInfo, 0, len(channels))
	for _, channel := range channels {
		list = append(list, channelInfo(channel))
	}

	c.JSON(http.StatusOK, gin.H{"channels": list})
}

func (h *ChannelHandlers) GetAllChannelsHandler(c *gin.Context) {
	channels, err := h.service.GetAllChannels()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch channels"})
		return
	}

	list := make([]ChannelInfo, 0, len(channels))
	for _, channel := range channels {
		list = append(list, channelInfo(channel))
	}

	c.JSON(http.StatusOK, gin.H{"channels": list})
}

// JoinChannelHandler mutates persisted membership. A socket-level
// joinChannel event is still required before the connection receives the
// channel's live events.
func (h *ChannelHandlers) JoinChannelHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	channelID := c.Param("id")
	if err := h.service.JoinChannel(userID.(string), channelID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if err := h.auditService.LogChannelJoin(userID.(string), channelID); err != nil {
		log.Printf("audit write failed (join channel %s): %v", channelID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Joined channel"})
}

func (h *ChannelHandlers) LeaveChannelHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	channelID := c.Param("id")
	if err := h.service.LeaveChannel(userID.(string), channelID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if err := h.auditService.LogChannelLeave(userID.(string), channelID); err != nil {
		log.Printf("audit write failed (leave channel %s): %v", channelID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left channel"})
}

// GetChannelMembersHandler returns members in original join order.
func (h *ChannelHandlers) GetChannelMembersHandler(c *gin.Context) {
	channelID := c.Param("id")

	if _, err := h.service.GetChannel(channelID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	members, err := h.service.GetChannelMembers(channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	list := make([]gin.H, 0, len(members))
	for _, member := range members {
		list = append(list, gin.H{
			"id":       member.ID,
			"username": member.Username,
			"online":   member.Online,
		})
	}

	c.JSON(http.StatusOK, gin.H{"members": list})
}
