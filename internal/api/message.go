package api

import (
	"net/http"
	"strconv"

	m "go-chat-relay/internal/message"
	"go-chat-relay/pkg/chat"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MessageHandlers struct {
	service *m.MessageService
}

func NewMessageHandlers(db *gorm.DB) *MessageHandlers {
	return &MessageHandlers{
		service: m.NewMessageService(db),
	}
}

type MessageInfo struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	ChannelID string `json:"channel_id"`
	CreatedAt string `json:"created_at"`
	Sender    struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"sender"`
}

type MessagesResponse struct {
	Messages      []MessageInfo `json:"messages"`
	CurrentPage   int           `json:"current_page"`
	TotalPages    int           `json:"total_pages"`
	TotalMessages int64         `json:"total_messages"`
}

func messageInfo(msg chat.Message) MessageInfo {
	info := MessageInfo{
		ID:        msg.ID,
		Content:   msg.Content,
		ChannelID: msg.ChannelID,
		CreatedAt: msg.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	info.Sender.ID = msg.Sender.ID
	info.Sender.Username = msg.Sender.Username
	return info
}

// GetChannelMessagesHandler serves paginated history in chronological
// order. Member-only, like the live feed.
func (h *MessageHandlers) GetChannelMessagesHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	channelID := c.Param("id")
	if channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Channel ID is required"})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	messages, total, err := h.service.GetChannelMessages(userID.(string), channelID, page, limit)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	list := make([]MessageInfo, 0, len(messages))
	for _, msg := range messages {
		list = append(list, messageInfo(msg))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, MessagesResponse{
		Messages:      list,
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalMessages: total,
	})
}

type SendMessageRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// SendMessageHandler is the REST variant of send: same validation and
// durable write as the socket path, but no fan-out.
func (h *MessageHandlers) SendMessageHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.service.CreateMessage(userID.(string), req.ChannelID, req.Content)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": messageInfo(*msg)})
}
