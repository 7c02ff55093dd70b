package chat

import (
	"encoding/json"
	"time"
)

// Wire-level event kinds. Inbound kinds are emitted by clients over the
// websocket; outbound kinds are produced by the dispatch core.
const (
	// inbound
	MessageTypeRegister     = "register"
	MessageTypeJoinChannel  = "joinChannel"
	MessageTypeLeaveChannel = "leaveChannel"
	MessageTypeSendMessage  = "sendMessage"
	MessageTypeTyping       = "typing"
	MessageTypeStopTyping   = "stopTyping"
	MessageTypePing         = "ping"

	// outbound
	MessageTypeNewMessage     = "newMessage"
	MessageTypeUserOnline     = "userOnline"
	MessageTypeUserOffline    = "userOffline"
	MessageTypeUserTyping     = "userTyping"
	MessageTypeUserStopTyping = "userStopTyping"
	MessageTypeError          = "error"
	MessageTypePong           = "pong"
)

// WebSocketMessage is the outbound JSON envelope.
type WebSocketMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewWebSocketMessage(msgType string, data any) WebSocketMessage {
	return WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// InboundMessage is the envelope read off the wire. Data stays raw until
// the dispatch core knows which payload shape to decode.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type RegisterPayload struct {
	UserID string `json:"user_id"`
}

type JoinChannelPayload struct {
	ChannelID string `json:"channel_id"`
}

type LeaveChannelPayload struct {
	ChannelID string `json:"channel_id"`
}

type ChatMessagePayload struct {
	ChannelID string `json:"channel_id"`
	SenderID  string `json:"sender_id,omitempty"`
	Content   string `json:"content"`
}

type TypingPayload struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
}

// MessagePayload is the fully resolved record broadcast as newMessage.
type MessagePayload struct {
	MessageID string    `json:"message_id"`
	ChannelID string    `json:"channel_id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type PresencePayload struct {
	UserID string `json:"user_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
