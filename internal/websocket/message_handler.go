package websocket

import (
	"encoding/json"
	"errors"
	"log"

	"go-chat-relay/internal/channel"
	"go-chat-relay/internal/message"
	"go-chat-relay/internal/user"
	"go-chat-relay/pkg/chat"

	"gorm.io/gorm"
)

// MessageHandler is the dispatch core: it validates each inbound action
// against persisted membership and registry state, persists where
// required, and fans the event out through the hub. Validation failures
// are terminal for that single action and reported to the originating
// connection only.
type MessageHandler struct {
	registry       *Registry
	hub            *Hub
	presence       *PresencePublisher
	channelService *channel.ChannelService
	messageService *message.MessageService
	userService    *user.UserService
}

func NewMessageHandler(db *gorm.DB, hub *Hub, registry *Registry) *MessageHandler {
	users := user.NewUserService(db)
	return &MessageHandler{
		registry:       registry,
		hub:            hub,
		presence:       NewPresencePublisher(hub, users),
		channelService: channel.NewChannelService(db),
		messageService: message.NewMessageService(db),
		userService:    users,
	}
}

// HandleConnect wires a freshly upgraded connection into the hub and,
// when the transport already authenticated a user, into the registry.
func (mh *MessageHandler) HandleConnect(client *Client) {
	mh.hub.RegisterClient(client)

	if client.userID != "" {
		mh.registerUser(client, client.userID)
	}
}

// HandleDisconnect tears a connection down: room cleanup via the hub,
// registry removal, and a single offline broadcast when this was the
// user's last connection.
func (mh *MessageHandler) HandleDisconnect(client *Client) {
	mh.hub.UnregisterClient(client)

	if userID, wentOffline := mh.registry.Unregister(client); wentOffline {
		mh.presence.UserOffline(userID)
	}
}

func (mh *MessageHandler) HandleMessage(client *Client, messageData []byte) {
	var inbound chat.InboundMessage
	if err := json.Unmarshal(messageData, &inbound); err != nil {
		mh.sendErrorToClient(client, "INVALID_INPUT", "malformed message")
		return
	}

	switch inbound.Type {
	case chat.MessageTypeRegister:
		var payload chat.RegisterPayload
		if err := json.Unmarshal(inbound.Data, &payload); err != nil {
			mh.sendErrorToClient(client, "INVALID_INPUT", "malformed register payload")
			return
		}
		mh.handleRegister(client, payload)

	case chat.MessageTypeJoinChannel:
		var payload chat.JoinChannelPayload
		if err := json.Unmarshal(inbound.Data, &payload); err != nil {
			mh.sendErrorToClient(client, "INVALID_INPUT", "malformed join payload")
			return
		}
		mh.handleJoinChannel(client, payload)

	case chat.MessageTypeLeaveChannel:
		var payload chat.LeaveChannelPayload
		if err := json.Unmarshal(inbound.Data, &payload); err != nil {
			mh.sendErrorToClient(client, "INVALID_INPUT", "malformed leave payload")
			return
		}
		mh.handleLeaveChannel(client, payload)

	case chat.MessageTypeSendMessage:
		var payload chat.ChatMessagePayload
		if err := json.Unmarshal(inbound.Data, &payload); err != nil {
			mh.sendErrorToClient(client, "INVALID_INPUT", "malformed message payload")
			return
		}
		mh.handleChatMessage(client, payload)

	case chat.MessageTypeTyping:
		var payload chat.TypingPayload
		if err := json.Unmarshal(inbound.Data, &payload); err != nil {
			return
		}
		mh.handleTyping(client, payload, true)

	case chat.MessageTypeStopTyping:
		var payload chat.TypingPayload
		if err := json.Unmarshal(inbound.Data, &payload); err != nil {
			return
		}
		mh.handleTyping(client, payload, false)

	case chat.MessageTypePing:
		mh.handlePing(client)

	default:
		mh.sendErrorToClient(client, "INVALID_INPUT", "unknown message type")
	}
}

// handleRegister binds the connection to a user identity. The presence
// broadcast fires only on the user's offline→online transition, never
// once per connection.
func (mh *MessageHandler) handleRegister(client *Client, payload chat.RegisterPayload) {
	userID := client.userID
	if userID == "" {
		userID = payload.UserID
	}
	if userID == "" {
		mh.sendErrorToClient(client, "INVALID_INPUT", "user id is required")
		return
	}

	mh.registerUser(client, userID)
}

func (mh *MessageHandler) registerUser(client *Client, userID string) {
	if client.userID == "" {
		username := client.username
		if u, err := mh.userService.GetUser(userID); err == nil {
			username = u.Username
		}
		client.setIdentity(userID, username)
	}

	if wentOnline := mh.registry.Register(userID, client); wentOnline {
		mh.presence.UserOnline(userID)
	}
}

// handleJoinChannel subscribes the connection to a channel room after an
// authoritative membership check. Room subscription itself carries no
// further store lookups.
func (mh *MessageHandler) handleJoinChannel(client *Client, payload chat.JoinChannelPayload) {
	if payload.ChannelID == "" {
		mh.sendErrorToClient(client, "INVALID_INPUT", "channel id is required")
		return
	}

	if err := mh.authorizeChannelAction(client.userID, payload.ChannelID); err != nil {
		mh.sendErrorToClient(client, errorCode(err), err.Error())
		return
	}

	mh.hub.JoinChannel(client, payload.ChannelID)
}

// handleLeaveChannel unsubscribes the room only; persisted membership is
// mutated by the REST leave operation, not here.
func (mh *MessageHandler) handleLeaveChannel(client *Client, payload chat.LeaveChannelPayload) {
	if payload.ChannelID == "" {
		return
	}
	mh.hub.LeaveChannel(client, payload.ChannelID)
}

// handleChatMessage validates, durably persists, then broadcasts. The
// durable write strictly precedes the fan-out: a message that was not
// recorded is never broadcast, including under store failure. The sender's
// own subscribed connections receive the echo.
func (mh *MessageHandler) handleChatMessage(client *Client, payload chat.ChatMessagePayload) {
	senderID := payload.SenderID
	if senderID == "" {
		senderID = client.userID
	}

	msg, err := mh.messageService.CreateMessage(senderID, payload.ChannelID, payload.Content)
	if err != nil {
		if errors.Is(err, chat.ErrStoreUnavailable) {
			log.Printf("send failed for user %s in channel %s: %v", senderID, payload.ChannelID, err)
		}
		mh.sendErrorToClient(client, errorCode(err), err.Error())
		return
	}

	mh.broadcastMessage(msg)
}

func (mh *MessageHandler) broadcastMessage(msg *chat.Message) {
	outbound := chat.NewWebSocketMessage(chat.MessageTypeNewMessage, chat.MessagePayload{
		MessageID: msg.ID,
		ChannelID: msg.ChannelID,
		Content:   msg.Content,
		UserID:    msg.SenderID,
		Username:  msg.Sender.Username,
		CreatedAt: msg.CreatedAt,
	})

	mh.hub.BroadcastToChannel(msg.ChannelID, outbound, nil)
}

// handleTyping is transient state: no persistence, no membership lookup,
// and the originating connection never receives its own echo.
func (mh *MessageHandler) handleTyping(client *Client, payload chat.TypingPayload, isTyping bool) {
	if payload.ChannelID == "" {
		return
	}

	if payload.UserID == "" {
		payload.UserID = client.userID
	}
	if payload.Username == "" {
		payload.Username = client.username
	}

	msgType := chat.MessageTypeUserTyping
	if !isTyping {
		msgType = chat.MessageTypeUserStopTyping
	}

	mh.hub.BroadcastToChannel(payload.ChannelID, chat.NewWebSocketMessage(msgType, payload), client)
}

func (mh *MessageHandler) handlePing(client *Client) {
	if err := client.SendMessage(chat.NewWebSocketMessage(chat.MessageTypePong, nil)); err != nil {
		log.Printf("pong failed for user %s: %v", client.userID, err)
	}
}

func (mh *MessageHandler) sendErrorToClient(client *Client, code, message string) {
	err := client.SendMessage(chat.NewWebSocketMessage(chat.MessageTypeError, chat.ErrorPayload{
		Code:    code,
		Message: message,
	}))
	if err != nil {
		log.Printf("failed to deliver error to user %s: %v", client.userID, err)
	}
}

// authorizeChannelAction is the single capability check for channel
// actions: the channel must exist and the user must be a persisted
// member. Always a live store lookup.
func (mh *MessageHandler) authorizeChannelAction(userID, channelID string) error {
	if _, err := mh.channelService.GetChannel(channelID); err != nil {
		return err
	}

	isMember, err := mh.channelService.IsMember(channelID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return chat.ErrUnauthorized
	}
	return nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, chat.ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, chat.ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, chat.ErrStoreUnavailable):
		return "STORE_UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}
