package websocket

import (
	"log"

	"go-chat-relay/internal/user"
	"go-chat-relay/pkg/chat"
)

// PresencePublisher broadcasts online/offline transitions to every
// connected client. The registry decides when a transition happened; this
// only publishes it and persists the display flag.
type PresencePublisher struct {
	hub   *Hub
	users *user.UserService
}

func NewPresencePublisher(hub *Hub, users *user.UserService) *PresencePublisher {
	return &PresencePublisher{hub: hub, users: users}
}

func (p *PresencePublisher) UserOnline(userID string) {
	// The flag is display-only; live presence stays authoritative even if
	// the write fails, so the broadcast always goes out.
	if err := p.users.SetOnline(userID, true); err != nil {
		log.Printf("failed to persist online flag for %s: %v", userID, err)
	}

	p.hub.BroadcastToAll(chat.NewWebSocketMessage(
		chat.MessageTypeUserOnline,
		chat.PresencePayload{UserID: userID},
	))
}

func (p *PresencePublisher) UserOffline(userID string) {
	if err := p.users.SetOnline(userID, false); err != nil {
		log.Printf("failed to persist offline flag for %s: %v", userID, err)
	}

	p.hub.BroadcastToAll(chat.NewWebSocketMessage(
		chat.MessageTypeUserOffline,
		chat.PresencePayload{UserID: userID},
	))
}
