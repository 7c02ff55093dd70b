package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"go-chat-relay/pkg/chat"
)

// Hub is the channel room index: which live connections are subscribed
// to which channel's events. Room subscription is independent of
// persisted membership — the dispatch core authorizes before Subscribe,
// the hub itself never talks to the store.
type Hub struct {
	mu       sync.Mutex
	clients  map[*Client]bool
	channels map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]bool),
		channels: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// UnregisterClient removes the client from every room it was subscribed
// to and closes its send buffer. Close happens under the same mutex the
// fan-out holds, so no broadcast can write to a closed channel; a client
// unregistered mid-broadcast is simply absent from the room by then.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)

	for channelID, room := range h.channels {
		if room[client] {
			delete(room, client)
			if len(room) == 0 {
				delete(h.channels, channelID)
			}
		}
	}

	client.closeSend()
}

func (h *Hub) JoinChannel(client *Client, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.channels[channelID]
	if !ok {
		room = make(map[*Client]bool)
		h.channels[channelID] = room
	}
	room[client] = true
	client.joinChannel(channelID)
}

func (h *Hub) LeaveChannel(client *Client, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.channels[channelID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.channels, channelID)
		}
	}
	client.leaveChannel(channelID)
}

// BroadcastToChannel fans one event out to every connection subscribed
// to the channel, minus excludeClient. The whole fan-out is one critical
// section, so two broadcasts for the same channel never interleave.
// Per-connection delivery is an O(1) buffered enqueue — a slow client
// loses the frame rather than stalling the room.
func (h *Hub) BroadcastToChannel(channelID string, message chat.WebSocketMessage, excludeClient *Client) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("broadcast marshal error (channel %s): %v", channelID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.channels[channelID] {
		if client == excludeClient {
			continue
		}
		if !client.enqueue(data) {
			log.Printf("dropped %s frame for user %s (buffer full)", message.Type, client.userID)
		}
	}
}

// BroadcastToAll delivers to every connected client. Presence is global,
// not room-scoped.
func (h *Hub) BroadcastToAll(message chat.WebSocketMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if !client.enqueue(data) {
			log.Printf("dropped %s frame for user %s (buffer full)", message.Type, client.userID)
		}
	}
}

func (h *Hub) GetChannelClients(channelID string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.channels[channelID]
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) GetClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) GetChannelClientCount(channelID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channelID])
}

func (h *Hub) IsClientInChannel(client *Client, channelID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.channels[channelID][client]
}

// ConnectionInfo is a point-in-time view of one live connection, for
// the ws info endpoint.
type ConnectionInfo struct {
	UserID      string
	Username    string
	Channels    int
	ConnectedAt time.Time
	LastSeen    time.Time
}

func (h *Hub) Connections() []ConnectionInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := make([]ConnectionInfo, 0, len(h.clients))
	for client := range h.clients {
		list = append(list, ConnectionInfo{
			UserID:      client.GetUserID(),
			Username:    client.GetUsername(),
			Channels:    len(client.GetChannels()),
			ConnectedAt: client.ConnectedAt(),
			LastSeen:    client.LastSeen(),
		})
	}
	return list
}

// ChannelStats reports subscriber counts per channel, for the ws info
// endpoint.
func (h *Hub) ChannelStats() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := make(map[string]int, len(h.channels))
	for channelID, room := range h.channels {
		stats[channelID] = len(room)
	}
	return stats
}
