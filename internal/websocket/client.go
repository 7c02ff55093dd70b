package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"go-chat-relay/pkg/chat"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is one live websocket session: at most one user identity, zero
// or more subscribed channel rooms. Never persisted.
type Client struct {
	conn *websocket.Conn

	// Buffered channel of outbound frames. Actual socket writes happen
	// in WritePump, so broadcasters never block on a slow peer.
	send chan []byte

	hub *Hub

	userID   string
	username string

	// Channels this client is subscribed to, mirrored from the hub.
	// The same lock guards lastSeen.
	channels map[string]bool
	mu       sync.RWMutex

	sendMu sync.Mutex
	closed bool

	// Immutable after construction.
	connectedAt time.Time

	lastSeen time.Time
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, username string) *Client {
	return &Client{
		conn:        conn,
		send:        make(chan []byte, 256),
		hub:         hub,
		userID:      userID,
		username:    username,
		channels:    make(map[string]bool),
		connectedAt: time.Now(),
		lastSeen:    time.Now(),
	}
}

func (c *Client) GetUserID() string {
	return c.userID
}

func (c *Client) GetUsername() string {
	return c.username
}

func (c *Client) setIdentity(userID, username string) {
	c.userID = userID
	if username != "" {
		c.username = username
	}
}

// GetChannels returns a copy of the subscribed channel IDs.
func (c *Client) GetChannels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	channels := make([]string, 0, len(c.channels))
	for channelID := range c.channels {
		channels = append(channels, channelID)
	}
	return channels
}

func (c *Client) joinChannel(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[channelID] = true
}

func (c *Client) leaveChannel(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.channels, channelID)
}

func (c *Client) IsInChannel(channelID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channels[channelID]
}

func (c *Client) UpdateLastSeen() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *Client) ConnectedAt() time.Time {
	return c.connectedAt
}

func (c *Client) LastSeen() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSeen
}

// SendMessage queues a message for this client alone. Delivery is
// best-effort: a full buffer means the frame is dropped, never a block.
func (c *Client) SendMessage(message chat.WebSocketMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if !c.enqueue(data) {
		return errors.New("client send buffer full or closed")
	}
	return nil
}

// enqueue is the only path into c.send. It is safe against a concurrent
// closeSend, so hub fan-out can never write to a closed channel.
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump pumps inbound frames from the socket into the dispatch core.
// Runs once per connection; teardown funnels through HandleDisconnect.
func (c *Client) ReadPump(handler *MessageHandler) {
	defer func() {
		handler.HandleDisconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.UpdateLastSeen()
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error (user %s): %v", c.userID, err)
			}
			break
		}
		c.UpdateLastSeen()
		handler.HandleMessage(c, data)
	}
}

// WritePump drains the send buffer onto the socket and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("websocket write error (user %s): %v", c.userID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
