package websocket

import "sync"

// Registry is the authoritative mapping from a user identity to the set
// of its live connections. A user is online iff the set is non-empty;
// nothing else may derive that flag. Lock hold times are O(1) map
// mutations, never I/O.
type Registry struct {
	mu          sync.Mutex
	connections map[string]map[*Client]bool
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]map[*Client]bool),
	}
}

// Register adds the connection to the user's set. Returns true only when
// this is the user's first live connection, i.e. the offline→online
// transition — the caller publishes presence exactly once for it.
func (r *Registry) Register(userID string, client *Client) (wentOnline bool) {
	if userID == "" || client == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.connections[userID]
	if !ok {
		set = make(map[*Client]bool)
		r.connections[userID] = set
	}

	wentOnline = len(set) == 0
	set[client] = true
	return wentOnline
}

// Unregister removes the connection from its owner's set. Returns the
// owning user ID and whether this was the user's last live connection.
// Idempotent: a connection that was never registered is a no-op.
func (r *Registry) Unregister(client *Client) (userID string, wentOffline bool) {
	if client == nil || client.userID == "" {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.connections[client.userID]
	if !ok || !set[client] {
		return client.userID, false
	}

	delete(set, client)
	if len(set) == 0 {
		delete(r.connections, client.userID)
		return client.userID, true
	}
	return client.userID, false
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections[userID]) > 0
}

func (r *Registry) ConnectionCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections[userID])
}

func (r *Registry) OnlineUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]string, 0, len(r.connections))
	for userID, set := range r.connections {
		if len(set) > 0 {
			users = append(users, userID)
		}
	}
	return users
}
