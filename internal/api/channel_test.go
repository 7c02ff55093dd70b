package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-chat-relay/internal/auth"
	ch "go-chat-relay/internal/channel"
	ws "go-chat-relay/internal/websocket"
	. "go-chat-relay/pkg/chat"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Setenv("APP_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(&User{}, &Channel{}, &ChannelMember{}, &Message{}, &RefreshToken{}, &AuditLog{})
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	hub := ws.NewHub()
	registry := ws.NewRegistry()
	dispatcher := ws.NewMessageHandler(db, hub, registry)

	engine := gin.New()
	NewRouter(db, hub, registry, dispatcher).RegisterRoutes(engine)

	return engine, db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *User {
	user := User{Username: username, Email: username + "@example.com", Password: "hashedpassword"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func authedRequest(t *testing.T, user *User, method, path string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	return req
}

func TestCreateChannelHandler(t *testing.T) {
	router, db := setupTestRouter(t)
	user := createTestUser(t, db, "alice")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, user, http.MethodPost, "/api/channels", gin.H{"name": "general"}))

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var channel Channel
	if err := db.First(&channel, "name = ?", "general").Error; err != nil {
		t.Fatalf("Channel should be persisted: %v", err)
	}
	if channel.CreatedByID != user.ID {
		t.Errorf("Expected creator %s, got %s", user.ID, channel.CreatedByID)
	}

	// Creator becomes a member, and the action is audited.
	var member ChannelMember
	if err := db.First(&member, "channel_id = ? AND user_id = ?", channel.ID, user.ID).Error; err != nil {
		t.Errorf("Creator should be a member: %v", err)
	}
	var auditCount int64
	db.Model(&AuditLog{}).Where("channel_id = ?", channel.ID).Count(&auditCount)
	if auditCount != 1 {
		t.Errorf("Expected 1 audit entry, got %d", auditCount)
	}

	// Duplicate name rejected.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, user, http.MethodPost, "/api/channels", gin.H{"name": "general"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate name, got %d", w.Code)
	}
}

func TestCreateChannelHandler_AuditFailureIsNotFatal(t *testing.T) {
	router, db := setupTestRouter(t)
	user := createTestUser(t, db, "alice")

	if err := db.Migrator().DropTable(&AuditLog{}); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, user, http.MethodPost, "/api/channels", gin.H{"name": "general"}))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 despite audit failure, got %d: %s", w.Code, w.Body.String())
	}

	var channel Channel
	if err := db.First(&channel, "name = ?", "general").Error; err != nil {
		t.Errorf("Channel should be persisted: %v", err)
	}
}

func TestJoinAndLeaveChannelHandlers(t *testing.T) {
	router, db := setupTestRouter(t)
	owner := createTestUser(t, db, "alice")
	joiner := createTestUser(t, db, "bob")

	channel, err := ch.NewChannelService(db).CreateChannel(owner.ID, "general")
	if err != nil {
		t.Fatalf("Failed to create channel: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, joiner, http.MethodPost, "/api/channels/"+channel.ID+"/join", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	isMember, err := ch.NewChannelService(db).IsMember(channel.ID, joiner.ID)
	if err != nil || !isMember {
		t.Errorf("Expected joiner to be a member (err=%v)", err)
	}

	// Duplicate join rejected.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, joiner, http.MethodPost, "/api/channels/"+channel.ID+"/join", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate join, got %d", w.Code)
	}

	// Unknown channel.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, joiner, http.MethodPost, "/api/channels/missing/join", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown channel, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, joiner, http.MethodPost, "/api/channels/"+channel.ID+"/leave", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	isMember, _ = ch.NewChannelService(db).IsMember(channel.ID, joiner.ID)
	if isMember {
		t.Error("Expected joiner to no longer be a member")
	}
}

func TestGetChannelMessagesHandler(t *testing.T) {
	router, db := setupTestRouter(t)
	member := createTestUser(t, db, "alice")
	outsider := createTestUser(t, db, "eve")

	channel, err := ch.NewChannelService(db).CreateChannel(member.ID, "general")
	if err != nil {
		t.Fatalf("Failed to create channel: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, member, http.MethodPost, "/api/messages", gin.H{
		"channel_id": channel.ID,
		"content":    "hello",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, member, http.MethodGet, "/api/channels/"+channel.ID+"/messages?page=1&limit=10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp MessagesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.TotalMessages != 1 || len(resp.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d (total %d)", len(resp.Messages), resp.TotalMessages)
	}
	if resp.Messages[0].Content != "hello" {
		t.Errorf("Expected content 'hello', got '%s'", resp.Messages[0].Content)
	}
	if resp.Messages[0].Sender.Username != "alice" {
		t.Errorf("Expected sender 'alice', got '%s'", resp.Messages[0].Sender.Username)
	}

	// History is member-only.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, outsider, http.MethodGet, "/api/channels/"+channel.ID+"/messages", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-member, got %d", w.Code)
	}

	// Unauthenticated requests never reach the store.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/channels/"+channel.ID+"/messages", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}
