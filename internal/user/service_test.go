package user

import (
	"errors"
	"testing"

	. "go-chat-relay/pkg/chat"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func TestUserService_GetUser(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)

	created := User{Username: "alice", Email: "alice@example.com", Password: "hashed"}
	if err := db.Create(&created).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	user, err := service.GetUser(created.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Expected username 'alice', got '%s'", user.Username)
	}

	_, err = service.GetUser("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUserService_SetOnline(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)

	created := User{Username: "alice", Email: "alice@example.com", Password: "hashed"}
	if err := db.Create(&created).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	if err := service.SetOnline(created.ID, true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var stored User
	db.First(&stored, "id = ?", created.ID)
	if !stored.Online {
		t.Error("Expected user to be flagged online")
	}

	if err := service.SetOnline(created.ID, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	db.First(&stored, "id = ?", created.ID)
	if stored.Online {
		t.Error("Expected user to be flagged offline")
	}

	err := service.SetOnline("missing", true)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}
