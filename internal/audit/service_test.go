package audit

import (
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

	if err := db.AutoMigrate(&AuditLog{}); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func TestAuditService_ChannelLifecycle(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuditService(db)

	if err := service.LogChannelCreation("user1", "chan1", "general"); err != nil {
		t.Fatalf("LogChannelCreation failed: %v", err)
	}
	if err := service.LogChannelJoin("user2", "chan1"); err != nil {
		t.Fatalf("LogChannelJoin failed: %v", err)
	}
	if err := service.LogChannelLeave("user2", "chan1"); err != nil {
		t.Fatalf("LogChannelLeave failed: %v", err)
	}

	logs, err := service.GetChannelAuditLogs("chan1", 10)
	if err != nil {
		t.Fatalf("GetChannelAuditLogs failed: %v", err)
	}

	if len(logs) != 3 {
		t.Fatalf("Expected 3 audit entries, got %d", len(logs))
	}

	actions := map[string]bool{}
	for _, entry := range logs {
		actions[entry.Action] = true
		if entry.ChannelID == nil || *entry.ChannelID != "chan1" {
			t.Errorf("Expected channel ID 'chan1' on entry %q", entry.Action)
		}
	}

	for _, want := range []string{ActionCreateChannel, ActionJoinChannel, ActionLeaveChannel} {
		if !actions[want] {
			t.Errorf("Missing audit action %s", want)
		}
	}
}

func TestAuditService_ScopedToChannel(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuditService(db)

	service.LogChannelCreation("user1", "chan1", "general")
	service.LogChannelCreation("user1", "chan2", "random")

	logs, err := service.GetChannelAuditLogs("chan1", 10)
	if err != nil {
		t.Fatalf("GetChannelAuditLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("Expected 1 entry for chan1, got %d", len(logs))
	}
}
