package storage

import (
	"os"

	. "go-chat-relay/pkg/chat"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const defaultDBPath = "gochat.db"

func Connect() (*gorm.DB, error) {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = defaultDBPath
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Channel{},
		&ChannelMember{},
		&Message{},
		&AuditLog{},
	)

	if err != nil {
		return nil, err
	}

	return db, nil
}
