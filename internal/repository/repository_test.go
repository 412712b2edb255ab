package repository

import (
	"testing"

	"reelchat/internal/domain/chat"
	"reelchat/internal/domain/notification"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&chat.Conversation{},
		&chat.Message{},
		&chat.MessageSeen{},
		&chat.MessageLike{},
		&notification.Notification{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}
