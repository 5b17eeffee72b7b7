package services

import (
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

// newTestDB opens a private in-memory database with foreign keys on and the
// conversation schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.Conversation{}, &domain.Turn{}, &domain.Feedback{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedConversation(t *testing.T, db *gorm.DB, id, userID, title string) {
	t.Helper()
	if err := db.Create(&domain.Conversation{ID: id, UserID: userID, Title: title}).Error; err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
}
