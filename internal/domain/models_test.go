package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Conversation{}).TableName(): "conversations",
		(Turn{}).TableName():         "turns",
		(Feedback{}).TableName():     "feedback",
		(KVEntry{}).TableName():      "kv_entries",
		(Idempotency{}).TableName():  "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Conversation{}, &Turn{}, &Feedback{}, &KVEntry{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&Conversation{}, "idx_user_conversations") {
		t.Fatalf("expected index idx_user_conversations")
	}
	if !m.HasIndex(&Turn{}, "idx_conversation_turns") {
		t.Fatalf("expected index idx_conversation_turns")
	}
	if !m.HasIndex(&Feedback{}, "ux_feedback_turn_user") {
		t.Fatalf("expected unique index ux_feedback_turn_user")
	}

	now := time.Now().UTC()
	if err := db.Create(&Conversation{ID: "c1", UserID: "u1", Title: "T"}).Error; err != nil {
		t.Fatalf("insert conversation: %v", err)
	}
	conf := 0.56
	turns := []Turn{
		{ID: "t1", ConversationID: "c1", Role: RoleUser, Content: "保證每月20%回報", CreatedAt: now},
		{ID: "t2", ConversationID: "c1", Role: RoleAssistant, Content: "小心", DecisionType: "scam_alert", IsScam: true, ScamType: "investment_scam", Confidence: &conf, CreatedAt: now.Add(time.Second)},
	}
	if err := db.Create(&turns).Error; err != nil {
		t.Fatalf("insert turns: %v", err)
	}
	if err := db.Create(&Feedback{ID: "f1", TurnID: "t2", UserID: "u1", Value: 1}).Error; err != nil {
		t.Fatalf("insert feedback: %v", err)
	}

	// role check constraint
	if err := db.Create(&Turn{ID: "t3", ConversationID: "c1", Role: "system", Content: "x"}).Error; err == nil {
		t.Fatalf("expected role check violation")
	}

	if err := db.Unscoped().Delete(&Turn{}, "id = ?", "t2").Error; err != nil {
		t.Fatalf("delete t2: %v", err)
	}
	var cnt int64
	db.Model(&Feedback{}).Where("turn_id = ?", "t2").Count(&cnt)
	if cnt != 0 {
		t.Fatalf("feedback should cascade with its turn, got %d", cnt)
	}

	if err := db.Unscoped().Delete(&Conversation{}, "id = ?", "c1").Error; err != nil {
		t.Fatalf("delete conversation: %v", err)
	}
	db.Model(&Turn{}).Where("conversation_id = ?", "c1").Count(&cnt)
	if cnt != 0 {
		t.Fatalf("turns should cascade with their conversation, got %d", cnt)
	}
}

func TestUserUsage_Prune(t *testing.T) {
	u := UserUsage{Requests: []UsageEntry{
		{Timestamp: 100, Tokens: 5},
		{Timestamp: 200, Tokens: 7},
		{Timestamp: 300, Tokens: 11},
	}, SessionTokens: 23}

	u.Prune(200)
	if len(u.Requests) != 1 || u.Requests[0].Timestamp != 300 {
		t.Fatalf("unexpected entries after prune: %+v", u.Requests)
	}
	if u.SessionTokens != 11 {
		t.Fatalf("SessionTokens = %d; want 11", u.SessionTokens)
	}
}

func TestGlobalWindow_Roll(t *testing.T) {
	w := GlobalWindow{Count: 3, Tokens: 40, Start: 1000}

	w.Roll(1000+3600, 3600)
	if w.Count != 3 {
		t.Fatalf("window at exact boundary must not reset: %+v", w)
	}
	w.Roll(1000+3601, 3600)
	if w.Count != 0 || w.Tokens != 0 || w.Start != 4601 {
		t.Fatalf("window should reset: %+v", w)
	}

	all := GlobalWindow{Count: 9, Start: 1}
	all.Roll(1<<40, 0)
	if all.Count != 9 {
		t.Fatalf("zero-length window must never reset")
	}
}
