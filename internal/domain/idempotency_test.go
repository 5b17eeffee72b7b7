package domain

import (
	"testing"
	"time"
)

func TestIdempotency_AutoMigrateAndUniqueness(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&Idempotency{}, "ux_user_conversation_key") {
		t.Fatalf("composite unique index missing")
	}
	for _, col := range []string{"user_id", "conversation_id", "key", "turn_id", "status", "expires_at"} {
		if !m.HasColumn(&Idempotency{}, col) {
			t.Fatalf("column %q missing", col)
		}
	}

	now := time.Now().UTC()
	rec := func(id, user, conv, key string) *Idempotency {
		return &Idempotency{ID: id, UserID: user, ConversationID: conv, Key: key, TurnID: "turn-" + id, Status: 200, ExpiresAt: now.Add(time.Hour)}
	}

	if err := db.Create(rec("1", "u1", "c1", "retry-1")).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := db.Create(rec("2", "u1", "c1", "retry-1")).Error; err == nil {
		t.Fatalf("same (user, conversation, key) stored twice")
	}
	// The key is scoped: other conversations and other users may reuse it.
	if err := db.Create(rec("3", "u1", "c2", "retry-1")).Error; err != nil {
		t.Fatalf("other conversation: %v", err)
	}
	if err := db.Create(rec("4", "u2", "c1", "retry-1")).Error; err != nil {
		t.Fatalf("other user: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "1").Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got.TurnID != "turn-1" || got.Status != 200 || got.CreatedAt.IsZero() {
		t.Fatalf("row = %+v", got)
	}
}

func TestIdempotency_NotNullColumns(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	now := time.Now().UTC()
	err := db.Exec(`INSERT INTO idempotency (id, user_id, conversation_id, key, turn_id, status, created_at, expires_at)
		VALUES (?, ?, ?, ?, NULL, ?, ?, ?)`, "x", "u1", "c1", "k", 200, now, now.Add(time.Hour)).Error
	if err == nil {
		t.Fatalf("NULL turn_id accepted")
	}
}
