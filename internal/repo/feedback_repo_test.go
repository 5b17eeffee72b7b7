package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

func TestCreateFeedback_Error_NoTable(t *testing.T) {
	if err := CreateFeedback(context.Background(), newTestDB(t), "t1", "u1", 1); err == nil {
		t.Fatalf("expected error when feedback table is missing")
	}
}

func TestCreateFeedback_InsertsRow(t *testing.T) {
	db := newTurnDB(t)
	if err := db.AutoMigrate(&domain.Feedback{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	seedTurns(t, db, "c1", 2)

	start := time.Now().UTC()
	if err := CreateFeedback(context.Background(), db, "t1", "u1", -1); err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}

	var got domain.Feedback
	if err := db.Where("turn_id = ? AND user_id = ?", "t1", "u1").First(&got).Error; err != nil {
		t.Fatalf("load feedback: %v", err)
	}
	if got.ID == "" || got.Value != -1 || got.CreatedAt.Before(start.Add(-time.Minute)) {
		t.Fatalf("unexpected feedback row: %+v", got)
	}
}

func TestCreateFeedback_DuplicateReturnsUniqueError(t *testing.T) {
	db := newTurnDB(t)
	if err := db.AutoMigrate(&domain.Feedback{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	seedTurns(t, db, "c1", 2)

	ctx := context.Background()
	if err := CreateFeedback(ctx, db, "t1", "u1", 1); err != nil {
		t.Fatalf("first CreateFeedback: %v", err)
	}
	err := CreateFeedback(ctx, db, "t1", "u1", -1)
	if err == nil || !IsDuplicate(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}
