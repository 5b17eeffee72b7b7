package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

type fakeConversationRepo struct {
	createUserID, createTitle string

	getConv *domain.Conversation
	getErr  error

	updateID, updateTitle string
	updateErr             error

	countTotal int64
	countErr   error

	pageOffset, pageLimit int
	pageItems             []domain.Conversation
	pageErr               error
}

func (r *fakeConversationRepo) CreateConversation(_ context.Context, _ *gorm.DB, userID, title string) (*domain.Conversation, error) {
	r.createUserID, r.createTitle = userID, title
	return &domain.Conversation{ID: "c1", UserID: userID, Title: title}, nil
}

func (r *fakeConversationRepo) ListConversations(_ context.Context, _ *gorm.DB, userID string) ([]domain.Conversation, error) {
	return []domain.Conversation{{ID: "c1", UserID: userID}, {ID: "c2", UserID: userID}}, nil
}

func (r *fakeConversationRepo) GetConversation(_ context.Context, _ *gorm.DB, id, userID string) (*domain.Conversation, error) {
	return r.getConv, r.getErr
}

func (r *fakeConversationRepo) UpdateConversationTitle(_ context.Context, _ *gorm.DB, id, userID, title string) error {
	r.updateID, r.updateTitle = id, title
	return r.updateErr
}

func (r *fakeConversationRepo) CountConversations(context.Context, *gorm.DB, string) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeConversationRepo) ListConversationsPage(_ context.Context, _ *gorm.DB, _ string, offset, limit int) ([]domain.Conversation, error) {
	r.pageOffset, r.pageLimit = offset, limit
	return r.pageItems, r.pageErr
}

func TestConversationService_CreateDefaultsAndClips(t *testing.T) {
	r := &fakeConversationRepo{}
	s := NewConversationService(nil, r)
	s.TitleMaxLen = 5

	if _, err := s.Create(context.Background(), "u1", "   "); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.createTitle != defaultTitleNew {
		t.Fatalf("blank title = %q", r.createTitle)
	}

	if _, err := s.Create(context.Background(), "u1", "  可疑   投資 簡訊  "); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.createTitle != "可疑 投資" || utf8.RuneCountInString(r.createTitle) != 5 {
		t.Fatalf("normalized title = %q", r.createTitle)
	}
}

func TestConversationService_List(t *testing.T) {
	s := NewConversationService(nil, &fakeConversationRepo{})
	got, err := s.List(context.Background(), "u1")
	if err != nil || len(got) != 2 {
		t.Fatalf("List = %v, %v", got, err)
	}
}

func TestConversationService_ListPage(t *testing.T) {
	r := &fakeConversationRepo{}
	s := NewConversationService(nil, r)

	items, total, err := s.ListPage(context.Background(), "u1", 0, 0)
	if err != nil || total != 0 || items == nil || len(items) != 0 {
		t.Fatalf("empty page = (%v, %d, %v)", items, total, err)
	}

	r.countErr = errors.New("boom")
	if _, _, err := s.ListPage(context.Background(), "u1", 1, 10); err == nil {
		t.Fatalf("expected count error")
	}

	r.countErr = nil
	r.countTotal = 30
	r.pageItems = []domain.Conversation{{ID: "c21"}}
	items, total, err = s.ListPage(context.Background(), "u1", 3, 10)
	if err != nil || total != 30 || len(items) != 1 {
		t.Fatalf("page = (%v, %d, %v)", items, total, err)
	}
	if r.pageOffset != 20 || r.pageLimit != 10 {
		t.Fatalf("offset=%d limit=%d", r.pageOffset, r.pageLimit)
	}
}

func TestConversationService_UpdateTitle(t *testing.T) {
	r := &fakeConversationRepo{getErr: gorm.ErrRecordNotFound}
	s := NewConversationService(nil, r)

	if err := s.UpdateTitle(context.Background(), "u1", "c1", "x"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("want ErrConversationNotFound, got %v", err)
	}

	r.getErr = errors.New("db down")
	if err := s.UpdateTitle(context.Background(), "u1", "c1", "x"); err == nil || errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("want raw error, got %v", err)
	}

	r.getErr = nil
	r.getConv = &domain.Conversation{ID: "c1"}
	if err := s.UpdateTitle(context.Background(), "u1", "c1", " "); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	if r.updateTitle != defaultTitleUntitled || r.updateID != "c1" {
		t.Fatalf("update = %q on %q", r.updateTitle, r.updateID)
	}

	s.TitleMaxLen = 3
	_ = s.UpdateTitle(context.Background(), "u1", "c1", strings.Repeat("長", 10))
	if utf8.RuneCountInString(r.updateTitle) != 3 {
		t.Fatalf("clipped title = %q", r.updateTitle)
	}
}

func TestNormalizeTitle(t *testing.T) {
	if got := normalizeTitle("\t a \n\n b  "); got != "a b" {
		t.Fatalf("normalizeTitle = %q", got)
	}
}
