package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dvloznov/taxease/internal/domain"
	"github.com/dvloznov/taxease/internal/session"
	"github.com/dvloznov/taxease/internal/session/sessiontest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "taxease.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	sessiontest.Run(t, func(t *testing.T) session.Store {
		return openTestStore(t)
	})
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "taxease.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sess, _ := s.CreateSession(ctx)
	if _, err := s.AppendMessage(ctx, sess.ID, domain.RoleUser, "hello"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	msgs, err := s.ListMessages(ctx, sess.ID)
	if err != nil || len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Errorf("ListMessages() after reopen = %v, %v", msgs, err)
	}
}
