// Package sessiontest holds behavior tests shared by every session.Store
// implementation.
package sessiontest

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/taxease/internal/domain"
	"github.com/dvloznov/taxease/internal/session"
)

// Run exercises store against the session.Store contract. newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) session.Store) {
	t.Run("EnsureSession", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		created, err := s.EnsureSession(ctx, "")
		if err != nil {
			t.Fatalf("EnsureSession(\"\") error = %v", err)
		}
		if created.ID == "" || created.CreatedAt.IsZero() {
			t.Fatalf("EnsureSession(\"\") = %+v, want ID and timestamp", created)
		}

		same, err := s.EnsureSession(ctx, created.ID)
		if err != nil {
			t.Fatalf("EnsureSession(existing) error = %v", err)
		}
		if same.ID != created.ID {
			t.Errorf("EnsureSession(existing) = %s, want %s", same.ID, created.ID)
		}

		fresh, err := s.EnsureSession(ctx, "does-not-exist")
		if err != nil {
			t.Fatalf("EnsureSession(unknown) error = %v", err)
		}
		if fresh.ID == "does-not-exist" || fresh.ID == created.ID {
			t.Errorf("EnsureSession(unknown) = %s, want a new ID", fresh.ID)
		}
	})

	t.Run("GetSessionNotFound", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetSession(context.Background(), "missing"); !errors.Is(err, session.ErrNotFound) {
			t.Errorf("GetSession() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("SummaryOverwrite", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		sess, err := s.CreateSession(ctx)
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}

		if _, err := s.GetSummary(ctx, sess.ID); !errors.Is(err, session.ErrNotFound) {
			t.Fatalf("GetSummary() before put error = %v, want ErrNotFound", err)
		}

		date := "2025-01-01"
		first := &domain.Summary{
			TotalIncome: 5000, TotalExpenses: 1245, PotentialDeductions: 45,
			Transactions: []domain.Transaction{
				{Date: &date, Description: "Salary Deposit", Amount: 5000, Category: domain.CategoryIncome},
				{Description: "Medical Pharmacy", Amount: -45, Category: domain.CategoryDeductible},
			},
		}
		if err := s.PutSummary(ctx, sess.ID, first); err != nil {
			t.Fatalf("PutSummary() error = %v", err)
		}

		got, err := s.GetSummary(ctx, sess.ID)
		if err != nil {
			t.Fatalf("GetSummary() error = %v", err)
		}
		if got.TotalExpenses != 1245 || len(got.Transactions) != 2 {
			t.Errorf("GetSummary() = %+v", got)
		}
		if got.Transactions[0].Date == nil || *got.Transactions[0].Date != date || got.Transactions[1].Date != nil {
			t.Errorf("dates not preserved: %+v", got.Transactions)
		}

		second := &domain.Summary{TotalIncome: 1, Transactions: []domain.Transaction{}}
		if err := s.PutSummary(ctx, sess.ID, second); err != nil {
			t.Fatalf("PutSummary() overwrite error = %v", err)
		}
		got, err = s.GetSummary(ctx, sess.ID)
		if err != nil {
			t.Fatalf("GetSummary() error = %v", err)
		}
		if got.TotalIncome != 1 || len(got.Transactions) != 0 {
			t.Errorf("summary not overwritten: %+v", got)
		}
	})

	t.Run("PutSummaryUnknownSession", func(t *testing.T) {
		s := newStore(t)
		err := s.PutSummary(context.Background(), "missing", &domain.Summary{})
		if !errors.Is(err, session.ErrNotFound) {
			t.Errorf("PutSummary() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Messages", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		sess, err := s.CreateSession(ctx)
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}

		empty, err := s.ListMessages(ctx, sess.ID)
		if err != nil || len(empty) != 0 {
			t.Fatalf("ListMessages() = %v, %v; want empty", empty, err)
		}

		turns := []struct {
			role    domain.Role
			content string
		}{
			{domain.RoleUser, "What can I deduct?"},
			{domain.RoleAssistant, "Medical expenses under 80D."},
			{domain.RoleUser, "Thanks"},
		}
		for _, turn := range turns {
			if _, err := s.AppendMessage(ctx, sess.ID, turn.role, turn.content); err != nil {
				t.Fatalf("AppendMessage() error = %v", err)
			}
		}

		msgs, err := s.ListMessages(ctx, sess.ID)
		if err != nil {
			t.Fatalf("ListMessages() error = %v", err)
		}
		if len(msgs) != len(turns) {
			t.Fatalf("got %d messages, want %d", len(msgs), len(turns))
		}
		for i, m := range msgs {
			if m.Role != turns[i].role || m.Content != turns[i].content || m.SessionID != sess.ID {
				t.Errorf("msgs[%d] = %+v, want %v %q", i, m, turns[i].role, turns[i].content)
			}
		}

		if _, err := s.AppendMessage(ctx, "missing", domain.RoleUser, "x"); !errors.Is(err, session.ErrNotFound) {
			t.Errorf("AppendMessage(unknown) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		sess, err := s.CreateSession(ctx)
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if err := s.PutSummary(ctx, sess.ID, &domain.Summary{}); err != nil {
			t.Fatalf("PutSummary() error = %v", err)
		}
		if err := s.Reset(ctx); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		if _, err := s.GetSession(ctx, sess.ID); !errors.Is(err, session.ErrNotFound) {
			t.Errorf("GetSession() after reset error = %v, want ErrNotFound", err)
		}
		if _, err := s.GetSummary(ctx, sess.ID); !errors.Is(err, session.ErrNotFound) {
			t.Errorf("GetSummary() after reset error = %v, want ErrNotFound", err)
		}
	})
}
