package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/taxease/internal/domain"
	"github.com/dvloznov/taxease/internal/session"
	"github.com/google/uuid"
)

// Store is an in-memory session store, safe for concurrent use.
// Data is lost on restart.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]domain.Session
	summaries map[string]*domain.Summary
	messages  map[string][]domain.Message
	now       func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions:  make(map[string]domain.Session),
		summaries: make(map[string]*domain.Summary),
		messages:  make(map[string][]domain.Message),
		now:       time.Now,
	}
}

func (s *Store) CreateSession(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(), nil
}

func (s *Store) createLocked() domain.Session {
	sess := domain.Session{ID: uuid.New().String(), CreatedAt: s.now().UTC()}
	s.sessions[sess.ID] = sess
	return sess
}

func (s *Store) EnsureSession(ctx context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok && id != "" {
		return sess, nil
	}
	return s.createLocked(), nil
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %s: %w", id, session.ErrNotFound)
	}
	return sess, nil
}

func (s *Store) GetSummary(ctx context.Context, sessionID string) (*domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[sessionID]
	if !ok {
		return nil, fmt.Errorf("summary for session %s: %w", sessionID, session.ErrNotFound)
	}
	return copySummary(summary), nil
}

func (s *Store) PutSummary(ctx context.Context, sessionID string, summary *domain.Summary) error {
	if summary == nil {
		return fmt.Errorf("PutSummary: summary is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("PutSummary: session %s: %w", sessionID, session.ErrNotFound)
	}
	s.summaries[sessionID] = copySummary(summary)
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return domain.Message{}, fmt.Errorf("AppendMessage: session %s: %w", sessionID, session.ErrNotFound)
	}
	msg := domain.Message{SessionID: sessionID, Role: role, Content: content, Timestamp: s.now().UTC()}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]domain.Session)
	s.summaries = make(map[string]*domain.Summary)
	s.messages = make(map[string][]domain.Message)
	return nil
}

func (s *Store) Close() error {
	return nil
}

// copySummary returns a deep copy so callers cannot mutate stored state.
func copySummary(in *domain.Summary) *domain.Summary {
	out := *in
	out.Transactions = make([]domain.Transaction, len(in.Transactions))
	for i, t := range in.Transactions {
		if t.Date != nil {
			d := *t.Date
			t.Date = &d
		}
		out.Transactions[i] = t
	}
	return &out
}

// Ensure Store implements session.Store.
var _ session.Store = (*Store)(nil)
