package session

import (
	"context"
	"errors"

	"github.com/dvloznov/taxease/internal/domain"
)

// ErrNotFound is returned when a session or its summary does not exist.
var ErrNotFound = errors.New("not found")

// Store persists sessions, their statement summary and their chat history.
// A session has at most one summary; PutSummary overwrites it.
type Store interface {
	// CreateSession creates a session with a new random ID.
	CreateSession(ctx context.Context) (domain.Session, error)

	// EnsureSession returns the session with id, or creates a new session
	// (with a new ID) when id is empty or unknown.
	EnsureSession(ctx context.Context, id string) (domain.Session, error)

	// GetSession returns ErrNotFound for unknown IDs.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// GetSummary returns ErrNotFound when the session has no summary.
	GetSummary(ctx context.Context, sessionID string) (*domain.Summary, error)

	// PutSummary stores summary for the session, replacing any previous one.
	PutSummary(ctx context.Context, sessionID string, summary *domain.Summary) error

	// AppendMessage adds a message to the session history.
	AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (domain.Message, error)

	// ListMessages returns the session history, oldest first.
	ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Reset deletes all sessions, summaries and messages.
	Reset(ctx context.Context) error

	Close() error
}
