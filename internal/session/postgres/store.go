// Package postgres is a session store backed by PostgreSQL through pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/taxease/internal/domain"
	"github.com/dvloznov/taxease/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// foreignKeyViolation is the SQLSTATE raised when a row references a missing
// session.
const foreignKeyViolation = "23503"

// Config holds the pool settings.
type Config struct {
	DSN         string
	MaxConns    int32
	AutoMigrate bool
}

// Store implements session.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open connects to the database, verifies the connection and, when
// cfg.AutoMigrate is set, applies pending migrations.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("Open: parsing connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("Open: creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Open: pinging database: %w", err)
	}

	if cfg.AutoMigrate {
		if _, err := Migrate(ctx, pool, "taxease", log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("Open: %w", err)
		}
	}

	log.Info().Str("host", poolConfig.ConnConfig.Host).Str("database", poolConfig.ConnConfig.Database).Msg("Connected to PostgreSQL")
	return &Store{pool: pool, log: log}, nil
}

// Pool exposes the underlying pool for migrations.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) CreateSession(ctx context.Context) (domain.Session, error) {
	sess, err := s.insertSession(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("CreateSession: %w", err)
	}
	return sess, nil
}

func (s *Store) insertSession(ctx context.Context) (domain.Session, error) {
	sess := domain.Session{ID: uuid.New().String()}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (id) VALUES ($1) RETURNING created_at`, sess.ID,
	).Scan(&sess.CreatedAt)
	if err != nil {
		return domain.Session{}, fmt.Errorf("inserting session: %w", err)
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	return sess, nil
}

func (s *Store) EnsureSession(ctx context.Context, id string) (domain.Session, error) {
	if id != "" {
		sess, err := s.GetSession(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return domain.Session{}, fmt.Errorf("EnsureSession: %w", err)
		}
	}
	sess, err := s.insertSession(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("EnsureSession: %w", err)
	}
	return sess, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	sess := domain.Session{ID: id}
	err := s.pool.QueryRow(ctx, `SELECT created_at FROM sessions WHERE id = $1`, id).Scan(&sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("GetSession: session %s: %w", id, session.ErrNotFound)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("GetSession: %w", err)
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	return sess, nil
}

func (s *Store) GetSummary(ctx context.Context, sessionID string) (*domain.Summary, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM summaries WHERE session_id = $1`, sessionID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("GetSummary: summary for session %s: %w", sessionID, session.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetSummary: %w", err)
	}

	var summary domain.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("GetSummary: decoding summary: %w", err)
	}
	return &summary, nil
}

func (s *Store) PutSummary(ctx context.Context, sessionID string, summary *domain.Summary) error {
	if summary == nil {
		return fmt.Errorf("PutSummary: summary is nil")
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("PutSummary: marshaling summary: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO summaries (session_id, data) VALUES ($1, $2)
		ON CONFLICT (session_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		sessionID, data,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("PutSummary: session %s: %w", sessionID, session.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("PutSummary: %w", err)
	}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (domain.Message, error) {
	msg := domain.Message{SessionID: sessionID, Role: role, Content: content}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (session_id, role, content) VALUES ($1, $2, $3) RETURNING created_at`,
		sessionID, string(role), content,
	).Scan(&msg.Timestamp)
	if isForeignKeyViolation(err) {
		return domain.Message{}, fmt.Errorf("AppendMessage: session %s: %w", sessionID, session.ErrNotFound)
	}
	if err != nil {
		return domain.Message{}, fmt.Errorf("AppendMessage: %w", err)
	}
	msg.Timestamp = msg.Timestamp.UTC()
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role, content, created_at FROM messages WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("ListMessages: %w", err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		m := domain.Message{SessionID: sessionID}
		var role string
		if err := rows.Scan(&role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("ListMessages: scanning row: %w", err)
		}
		m.Role = domain.Role(role)
		m.Timestamp = m.Timestamp.UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListMessages: %w", err)
	}
	return msgs, nil
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE messages, summaries, sessions`); err != nil {
		return fmt.Errorf("Reset: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// Ensure Store implements session.Store.
var _ session.Store = (*Store)(nil)
