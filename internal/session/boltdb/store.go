// Package boltdb is a session store backed by a single BoltDB file.
package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/dvloznov/taxease/internal/domain"
	"github.com/dvloznov/taxease/internal/session"
	"github.com/google/uuid"
)

var (
	sessionsBucket  = []byte("sessions")
	summariesBucket = []byte("summaries")
	messagesBucket  = []byte("messages")

	allBuckets = [][]byte{sessionsBucket, summariesBucket, messagesBucket}
)

// Store keeps sessions and summaries as JSON values. Messages live in one
// nested bucket per session keyed by a big-endian sequence number, so a
// cursor walk returns them in insertion order.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and ensures the buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("Open: opening bolt db %s: %w", path, err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.db.Update(createBuckets); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: creating buckets: %w", err)
	}
	return s, nil
}

func createBuckets(tx *bolt.Tx) error {
	for _, name := range allBuckets {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context) (domain.Session, error) {
	var sess domain.Session
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		sess, err = s.create(tx)
		return err
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("CreateSession: %w", err)
	}
	return sess, nil
}

func (s *Store) create(tx *bolt.Tx) (domain.Session, error) {
	sess := domain.Session{ID: uuid.New().String(), CreatedAt: s.now().UTC()}
	data, err := json.Marshal(sess)
	if err != nil {
		return domain.Session{}, err
	}
	return sess, tx.Bucket(sessionsBucket).Put([]byte(sess.ID), data)
}

func (s *Store) EnsureSession(ctx context.Context, id string) (domain.Session, error) {
	var sess domain.Session
	err := s.db.Update(func(tx *bolt.Tx) error {
		if id != "" {
			if data := tx.Bucket(sessionsBucket).Get([]byte(id)); data != nil {
				return json.Unmarshal(data, &sess)
			}
		}
		var err error
		sess, err = s.create(tx)
		return err
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("EnsureSession: %w", err)
	}
	return sess, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var sess domain.Session
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("session %s: %w", id, session.ErrNotFound)
		}
		return json.Unmarshal(data, &sess)
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("GetSession: %w", err)
	}
	return sess, nil
}

func (s *Store) GetSummary(ctx context.Context, sessionID string) (*domain.Summary, error) {
	var summary domain.Summary
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(summariesBucket).Get([]byte(sessionID))
		if data == nil {
			return fmt.Errorf("summary for session %s: %w", sessionID, session.ErrNotFound)
		}
		return json.Unmarshal(data, &summary)
	})
	if err != nil {
		return nil, fmt.Errorf("GetSummary: %w", err)
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

	err = s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(sessionsBucket).Get([]byte(sessionID)) == nil {
			return fmt.Errorf("session %s: %w", sessionID, session.ErrNotFound)
		}
		return tx.Bucket(summariesBucket).Put([]byte(sessionID), data)
	})
	if err != nil {
		return fmt.Errorf("PutSummary: %w", err)
	}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (domain.Message, error) {
	msg := domain.Message{SessionID: sessionID, Role: role, Content: content, Timestamp: s.now().UTC()}
	data, err := json.Marshal(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("AppendMessage: marshaling message: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(sessionsBucket).Get([]byte(sessionID)) == nil {
			return fmt.Errorf("session %s: %w", sessionID, session.ErrNotFound)
		}
		b, err := tx.Bucket(messagesBucket).CreateBucketIfNotExists([]byte(sessionID))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(itob(seq), data)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("AppendMessage: %w", err)
	}
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	msgs := []domain.Message{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(messagesBucket).Bucket([]byte(sessionID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var m domain.Message
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			msgs = append(msgs, m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ListMessages: %w", err)
	}
	return msgs, nil
}

func (s *Store) Reset(ctx context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if err := tx.DeleteBucket(name); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
		}
		return createBuckets(tx)
	})
	if err != nil {
		return fmt.Errorf("Reset: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Ensure Store implements session.Store.
var _ session.Store = (*Store)(nil)
