package rag

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrIndexNotFound is returned by FileStore.Load when no index was saved yet.
var ErrIndexNotFound = errors.New("persisted index not found")

// PersistedIndex is the content of an index file.
type PersistedIndex struct {
	Fingerprint string
	Model       string
	CreatedAt   time.Time
	Chunks      []Chunk
}

// indexHeader is the first JSONL record of an index file; every following
// line is one Chunk.
type indexHeader struct {
	Fingerprint string    `json:"fingerprint"`
	Model       string    `json:"model"`
	CreatedAt   time.Time `json:"created_at"`
	Count       int       `json:"count"`
}

// FileStore persists an index as JSONL at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Save replaces the index file. The new content is written to a temporary
// file in the same directory and renamed over the old one, so readers never
// see a partial index.
func (s *FileStore) Save(idx PersistedIndex) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("Save: creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("Save: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	createdAt := idx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	header := indexHeader{Fingerprint: idx.Fingerprint, Model: idx.Model, CreatedAt: createdAt, Count: len(idx.Chunks)}
	if err := enc.Encode(header); err != nil {
		tmp.Close()
		return fmt.Errorf("Save: writing header: %w", err)
	}
	for _, c := range idx.Chunks {
		if err := enc.Encode(c); err != nil {
			tmp.Close()
			return fmt.Errorf("Save: writing chunk %s: %w", c.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("Save: flushing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("Save: closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("Save: renaming index file: %w", err)
	}
	return nil
}

// Load reads the index file.
func (s *FileStore) Load() (PersistedIndex, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return PersistedIndex{}, ErrIndexNotFound
	}
	if err != nil {
		return PersistedIndex{}, fmt.Errorf("Load: opening index: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	var out PersistedIndex
	var header *indexHeader
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if header == nil {
			header = &indexHeader{}
			if err := json.Unmarshal([]byte(line), header); err != nil {
				return PersistedIndex{}, fmt.Errorf("Load: parsing header: %w", err)
			}
			continue
		}
		var c Chunk
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return PersistedIndex{}, fmt.Errorf("Load: parsing line %d: %w", lineNo, err)
		}
		out.Chunks = append(out.Chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return PersistedIndex{}, fmt.Errorf("Load: reading index: %w", err)
	}
	if header == nil {
		return PersistedIndex{}, fmt.Errorf("Load: %s has no header", s.path)
	}
	if header.Count != len(out.Chunks) {
		return PersistedIndex{}, fmt.Errorf("Load: header declares %d chunks, found %d", header.Count, len(out.Chunks))
	}

	out.Fingerprint = header.Fingerprint
	out.Model = header.Model
	out.CreatedAt = header.CreatedAt
	return out, nil
}
