package gcsuploader

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dvloznov/taxease/internal/rag"
)

// RawArchive keeps a copy of every uploaded statement.
type RawArchive struct {
	store  ObjectStore
	bucket string
	now    func() time.Time
}

// NewRawArchive archives into bucket.
func NewRawArchive(store ObjectStore, bucket string) *RawArchive {
	return &RawArchive{store: store, bucket: bucket, now: time.Now}
}

// ArchiveStatement stores data under uploads/<session>/<timestamp>_<filename>
// and returns the object URI.
func (a *RawArchive) ArchiveStatement(ctx context.Context, sessionID, filename string, data []byte) (string, error) {
	uri, err := a.store.UploadBytes(ctx, a.bucket, a.objectName(sessionID, filename), data, "text/csv")
	if err != nil {
		return "", fmt.Errorf("ArchiveStatement: %w", err)
	}
	return uri, nil
}

func (a *RawArchive) objectName(sessionID, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = "statement.csv"
	}
	return fmt.Sprintf("uploads/%s/%s_%s", sessionID, a.now().UTC().Format("20060102T150405Z"), base)
}

// CorpusLoader reads the knowledge corpus from the .md objects under a
// gs://bucket/prefix location.
type CorpusLoader struct {
	store ObjectStore
	uri   string
}

// NewCorpusLoader loads documents from uri.
func NewCorpusLoader(store ObjectStore, uri string) *CorpusLoader {
	return &CorpusLoader{store: store, uri: uri}
}

// LoadDocuments downloads each .md object in name order. Documents are named
// by their path relative to the prefix.
func (l *CorpusLoader) LoadDocuments(ctx context.Context) ([]rag.Document, error) {
	bucket, prefix, err := ParseURI(l.uri)
	if err != nil {
		return nil, fmt.Errorf("LoadDocuments: %w", err)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	names, err := l.store.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("LoadDocuments: %w", err)
	}

	docs := make([]rag.Document, 0, len(names))
	for _, name := range names {
		if !strings.EqualFold(path.Ext(name), ".md") {
			continue
		}
		data, err := l.store.Download(ctx, "gs://"+bucket+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("LoadDocuments: %w", err)
		}
		docs = append(docs, rag.Document{Name: strings.TrimPrefix(name, prefix), Text: string(data)})
	}
	return docs, nil
}

var _ rag.CorpusLoader = (*CorpusLoader)(nil)
