package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CorpusLoader reads the knowledge documents for an index build.
type CorpusLoader interface {
	LoadDocuments(ctx context.Context) ([]Document, error)
}

// DirLoader loads the .md files directly inside Dir. Documents are named by
// file name and returned sorted by name. A missing directory yields an empty
// corpus.
type DirLoader struct {
	Dir string
}

func (l DirLoader) LoadDocuments(ctx context.Context) ([]Document, error) {
	entries, err := os.ReadDir(l.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LoadDocuments: reading %s: %w", l.Dir, err)
	}

	var docs []Document
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(filepath.Join(l.Dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("LoadDocuments: reading %s: %w", e.Name(), err)
		}
		docs = append(docs, Document{Name: e.Name(), Text: string(raw)})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// BuildFrom loads the corpus from loader, builds the index from it and
// returns the number of published chunks.
func (idx *Index) BuildFrom(ctx context.Context, loader CorpusLoader) (int, error) {
	docs, err := loader.LoadDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("BuildFrom: %w", err)
	}
	if err := idx.Build(ctx, docs); err != nil {
		return 0, err
	}
	return idx.Len(), nil
}
