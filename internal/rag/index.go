package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrInvalidK is returned by Query for k <= 0.
var ErrInvalidK = errors.New("k must be greater than zero")

// IndexOptions holds the chunking parameters used at build time.
type IndexOptions struct {
	ChunkSize int
	Overlap   int
}

// snapshot is an immutable built index. Readers load it through an atomic
// pointer so a rebuild never blocks or mixes with in-flight queries.
type snapshot struct {
	fingerprint string
	chunks      []Chunk
}

// Index holds embedded knowledge chunks and answers nearest-neighbor queries
// under cosine distance. It is safe for concurrent use.
type Index struct {
	embedder Embedder
	store    *FileStore
	opts     IndexOptions
	log      zerolog.Logger

	buildMu sync.Mutex
	current atomic.Pointer[snapshot]
}

// NewIndex creates an empty index. store may be nil, in which case every
// Build re-embeds the corpus.
func NewIndex(embedder Embedder, store *FileStore, opts IndexOptions, log zerolog.Logger) *Index {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 500
	}
	idx := &Index{
		embedder: embedder,
		store:    store,
		opts:     opts,
		log:      log,
	}
	idx.current.Store(&snapshot{})
	return idx
}

// Build replaces the index with the chunks of docs. When the persisted index
// was built from the same documents, options and embedding model it is loaded
// instead of re-embedding. Builds are serialized; queries keep using the
// previous snapshot until the new one is published.
func (idx *Index) Build(ctx context.Context, docs []Document) error {
	idx.buildMu.Lock()
	defer idx.buildMu.Unlock()

	chunks, err := idx.chunk(docs)
	if err != nil {
		return fmt.Errorf("Build: %w", err)
	}
	fp := idx.fingerprint(docs)

	if idx.store != nil {
		persisted, err := idx.store.Load()
		switch {
		case err == nil && persisted.Fingerprint == fp:
			idx.publish(fp, persisted.Chunks)
			idx.log.Info().Int("chunks", len(persisted.Chunks)).Str("path", idx.store.Path()).Msg("Reused persisted knowledge index")
			return nil
		case err != nil && !errors.Is(err, ErrIndexNotFound):
			idx.log.Warn().Err(err).Msg("Ignoring unreadable persisted index")
		}
	}

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vectors, err := idx.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("Build: embedding %d chunks: %w", len(chunks), providerError(err))
		}
		if err := checkVectors(vectors, len(texts)); err != nil {
			return fmt.Errorf("Build: %w", err)
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}

	idx.publish(fp, chunks)
	idx.log.Info().Int("documents", len(docs)).Int("chunks", len(chunks)).Str("model", idx.embedder.Model()).Msg("Built knowledge index")

	if idx.store != nil {
		if err := idx.store.Save(PersistedIndex{Fingerprint: fp, Model: idx.embedder.Model(), Chunks: chunks}); err != nil {
			idx.log.Warn().Err(err).Msg("Failed to persist knowledge index")
		}
	}
	return nil
}

// Query returns at most k chunks closest to text, ordered by ascending
// distance. An empty index returns an empty slice without embedding text.
func (idx *Index) Query(ctx context.Context, text string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("Query: %w", ErrInvalidK)
	}

	snap := idx.current.Load()
	if len(snap.chunks) == 0 {
		return []Result{}, nil
	}

	vectors, err := idx.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("Query: embedding query: %w", providerError(err))
	}
	if err := checkVectors(vectors, 1); err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}
	query := vectors[0]
	if dim := len(snap.chunks[0].Embedding); len(query) != dim {
		return nil, fmt.Errorf("Query: %w: query dimension %d, index dimension %d", ErrEmbeddingProvider, len(query), dim)
	}

	results := make([]Result, 0, len(snap.chunks))
	for _, c := range snap.chunks {
		results = append(results, Result{Chunk: c, Distance: cosineDistance(query, c.Embedding)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of chunks in the published snapshot.
func (idx *Index) Len() int {
	return len(idx.current.Load().chunks)
}

func (idx *Index) publish(fp string, chunks []Chunk) {
	idx.current.Store(&snapshot{fingerprint: fp, chunks: chunks})
}

func (idx *Index) chunk(docs []Document) ([]Chunk, error) {
	seen := make(map[string]bool, len(docs))
	var chunks []Chunk
	for _, doc := range docs {
		if seen[doc.Name] {
			return nil, fmt.Errorf("duplicate document name %q", doc.Name)
		}
		seen[doc.Name] = true

		for i, text := range ChunkText(doc.Text, idx.opts.ChunkSize, idx.opts.Overlap) {
			chunks = append(chunks, Chunk{
				ID:       doc.Name + "_" + strconv.Itoa(i),
				Text:     text,
				Source:   doc.Name,
				Sequence: i,
			})
		}
	}
	return chunks, nil
}

// fingerprint identifies the inputs of a build so a persisted index is only
// reused for an identical corpus, chunking and embedding model.
func (idx *Index) fingerprint(docs []Document) string {
	h := sha256.New()
	fmt.Fprintf(h, "model=%s\nsize=%d\noverlap=%d\n", idx.embedder.Model(), idx.opts.ChunkSize, idx.opts.Overlap)
	for _, doc := range docs {
		fmt.Fprintf(h, "%d:%s\n%d:%s\n", len(doc.Name), doc.Name, len(doc.Text), doc.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func checkVectors(vectors [][]float64, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingProvider, len(vectors), want)
	}
	for i, v := range vectors {
		if len(v) == 0 || len(v) != len(vectors[0]) {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrEmbeddingProvider, i, len(v), len(vectors[0]))
		}
	}
	return nil
}
