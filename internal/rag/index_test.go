package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

// mockEmbedder delegates to EmbedFunc, or to a HashEmbedder when nil, and
// counts the texts it was asked to embed.
type mockEmbedder struct {
	EmbedFunc func(ctx context.Context, texts []string) ([][]float64, error)
	embedded  atomic.Int32
}

func (m *mockEmbedder) Model() string { return "mock" }

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	m.embedded.Add(int32(len(texts)))
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}
	return NewHashEmbedder(1024).Embed(ctx, texts)
}

var testCorpus = []Document{
	{Name: "80d.md", Text: "Medical insurance premium for self and family is deductible under section 80D.\n\nPreventive health checkups are included."},
	{Name: "24.md", Text: "Home loan interest on a self occupied house is deductible under section 24."},
	{Name: "80g.md", Text: "Donation to approved charity or relief fund qualifies under section 80G."},
}

func newTestIndex(e Embedder, store *FileStore) *Index {
	return NewIndex(e, store, IndexOptions{ChunkSize: 500, Overlap: 50}, zerolog.Nop())
}

func TestIndex_EmptyCorpus(t *testing.T) {
	emb := &mockEmbedder{}
	idx := newTestIndex(emb, nil)

	if err := idx.Build(context.Background(), nil); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	results, err := idx.Query(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Query() returned %d results, want 0", len(results))
	}
	if emb.embedded.Load() != 0 {
		t.Errorf("embedder called %d times on empty index", emb.embedded.Load())
	}
	if got := Assemble(results); got != NoContext {
		t.Errorf("Assemble() = %q, want %q", got, NoContext)
	}
}

func TestIndex_Query(t *testing.T) {
	idx := newTestIndex(&mockEmbedder{}, nil)
	if err := idx.Build(context.Background(), testCorpus); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", idx.Len())
	}

	results, err := idx.Query(context.Background(), "home loan interest", 2)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Query() returned %d results, want 2", len(results))
	}
	if results[0].Chunk.Source != "24.md" {
		t.Errorf("closest source = %s, want 24.md", results[0].Chunk.Source)
	}
	if results[0].Chunk.ID != "24.md_0" {
		t.Errorf("closest ID = %s, want 24.md_0", results[0].Chunk.ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("distances not ascending: %v then %v", results[i-1].Distance, results[i].Distance)
		}
	}
	for _, r := range results {
		if r.Distance < 0 {
			t.Errorf("negative distance %v", r.Distance)
		}
	}

	all, err := idx.Query(context.Background(), "section", 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Query(k=10) returned %d results, want 3", len(all))
	}
}

func TestIndex_QueryInvalidK(t *testing.T) {
	idx := newTestIndex(&mockEmbedder{}, nil)
	if _, err := idx.Query(context.Background(), "x", 0); !errors.Is(err, ErrInvalidK) {
		t.Errorf("Query(k=0) error = %v, want ErrInvalidK", err)
	}
}

func TestIndex_EmbeddingFailure(t *testing.T) {
	failing := &mockEmbedder{EmbedFunc: func(ctx context.Context, texts []string) ([][]float64, error) {
		return nil, errors.New("connection refused")
	}}

	idx := newTestIndex(failing, nil)
	if err := idx.Build(context.Background(), testCorpus); !errors.Is(err, ErrEmbeddingProvider) {
		t.Errorf("Build() error = %v, want ErrEmbeddingProvider", err)
	}
	if idx.Len() != 0 {
		t.Errorf("failed build published %d chunks", idx.Len())
	}

	// Build with a working embedder, then break it for the query.
	emb := &mockEmbedder{}
	idx = newTestIndex(emb, nil)
	if err := idx.Build(context.Background(), testCorpus); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	emb.EmbedFunc = failing.EmbedFunc
	if _, err := idx.Query(context.Background(), "loan", 3); !errors.Is(err, ErrEmbeddingProvider) {
		t.Errorf("Query() error = %v, want ErrEmbeddingProvider", err)
	}
}

func TestIndex_MismatchedVectorCount(t *testing.T) {
	short := &mockEmbedder{EmbedFunc: func(ctx context.Context, texts []string) ([][]float64, error) {
		return [][]float64{{1, 0}}, nil
	}}
	idx := newTestIndex(short, nil)
	if err := idx.Build(context.Background(), testCorpus); !errors.Is(err, ErrEmbeddingProvider) {
		t.Errorf("Build() error = %v, want ErrEmbeddingProvider", err)
	}
}

func TestIndex_DuplicateDocumentName(t *testing.T) {
	idx := newTestIndex(&mockEmbedder{}, nil)
	docs := []Document{{Name: "a.md", Text: "x"}, {Name: "a.md", Text: "y"}}
	if err := idx.Build(context.Background(), docs); err == nil {
		t.Error("Build() with duplicate names succeeded, want error")
	}
}

func TestIndex_RebuildReplaces(t *testing.T) {
	idx := newTestIndex(&mockEmbedder{}, nil)
	for i := 0; i < 3; i++ {
		if err := idx.Build(context.Background(), testCorpus); err != nil {
			t.Fatalf("Build() error = %v", err)
		}
	}
	if idx.Len() != 3 {
		t.Errorf("Len() after rebuilds = %d, want 3", idx.Len())
	}

	if err := idx.Build(context.Background(), testCorpus[:1]); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if idx.Len() != 1 {
		t.Errorf("Len() after shrinking corpus = %d, want 1", idx.Len())
	}
}

func TestIndex_ReusesPersistedIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.jsonl")

	first := &mockEmbedder{}
	if err := newTestIndex(first, NewFileStore(path)).Build(context.Background(), testCorpus); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if first.embedded.Load() != 3 {
		t.Fatalf("first build embedded %d texts, want 3", first.embedded.Load())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("index file not written: %v", err)
	}

	second := &mockEmbedder{}
	idx := newTestIndex(second, NewFileStore(path))
	if err := idx.Build(context.Background(), testCorpus); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if second.embedded.Load() != 0 {
		t.Errorf("rebuild embedded %d texts, want reuse", second.embedded.Load())
	}
	if idx.Len() != 3 {
		t.Errorf("Len() = %d, want 3", idx.Len())
	}

	changed := append([]Document{{Name: "80e.md", Text: "Education loan interest under 80E."}}, testCorpus...)
	if err := idx.Build(context.Background(), changed); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if second.embedded.Load() != 4 {
		t.Errorf("changed corpus embedded %d texts, want 4", second.embedded.Load())
	}

	persisted, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(persisted.Chunks) != 4 {
		t.Errorf("persisted %d chunks, want 4", len(persisted.Chunks))
	}
}

func TestIndex_ConcurrentQueriesDuringRebuild(t *testing.T) {
	idx := newTestIndex(&mockEmbedder{}, nil)
	if err := idx.Build(context.Background(), testCorpus); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				results, err := idx.Query(context.Background(), "charity donation", 3)
				if err != nil {
					t.Errorf("Query() error = %v", err)
					return
				}
				if len(results) == 0 {
					t.Error("Query() returned no results during rebuild")
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		if err := idx.Build(context.Background(), testCorpus); err != nil {
			t.Errorf("Build() error = %v", err)
		}
	}
	wg.Wait()
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing.jsonl"))
	if _, err := s.Load(); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("Load() error = %v, want ErrIndexNotFound", err)
	}
}

func TestFileStore_LoadTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.jsonl")
	content := `{"fingerprint":"abc","model":"mock","count":2}` + "\n" + `{"id":"a_0","text":"x","source":"a","sequence":0,"embedding":[1]}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(); err == nil {
		t.Error("Load() of truncated index succeeded, want error")
	}
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{"b.md": "beta", "a.md": "alpha", "notes.txt": "ignored"}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := DirLoader{Dir: dir}.LoadDocuments(context.Background())
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}
	if len(docs) != 2 || docs[0].Name != "a.md" || docs[1].Text != "beta" {
		t.Errorf("LoadDocuments() = %+v", docs)
	}

	missing, err := DirLoader{Dir: filepath.Join(dir, "nope")}.LoadDocuments(context.Background())
	if err != nil || len(missing) != 0 {
		t.Errorf("LoadDocuments(missing) = %v, %v; want empty, nil", missing, err)
	}
}

func TestIndex_BuildFrom(t *testing.T) {
	dir := t.TempDir()
	for _, d := range testCorpus {
		if err := os.WriteFile(filepath.Join(dir, d.Name), []byte(d.Text), 0644); err != nil {
			t.Fatal(err)
		}
	}

	idx := NewIndex(NewHashEmbedder(256), nil, IndexOptions{ChunkSize: 500}, zerolog.Nop())
	n, err := idx.BuildFrom(context.Background(), DirLoader{Dir: dir})
	if err != nil {
		t.Fatalf("BuildFrom() error = %v", err)
	}
	if n == 0 || n != idx.Len() {
		t.Errorf("BuildFrom() = %d, Len() = %d", n, idx.Len())
	}
}
