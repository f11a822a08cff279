package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/taxease/internal/chat"
	"github.com/dvloznov/taxease/internal/config"
	"github.com/dvloznov/taxease/internal/jobs"
	"github.com/dvloznov/taxease/internal/pipeline"
	"github.com/dvloznov/taxease/internal/session/boltdb"
	"github.com/dvloznov/taxease/internal/session/inmemory"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	doc := "# Section 80C\n\nLife insurance premiums, PPF and ELSS investments qualify for deduction up to 1.5 lakh."
	if err := os.WriteFile(filepath.Join(dir, "80c.md"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.KnowledgeDir = dir
	cfg.IndexPath = ""
	return &cfg
}

func TestNew_Defaults(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, ok := a.Store.(*inmemory.Store); !ok {
		t.Errorf("Store = %T, want *inmemory.Store", a.Store)
	}
	if a.Chain.HasProviders() {
		t.Errorf("Providers() = %v, want none", a.Chain.Providers())
	}
	if got := a.Upload.Steps(); len(got) != 2 {
		t.Errorf("Steps() = %v, want parse and persist only", got)
	}

	n, err := a.BuildIndex(context.Background())
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	if n == 0 || a.Index.Len() != n {
		t.Errorf("BuildIndex() = %d, Len() = %d", n, a.Index.Len())
	}
}

func TestNew_BoltStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = config.StoreBolt
	cfg.BoltPath = filepath.Join(t.TempDir(), "sessions.db")

	a, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, ok := a.Store.(*boltdb.Store); !ok {
		t.Errorf("Store = %T, want *boltdb.Store", a.Store)
	}
}

func TestNew_BadClassifierRules(t *testing.T) {
	cfg := testConfig(t)
	cfg.ClassifierRules = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Error("New() error = nil, want error for missing rules file")
	}
}

func TestApp_UploadThenChat(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	if _, err := a.BuildIndex(ctx); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	csv := "Date,Description,Amount\n01/04/2024,Salary credit,50000\n05/04/2024,LIC premium,-12000\n"
	state := &pipeline.PipelineState{SessionID: "s1", Filename: "stmt.csv", Raw: []byte(csv)}
	if err := a.Upload.Run(ctx, state); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if state.SessionID == "s1" {
		t.Errorf("Run() kept unknown session id %q, want a new one", state.SessionID)
	}

	resp, err := a.Chat.Chat(ctx, chat.Request{SessionID: state.SessionID, Message: "What is my income?"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.SessionID != state.SessionID || strings.TrimSpace(resp.Reply) == "" {
		t.Errorf("Chat() = %+v, want session %s", resp, state.SessionID)
	}
	if _, err := a.Store.GetSummary(ctx, resp.SessionID); err != nil {
		t.Errorf("GetSummary(%s) error = %v", resp.SessionID, err)
	}
}

func TestApp_RebuildIndexHandler(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	job := &jobs.RebuildIndexJob{JobID: "j1"}
	if err := a.RebuildIndexHandler(context.Background(), job); err != nil {
		t.Fatalf("RebuildIndexHandler() error = %v", err)
	}
	if job.Chunks == 0 || job.Chunks != a.Index.Len() {
		t.Errorf("job.Chunks = %d, Len() = %d", job.Chunks, a.Index.Len())
	}
}
