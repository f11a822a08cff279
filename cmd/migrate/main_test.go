package main

import (
	"strings"
	"testing"

	"github.com/dvloznov/taxease/internal/session/postgres"
)

func TestPlan(t *testing.T) {
	migrations := []postgres.Migration{
		{Version: 1, Name: "create_sessions", Filename: "0001_create_sessions.sql", Checksum: "aaa"},
		{Version: 2, Name: "create_messages", Filename: "0002_create_messages.sql", Checksum: "bbb"},
	}

	tests := []struct {
		name      string
		applied   map[int]string
		wantLines []string
		wantErr   bool
	}{
		{
			name:      "fresh database",
			applied:   map[int]string{},
			wantLines: []string{"[RUN]  0001_create_sessions", "[RUN]  0002_create_messages"},
		},
		{
			name:      "partially applied",
			applied:   map[int]string{1: "aaa"},
			wantLines: []string{"[SKIP] 0001_create_sessions", "[RUN]  0002_create_messages"},
		},
		{
			name:      "modified after apply",
			applied:   map[int]string{1: "zzz", 2: "bbb"},
			wantLines: []string{"[DIFF] 0001_create_sessions", "[SKIP] 0002_create_messages"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := plan(migrations, tt.applied)
			if (err != nil) != tt.wantErr {
				t.Fatalf("plan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(lines) != len(tt.wantLines) {
				t.Fatalf("plan() = %v", lines)
			}
			for i, want := range tt.wantLines {
				if !strings.Contains(lines[i], want) {
					t.Errorf("line %d = %q, want it to contain %q", i, lines[i], want)
				}
			}
		})
	}
}

func TestEmbeddedMigrationsPlan(t *testing.T) {
	migrations, err := postgres.Migrations()
	if err != nil {
		t.Fatalf("Migrations() error = %v", err)
	}
	lines, err := plan(migrations, nil)
	if err != nil {
		t.Fatalf("plan() error = %v", err)
	}
	if len(lines) != len(migrations) || len(lines) == 0 {
		t.Errorf("plan() = %v", lines)
	}
}
