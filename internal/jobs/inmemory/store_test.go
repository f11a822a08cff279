package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/taxease/internal/jobs"
)

func TestStore_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.SaveJob(ctx, &jobs.RebuildIndexJob{}); err == nil {
		t.Error("SaveJob() with empty id should fail")
	}

	job := &jobs.RebuildIndexJob{JobID: "job-1", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}
	job.Status = jobs.JobStatusFailed

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != jobs.JobStatusPending {
		t.Errorf("stored job shares memory with caller: status %s", got.Status)
	}

	if _, err := store.GetJob(ctx, "missing"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("GetJob() error = %v, want ErrJobNotFound", err)
	}
}

func TestStore_ListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, status := range []jobs.JobStatus{jobs.JobStatusCompleted, jobs.JobStatusFailed, jobs.JobStatusCompleted} {
		_ = store.SaveJob(ctx, &jobs.RebuildIndexJob{
			JobID:     string(rune('a' + i)),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"c", "b", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusCompleted}, []string{"c", "a"}},
		{"limit", jobs.JobFilter{Limit: 1}, []string{"c"}},
		{"offset", jobs.JobFilter{Offset: 2}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 5}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListJobs() returned %d jobs, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].JobID != id {
					t.Errorf("ListJobs()[%d] = %s, want %s", i, got[i].JobID, id)
				}
			}
		})
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	if !jobs.JobStatusCompleted.Terminal() || !jobs.JobStatusFailed.Terminal() {
		t.Error("completed and failed must be terminal")
	}
	if jobs.JobStatusRetrying.Terminal() {
		t.Error("retrying must not be terminal")
	}
}
