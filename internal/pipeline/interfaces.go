package pipeline

import (
	"context"

	"github.com/dvloznov/taxease/internal/domain"
)

// StatementParser turns raw CSV bytes into a classified summary.
type StatementParser interface {
	ParseBytes(data []byte) (*domain.Summary, error)
}

// SummaryStore is the part of session.Store the upload flow writes to.
type SummaryStore interface {
	EnsureSession(ctx context.Context, id string) (domain.Session, error)
	PutSummary(ctx context.Context, sessionID string, summary *domain.Summary) error
}

// Archiver keeps the raw uploaded file.
type Archiver interface {
	ArchiveStatement(ctx context.Context, sessionID, filename string, data []byte) (string, error)
}

// Exporter copies classified transactions to an analytics store.
type Exporter interface {
	ExportTransactions(ctx context.Context, sessionID string, txs []domain.Transaction) (string, error)
}
