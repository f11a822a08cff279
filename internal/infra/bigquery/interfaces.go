package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/dvloznov/taxease/internal/domain"
)

// TransactionArchive stores classified transactions per upload.
type TransactionArchive interface {
	// ExportTransactions writes txs as one upload of sessionID and returns
	// the upload id.
	ExportTransactions(ctx context.Context, sessionID string, txs []domain.Transaction) (string, error)

	// ListSessionTransactions returns every row exported for sessionID.
	ListSessionTransactions(ctx context.Context, sessionID string) ([]*TransactionRow, error)
}

// BigQueryTransactionRepository is the TransactionArchive backed by BigQuery.
// It holds one client for the lifetime of the process.
type BigQueryTransactionRepository struct {
	client  *bigquery.Client
	dataset string
	section SectionFunc
}

// NewBigQueryTransactionRepository connects to projectID. credentialsFile is
// optional; Application Default Credentials are used without it.
func NewBigQueryTransactionRepository(ctx context.Context, projectID, dataset, credentialsFile string, section SectionFunc) (*BigQueryTransactionRepository, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryTransactionRepository: creating client: %w", err)
	}
	return &BigQueryTransactionRepository{client: client, dataset: dataset, section: section}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryTransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ExportTransactions converts and inserts txs under a fresh upload id.
func (r *BigQueryTransactionRepository) ExportTransactions(ctx context.Context, sessionID string, txs []domain.Transaction) (string, error) {
	uploadID := uuid.New().String()
	rows := NewTransactionRows(sessionID, uploadID, txs, r.section, time.Now().UTC())
	if err := InsertTransactionsWithClient(ctx, r.client, r.dataset, rows); err != nil {
		return "", err
	}
	return uploadID, nil
}

// ListSessionTransactions delegates to QueryTransactionsBySessionWithClient.
func (r *BigQueryTransactionRepository) ListSessionTransactions(ctx context.Context, sessionID string) ([]*TransactionRow, error) {
	return QueryTransactionsBySessionWithClient(ctx, r.client, r.dataset, sessionID)
}

// EnsureTable delegates to EnsureTableWithClient.
func (r *BigQueryTransactionRepository) EnsureTable(ctx context.Context) (bool, error) {
	return EnsureTableWithClient(ctx, r.client, r.dataset)
}

var _ TransactionArchive = (*BigQueryTransactionRepository)(nil)
