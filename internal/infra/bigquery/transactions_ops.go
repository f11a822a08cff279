package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

const (
	transactionsTable = "transactions"
	insertBatchSize   = 500
)

// InsertTransactionsWithClient streams rows into <dataset>.transactions in
// batches.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset string, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	inserter := client.Dataset(dataset).Table(transactionsTable).Inserter()
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if err := inserter.Put(ctx, rows[start:end]); err != nil {
			return fmt.Errorf("InsertTransactions: inserting rows %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// QueryTransactionsBySessionWithClient returns every exported row of a
// session in upload and statement order.
func QueryTransactionsBySessionWithClient(ctx context.Context, client *bigquery.Client, dataset, sessionID string) ([]*TransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			session_id,
			upload_id,
			transaction_date,
			raw_date,
			amount,
			raw_description,
			category,
			tax_section,
			statement_line_no,
			created_ts
		FROM `+"`%s.%s`"+`
		WHERE session_id = @session_id
		ORDER BY created_ts, upload_id, statement_line_no
	`, dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "session_id", Value: sessionID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsBySession: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsBySession: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}

// EnsureTableWithClient creates the dataset and the transactions table when
// they do not exist. The schema is inferred from TransactionRow.
func EnsureTableWithClient(ctx context.Context, client *bigquery.Client, dataset string) (created bool, err error) {
	ds := client.Dataset(dataset)
	if _, err := ds.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return false, fmt.Errorf("EnsureTable: reading dataset %s: %w", dataset, err)
		}
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
			return false, fmt.Errorf("EnsureTable: creating dataset %s: %w", dataset, err)
		}
	}

	table := ds.Table(transactionsTable)
	if _, err := table.Metadata(ctx); err == nil {
		return false, nil
	} else if !isNotFound(err) {
		return false, fmt.Errorf("EnsureTable: reading table: %w", err)
	}

	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return false, fmt.Errorf("EnsureTable: inferring schema: %w", err)
	}
	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "created_ts",
		},
		Clustering: &bigquery.Clustering{Fields: []string{"session_id"}},
	}
	if err := table.Create(ctx, meta); err != nil {
		return false, fmt.Errorf("EnsureTable: creating table: %w", err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
