package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/taxease/internal/domain"
	infraBQ "github.com/dvloznov/taxease/internal/infra/bigquery"
)

// sessionTransactionLister is the read side of the BigQuery export.
type sessionTransactionLister interface {
	ListSessionTransactions(ctx context.Context, sessionID string) ([]*infraBQ.TransactionRow, error)
}

func newExportedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exported <session-id>",
		Short: "List the transactions exported to BigQuery for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.ExportEnabled() {
				return errors.New("BQ_PROJECT is not set, transaction export is disabled")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			repo, err := infraBQ.NewBigQueryTransactionRepository(ctx, cfg.BQProject, cfg.BQDataset, cfg.GoogleCredentialsFile, nil)
			if err != nil {
				return err
			}
			defer repo.Close()

			return listExported(ctx, repo, args[0], cmd.OutOrStdout())
		},
	}
}

// listExported prints the exported rows of sessionID grouped by upload.
func listExported(ctx context.Context, lister sessionTransactionLister, sessionID string, w io.Writer) error {
	rows, err := lister.ListSessionTransactions(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("listExported: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintf(w, "No exported transactions for session %s\n", sessionID)
		return nil
	}

	upload := ""
	uploads := 0
	for _, r := range rows {
		if r.UploadID != upload {
			upload = r.UploadID
			uploads++
			headerColor.Fprintf(w, " upload %s (%s) ", r.UploadID, r.CreatedTS.Format(time.RFC3339))
			fmt.Fprintln(w)
		}

		date := "-"
		if r.TransactionDate.Valid {
			date = r.TransactionDate.Date.String()
		} else if r.RawDate.Valid {
			date = r.RawDate.StringVal
		}
		amount := "0.00"
		if r.Amount != nil {
			amount = r.Amount.FloatString(2)
		}
		section := ""
		if r.TaxSection.Valid {
			section = " [" + r.TaxSection.StringVal + "]"
		}

		categoryColor(domain.Category(r.Category)).Fprintf(w, "%-10s", r.Category)
		fmt.Fprintf(w, " %-12s %12s  %s%s\n", date, amount, r.RawDescription, section)
	}
	fmt.Fprintf(w, "\n%d transactions in %d uploads\n", len(rows), uploads)
	return nil
}
