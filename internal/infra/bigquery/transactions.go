// Package bigquery exports classified statement transactions to a BigQuery
// table for analysis outside the chat assistant.
package bigquery

import (
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/taxease/internal/domain"
)

// TransactionRow is one row of <dataset>.transactions.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	SessionID     string `bigquery:"session_id"`     // REQUIRED
	UploadID      string `bigquery:"upload_id"`      // REQUIRED

	TransactionDate bigquery.NullDate   `bigquery:"transaction_date"` // NULLABLE, parsed from RawDate
	RawDate         bigquery.NullString `bigquery:"raw_date"`         // NULLABLE, as found in the file

	Amount         *big.Rat `bigquery:"amount"`          // REQUIRED NUMERIC
	RawDescription string   `bigquery:"raw_description"` // REQUIRED STRING
	Category       string   `bigquery:"category"`        // REQUIRED income|expense|deductible

	TaxSection      bigquery.NullString `bigquery:"tax_section"`       // NULLABLE, e.g. 80C
	StatementLineNo bigquery.NullInt64  `bigquery:"statement_line_no"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// SectionFunc names the tax section a deductible description falls under,
// or returns "" when none applies.
type SectionFunc func(description string) string

// dateLayouts are tried in order. Day-first is preferred over month-first.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"01/02/2006",
	"02 Jan 2006",
	"2 Jan 2006",
}

// ParseStatementDate parses the common bank date formats into a civil date.
func ParseStatementDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// NewTransactionRows converts a parsed summary into export rows that share
// the same upload id. section may be nil.
func NewTransactionRows(sessionID, uploadID string, txs []domain.Transaction, section SectionFunc, now time.Time) []*TransactionRow {
	rows := make([]*TransactionRow, 0, len(txs))
	for i, tx := range txs {
		row := &TransactionRow{
			TransactionID:   uuid.New().String(),
			SessionID:       sessionID,
			UploadID:        uploadID,
			Amount:          decimal.NewFromFloat(tx.Amount).Rat(),
			RawDescription:  tx.Description,
			Category:        string(tx.Category),
			StatementLineNo: bigquery.NullInt64{Int64: int64(i + 1), Valid: true},
			CreatedTS:       now,
		}
		if tx.Date != nil {
			row.RawDate = bigquery.NullString{StringVal: *tx.Date, Valid: true}
			if d, ok := ParseStatementDate(*tx.Date); ok {
				row.TransactionDate = bigquery.NullDate{Date: d, Valid: true}
			}
		}
		if section != nil && tx.Category == domain.CategoryDeductible {
			if s := section(tx.Description); s != "" {
				row.TaxSection = bigquery.NullString{StringVal: s, Valid: true}
			}
		}
		rows = append(rows, row)
	}
	return rows
}
