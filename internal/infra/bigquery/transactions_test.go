package bigquery

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/taxease/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestParseStatementDate(t *testing.T) {
	tests := []struct {
		in     string
		want   civil.Date
		wantOK bool
	}{
		{"2025-04-01", civil.Date{Year: 2025, Month: 4, Day: 1}, true},
		{"15/06/2025", civil.Date{Year: 2025, Month: 6, Day: 15}, true},
		{"05/06/2025", civil.Date{Year: 2025, Month: 6, Day: 5}, true},
		{"06/15/2025", civil.Date{Year: 2025, Month: 6, Day: 15}, true},
		{"3 Mar 2025", civil.Date{Year: 2025, Month: 3, Day: 3}, true},
		{" ", civil.Date{}, false},
		{"yesterday", civil.Date{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStatementDate(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseStatementDate(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNewTransactionRows(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	txs := []domain.Transaction{
		{Date: strPtr("2025-04-01"), Description: "Salary", Amount: 5000, Category: domain.CategoryIncome},
		{Date: strPtr("someday"), Description: "LIC premium", Amount: 45.10, Category: domain.CategoryDeductible},
		{Description: "Coffee", Amount: 3.5, Category: domain.CategoryExpense},
	}
	section := func(desc string) string {
		if desc == "LIC premium" {
			return "80C"
		}
		return ""
	}

	rows := NewTransactionRows("sess", "upl", txs, section, now)
	if len(rows) != 3 {
		t.Fatalf("NewTransactionRows() returned %d rows, want 3", len(rows))
	}

	seen := map[string]bool{}
	for i, r := range rows {
		if r.SessionID != "sess" || r.UploadID != "upl" || !r.CreatedTS.Equal(now) {
			t.Errorf("row %d has wrong ids or timestamp: %+v", i, r)
		}
		if r.StatementLineNo.Int64 != int64(i+1) {
			t.Errorf("row %d line = %d", i, r.StatementLineNo.Int64)
		}
		if seen[r.TransactionID] {
			t.Errorf("duplicate transaction id %s", r.TransactionID)
		}
		seen[r.TransactionID] = true
	}

	if !rows[0].TransactionDate.Valid || rows[0].TransactionDate.Date != (civil.Date{Year: 2025, Month: 4, Day: 1}) {
		t.Errorf("row 0 date = %+v", rows[0].TransactionDate)
	}
	if rows[0].TaxSection.Valid {
		t.Error("income row should have no tax section")
	}

	if rows[1].TransactionDate.Valid || rows[1].RawDate.StringVal != "someday" {
		t.Errorf("row 1 should keep unparsable raw date: %+v %+v", rows[1].TransactionDate, rows[1].RawDate)
	}
	if rows[1].TaxSection.StringVal != "80C" {
		t.Errorf("row 1 section = %+v", rows[1].TaxSection)
	}
	if got := rows[1].Amount.FloatString(2); got != "45.10" {
		t.Errorf("row 1 amount = %s, want 45.10", got)
	}

	if rows[2].RawDate.Valid || rows[2].TransactionDate.Valid {
		t.Error("row without a date should have null date columns")
	}
}
