package main

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/fatih/color"

	infraBQ "github.com/dvloznov/taxease/internal/infra/bigquery"
)

type mockLister struct {
	ListFunc func(ctx context.Context, sessionID string) ([]*infraBQ.TransactionRow, error)
}

func (m *mockLister) ListSessionTransactions(ctx context.Context, sessionID string) ([]*infraBQ.TransactionRow, error) {
	return m.ListFunc(ctx, sessionID)
}

func TestListExported(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	created := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	rows := []*infraBQ.TransactionRow{
		{
			SessionID:       "s1",
			UploadID:        "u1",
			TransactionDate: bigquery.NullDate{Date: civil.Date{Year: 2025, Month: 4, Day: 1}, Valid: true},
			Amount:          big.NewRat(5000, 1),
			RawDescription:  "Salary credit",
			Category:        "income",
			CreatedTS:       created,
		},
		{
			SessionID:      "s1",
			UploadID:       "u2",
			RawDate:        bigquery.NullString{StringVal: "31/13/2025", Valid: true},
			Amount:         big.NewRat(-2000, 1),
			RawDescription: "LIC premium",
			Category:       "deductible",
			TaxSection:     bigquery.NullString{StringVal: "80C", Valid: true},
			CreatedTS:      created,
		},
	}

	tests := []struct {
		name    string
		rows    []*infraBQ.TransactionRow
		err     error
		want    []string
		wantErr bool
	}{
		{
			name: "rows grouped by upload",
			rows: rows,
			want: []string{"upload u1", "upload u2", "2025-04-01", "5000.00", "31/13/2025", "-2000.00", "LIC premium [80C]", "2 transactions in 2 uploads"},
		},
		{
			name: "no rows",
			want: []string{"No exported transactions for session s1"},
		},
		{
			name:    "query failure",
			err:     errors.New("bigquery unavailable"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSession string
			lister := &mockLister{ListFunc: func(ctx context.Context, sessionID string) ([]*infraBQ.TransactionRow, error) {
				gotSession = sessionID
				return tt.rows, tt.err
			}}

			var buf bytes.Buffer
			err := listExported(context.Background(), lister, "s1", &buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("listExported() error = %v, wantErr %v", err, tt.wantErr)
			}
			if gotSession != "s1" {
				t.Errorf("session = %q, want s1", gotSession)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}
