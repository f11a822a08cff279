// Package statement turns bank-statement CSV exports into classified
// transactions and per-statement totals.
package statement

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dvloznov/taxease/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Classifier labels a single transaction.
type Classifier interface {
	Classify(description string, amount float64) domain.Category
}

var (
	dateHints        = []string{"date"}
	descriptionHints = []string{"desc", "narr", "description", "details"}
	amountHints      = []string{"amount", "amt", "credit", "debit"}
)

// Columns holds the inferred column positions. -1 means the column is absent.
type Columns struct {
	Date        int
	Description int
	Amount      int
}

// Parser summarizes CSV statements.
type Parser struct {
	classifier Classifier
	log        zerolog.Logger
}

// NewParser creates a parser that labels rows with classifier.
func NewParser(classifier Classifier, log zerolog.Logger) *Parser {
	return &Parser{classifier: classifier, log: log}
}

// Parse reads a CSV statement with a header row and returns its summary.
// Any failure to locate or read the amount column fails the whole parse with
// a *ParseError; no partial summary is returned.
func (p *Parser) Parse(r io.Reader) (*domain.Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Parse: reading input: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes is Parse on an in-memory statement.
func (p *Parser) ParseBytes(data []byte) (*domain.Summary, error) {
	text, err := decode(data)
	if err != nil {
		return nil, &ParseError{Reason: "could not decode input", Err: err}
	}

	header, rows, lines, err := readRecords(text)
	if err != nil {
		return nil, err
	}

	cols, err := InferColumns(header, rows)
	if err != nil {
		return nil, err
	}

	p.log.Debug().
		Str("date_col", columnName(header, cols.Date)).
		Str("desc_col", columnName(header, cols.Description)).
		Str("amount_col", columnName(header, cols.Amount)).
		Int("rows", len(rows)).
		Msg("Inferred statement columns")

	income := decimal.Zero
	expenses := decimal.Zero
	deductions := decimal.Zero
	txns := make([]domain.Transaction, 0, len(rows))

	for i, row := range rows {
		raw := cell(row, cols.Amount)
		amount, err := parseAmount(raw)
		if err != nil {
			return nil, &ParseError{
				Row:    i + 1,
				Line:   lines[i],
				Column: header[cols.Amount],
				Value:  raw,
				Reason: "amount is not numeric",
			}
		}

		desc := cell(row, cols.Description)
		category := p.classifier.Classify(desc, amount)

		d := decimal.NewFromFloat(amount)
		switch category {
		case domain.CategoryIncome:
			income = income.Add(d)
		case domain.CategoryDeductible:
			deductions = deductions.Add(d.Abs())
			expenses = expenses.Add(d.Abs())
		default:
			expenses = expenses.Add(d.Abs())
		}

		txn := domain.Transaction{
			Description: desc,
			Amount:      amount,
			Category:    category,
		}
		if date := cell(row, cols.Date); date != "" {
			txn.Date = &date
		}
		txns = append(txns, txn)
	}

	return &domain.Summary{
		TotalIncome:         income.InexactFloat64(),
		TotalExpenses:       expenses.InexactFloat64(),
		PotentialDeductions: deductions.InexactFloat64(),
		Transactions:        txns,
	}, nil
}

// InferColumns locates the date, description and amount columns from a
// header. Matching is case-insensitive and the last matching header wins.
// Without an amount-like header the first column whose every value is numeric
// is used.
func InferColumns(header []string, rows [][]string) (Columns, error) {
	cols := Columns{Date: -1, Description: -1, Amount: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if containsAny(name, dateHints) {
			cols.Date = i
		}
		if containsAny(name, descriptionHints) {
			cols.Description = i
		}
		if containsAny(name, amountHints) {
			cols.Amount = i
		}
	}

	if cols.Amount < 0 {
		cols.Amount = firstNumericColumn(len(header), rows)
	}
	if cols.Amount < 0 {
		return cols, &ParseError{Reason: "could not find amount column in CSV"}
	}
	return cols, nil
}

func readRecords(text []byte) ([]string, [][]string, []int, error) {
	cr := csv.NewReader(bytes.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil, &ParseError{Reason: "input has no header row"}
	}
	if err != nil {
		return nil, nil, nil, &ParseError{Reason: "malformed CSV header", Err: err}
	}

	var rows [][]string
	var lines []int
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, nil, &ParseError{Row: len(rows) + 1, Reason: "malformed CSV row", Err: err}
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, rec)
		lines = append(lines, line)
	}
	return header, rows, lines, nil
}

func firstNumericColumn(width int, rows [][]string) int {
	if len(rows) == 0 {
		return -1
	}
	for col := 0; col < width; col++ {
		numeric := true
		for _, row := range rows {
			if _, err := parseAmount(cell(row, col)); err != nil {
				numeric = false
				break
			}
		}
		if numeric {
			return col
		}
	}
	return -1
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite amount %q", s)
	}
	return v, nil
}

// cell returns the trimmed value at idx, or "" when the column is absent or
// the row is short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func columnName(header []string, idx int) string {
	if idx < 0 {
		return ""
	}
	return header[idx]
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}
