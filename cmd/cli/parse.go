package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/dvloznov/taxease/internal/app"
	"github.com/dvloznov/taxease/internal/domain"
	"github.com/dvloznov/taxease/internal/statement"
)

var (
	errColor    = color.New(color.FgRed, color.Bold)
	incomeColor = color.New(color.FgGreen)
	expenseRed  = color.New(color.FgRed)
	deductColor = color.New(color.FgCyan)
	headerColor = color.New(color.BgBlue, color.FgWhite)
)

func newParseCmd() *cobra.Command {
	var (
		asJSON bool
		dump   bool
	)
	cmd := &cobra.Command{
		Use:   "parse <file.csv>",
		Short: "Parse a bank statement and print its totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.EqualFold(filepath.Ext(args[0]), ".csv") {
				return fmt.Errorf("only CSV files are supported: %s", args[0])
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cls, err := app.NewClassifier(cfg)
			if err != nil {
				return err
			}
			summary, err := statement.NewParser(cls, log).ParseBytes(data)
			if err != nil {
				return fmt.Errorf("failed to parse CSV: %w", err)
			}

			switch {
			case dump:
				pp.Println(summary)
			case asJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			default:
				renderSummary(cmd.OutOrStdout(), filepath.Base(args[0]), summary)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().BoolVar(&dump, "dump", false, "pretty-print the parsed summary structure")
	return cmd
}

// renderSummary writes one line per transaction followed by the totals.
func renderSummary(w io.Writer, name string, s *domain.Summary) {
	headerColor.Fprintf(w, " %s: %d transactions ", name, len(s.Transactions))
	fmt.Fprintln(w)

	for _, tx := range s.Transactions {
		date := "-"
		if tx.Date != nil {
			date = *tx.Date
		}
		categoryColor(tx.Category).Fprintf(w, "%-10s", tx.Category)
		fmt.Fprintf(w, " %-12s %12.2f  %s\n", date, tx.Amount, tx.Description)
	}

	fmt.Fprintln(w)
	incomeColor.Fprintf(w, "Total income:         %12.2f\n", s.TotalIncome)
	expenseRed.Fprintf(w, "Total expenses:       %12.2f\n", s.TotalExpenses)
	deductColor.Fprintf(w, "Potential deductions: %12.2f\n", s.PotentialDeductions)
}

func categoryColor(c domain.Category) *color.Color {
	switch c {
	case domain.CategoryIncome:
		return incomeColor
	case domain.CategoryDeductible:
		return deductColor
	default:
		return expenseRed
	}
}
