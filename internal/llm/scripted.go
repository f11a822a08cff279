package llm

import (
	"fmt"
	"strings"

	"github.com/dvloznov/taxease/internal/domain"
)

// ScriptedFunc produces a canned reply when no real provider answered.
type ScriptedFunc func(prompt string, summary *domain.Summary) string

// ScriptedReply answers from the statement totals by matching a few keywords
// in the question.
func ScriptedReply(prompt string, summary *domain.Summary) string {
	q := strings.ToLower(prompt)
	if summary == nil {
		return "I don't have any statement data for this session yet. Upload a bank statement CSV and ask again."
	}

	switch {
	case strings.Contains(q, "deduct") || strings.Contains(q, "tax") || strings.Contains(q, "save"):
		n := 0
		for _, t := range summary.Transactions {
			if t.Category == domain.CategoryDeductible {
				n++
			}
		}
		return fmt.Sprintf("I found %d potentially deductible transaction(s) totalling %.2f. Check eligibility under the relevant sections (80C, 80D, 80G, 80E, 24) before claiming.", n, summary.PotentialDeductions)
	case strings.Contains(q, "income") || strings.Contains(q, "earn") || strings.Contains(q, "salary"):
		return fmt.Sprintf("Your total income in the uploaded statement is %.2f.", summary.TotalIncome)
	case strings.Contains(q, "expense") || strings.Contains(q, "spend") || strings.Contains(q, "spent"):
		return fmt.Sprintf("Your total expenses are %.2f, of which %.2f may be deductible.", summary.TotalExpenses, summary.PotentialDeductions)
	default:
		return fmt.Sprintf("Your statement shows income of %.2f, expenses of %.2f and potential deductions of %.2f. Ask about income, expenses or deductions for details.", summary.TotalIncome, summary.TotalExpenses, summary.PotentialDeductions)
	}
}
