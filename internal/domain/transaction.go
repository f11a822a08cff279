package domain

// Category is the label KeywordClassifier assigns to a transaction.
type Category string

const (
	CategoryIncome     Category = "income"
	CategoryExpense    Category = "expense"
	CategoryDeductible Category = "deductible"
)

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryIncome, CategoryExpense, CategoryDeductible:
		return true
	}
	return false
}

// Transaction is one classified row of an uploaded statement.
// Amount keeps the sign from the source file (credits positive, debits negative).
type Transaction struct {
	Date        *string  `json:"date"`        // nil when the statement has no date column
	Description string   `json:"description"` // empty when the statement has no description column
	Amount      float64  `json:"amount"`
	Category    Category `json:"category"`
}

// Summary holds the aggregates of one statement upload.
// TotalExpenses includes PotentialDeductions, so TotalExpenses >= PotentialDeductions >= 0.
type Summary struct {
	TotalIncome         float64       `json:"total_income"`
	TotalExpenses       float64       `json:"total_expenses"`
	PotentialDeductions float64       `json:"potential_deductions"`
	Transactions        []Transaction `json:"transactions"`
}
