// Package classifier assigns income, expense or deductible labels to
// statement transactions by keyword matching on the description.
package classifier

import (
	"strings"

	"github.com/dvloznov/taxease/internal/domain"
)

// Rule maps a set of keywords to a category. Keywords are matched as
// lower-case substrings of the description.
type Rule struct {
	Category domain.Category
	Keywords []string
}

// Section is a named group of deductible keywords (e.g. "80D" for medical).
type Section struct {
	Name     string
	Keywords []string
}

// Classifier evaluates its rules in order; the first rule with a matching
// keyword wins. Descriptions matching no rule fall back on the amount sign.
type Classifier struct {
	rules    []Rule
	sections []Section
}

// evaluationOrder is the fixed priority of the categories. A description such
// as "hospital payment" matches both deductible and expense keywords and must
// resolve to deductible.
var evaluationOrder = []domain.Category{
	domain.CategoryIncome,
	domain.CategoryDeductible,
	domain.CategoryExpense,
}

var incomeKeywords = []string{
	"salary", "payroll", "income", "credit", "bonus", "incentive",
	"freelance", "consulting", "interest", "dividend", "capital gain",
	"professional fees", "commission", "rental income", "business income",
}

var expenseKeywords = []string{
	"rent", "grocery", "groceries", "swiggy", "zomato", "uber", "ola",
	"dining", "restaurant", "shopping", "flipkart", "amazon", "myntra",
	"transfer", "payment", "bill", "electricity", "water", "gas", "phone",
	"mobile", "internet", "broadband", "recharge", "fuel", "petrol", "diesel",
	"maintenance", "repair",
}

// DefaultSections lists the deductible keyword groups by tax section.
var DefaultSections = []Section{
	{Name: "80D", Keywords: []string{"medical", "doctor", "hospital", "pharmacy", "apollo", "fortis", "health insurance", "mediclaim", "star health"}},
	{Name: "80C", Keywords: []string{"lic", "life insurance", "sbi life", "hdfc life", "icici prudential"}},
	{Name: "80C", Keywords: []string{"ppf", "epf", "pf", "provident fund", "elss", "mutual fund", "nsc", "national savings", "tax saver", "sukanya samriddhi"}},
	{Name: "80G", Keywords: []string{"charity", "donation", "charitable", "ngo", "relief fund", "pm cares", "national defence fund"}},
	{Name: "80E", Keywords: []string{"tuition", "school fees", "college fees", "education loan"}},
	{Name: "24", Keywords: []string{"home loan", "housing loan", "mortgage interest", "hdfc home", "sbi home loan", "icici home loan"}},
	{Name: "80CCD", Keywords: []string{"nps", "national pension", "pension scheme"}},
}

// DefaultRules returns the built-in rule list in evaluation order.
func DefaultRules() []Rule {
	var deductible []string
	for _, s := range DefaultSections {
		deductible = append(deductible, s.Keywords...)
	}
	return []Rule{
		{Category: domain.CategoryIncome, Keywords: append([]string(nil), incomeKeywords...)},
		{Category: domain.CategoryDeductible, Keywords: deductible},
		{Category: domain.CategoryExpense, Keywords: append([]string(nil), expenseKeywords...)},
	}
}

// New creates a classifier using the built-in rules.
func New() *Classifier {
	return NewWithRules(DefaultRules())
}

// NewWithRules creates a classifier from rules. Rules are sorted into the
// fixed income, deductible, expense order; rules with an unknown category are
// ignored. Keywords are lower-cased.
func NewWithRules(rules []Rule) *Classifier {
	ordered := make([]Rule, 0, len(rules))
	for _, cat := range evaluationOrder {
		for _, r := range rules {
			if r.Category != cat {
				continue
			}
			kws := make([]string, 0, len(r.Keywords))
			for _, kw := range r.Keywords {
				kw = strings.ToLower(strings.TrimSpace(kw))
				if kw != "" {
					kws = append(kws, kw)
				}
			}
			ordered = append(ordered, Rule{Category: cat, Keywords: kws})
		}
	}
	return &Classifier{rules: ordered, sections: DefaultSections}
}

// Rules returns a copy of the rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Classify returns the category for a description and signed amount.
func (c *Classifier) Classify(description string, amount float64) domain.Category {
	cat, _ := c.Explain(description, amount)
	return cat
}

// Explain is Classify that also returns the keyword that decided the
// category. The keyword is empty when the sign fallback was used.
func (c *Classifier) Explain(description string, amount float64) (domain.Category, string) {
	desc := strings.ToLower(description)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(desc, kw) {
				return r.Category, kw
			}
		}
	}
	if amount > 0 {
		return domain.CategoryIncome, ""
	}
	return domain.CategoryExpense, ""
}

// Section returns the tax section of the first deductible keyword group
// matching description, or "" when none matches.
func (c *Classifier) Section(description string) string {
	desc := strings.ToLower(description)
	for _, s := range c.sections {
		for _, kw := range s.Keywords {
			if strings.Contains(desc, kw) {
				return s.Name
			}
		}
	}
	return ""
}
