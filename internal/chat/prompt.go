package chat

import (
	"encoding/json"
	"fmt"

	"github.com/dvloznov/taxease/internal/domain"
)

// SystemPrompt frames every model call.
const SystemPrompt = "You are TaxEase, a helpful tax assistant. Use the uploaded statement summary to answer user questions. Be concise and indicate potential deductions when relevant."

// NoSummary stands in for the summary when the session has no upload.
const NoSummary = "No uploaded data available."

// BuildPrompt combines retrieved knowledge, the session summary and the
// user question.
func BuildPrompt(knowledge string, summary *domain.Summary, question string) string {
	summaryText := NoSummary
	if summary != nil {
		if b, err := json.Marshal(summary); err == nil {
			summaryText = string(b)
		}
	}
	return fmt.Sprintf("%s\n\nSession summary: %s\n\nUser question: %s\n\nAnswer based only on the data and common tax rules. If unsure, say you don't know and suggest helpful next steps.",
		knowledge, summaryText, question)
}
