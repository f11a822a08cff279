package rag

import (
	"fmt"
	"strings"
)

// NoContext is returned by Assemble when nothing was retrieved.
const NoContext = "No relevant information found in knowledge base."

// Assemble formats results, in the order given, into a context block that
// names the source document of every chunk.
func Assemble(results []Result) string {
	if len(results) == 0 {
		return NoContext
	}

	var b strings.Builder
	b.WriteString("Relevant Tax Information:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", i+1, r.Chunk.Source, r.Chunk.Text)
	}
	return strings.TrimSpace(b.String())
}
