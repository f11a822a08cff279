package rag

import (
	"strings"
	"unicode/utf8"
)

// ChunkText splits text on blank lines and greedily packs paragraphs into
// chunks shorter than targetSize characters. A paragraph that would make the
// running chunk reach targetSize starts a new chunk; a single paragraph longer
// than targetSize is kept whole.
//
// overlap is accepted for configuration compatibility and currently has no
// effect: chunks never share text.
func ChunkText(text string, targetSize, overlap int) []string {
	if targetSize <= 0 {
		return nil
	}
	_ = overlap

	var chunks []string
	var buf strings.Builder
	size := 0

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			chunks = append(chunks, s)
		}
		buf.Reset()
		size = 0
	}

	for _, para := range strings.Split(text, "\n\n") {
		n := utf8.RuneCountInString(para)
		if size+n >= targetSize {
			flush()
		}
		buf.WriteString(para)
		buf.WriteString("\n\n")
		size += n + 2
	}
	flush()

	return chunks
}
