// Package rag implements retrieval over the tax-knowledge corpus: paragraph
// chunking, an embedding index with nearest-neighbor queries, and formatting
// of retrieved chunks into prompt context.
package rag

// Document is one corpus file, read wholesale.
type Document struct {
	Name string
	Text string
}

// Chunk is an embedded slice of a Document. ID is "{document}_{sequence}".
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Sequence  int       `json:"sequence"`
	Embedding []float64 `json:"embedding"`
}

// Result is a chunk with its cosine distance to the query.
type Result struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}
