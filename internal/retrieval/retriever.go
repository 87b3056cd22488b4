// Package retrieval provides the knowledge-base interface the auditor uses
// to ground prompts, plus a Redis-backed implementation.
package retrieval

import "context"

// Passage is a reference text snippet with its similarity to the query,
// where 1.0 is an exact match.
type Passage struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// Retriever returns the top-k most relevant reference passages for a query,
// ordered by descending similarity. The auditor treats retrieval as
// optional: an unavailable or empty retriever degrades to ungrounded
// prompts, never to a failed analysis.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// Embedder turns text into vectors for similarity search.
type Embedder interface {
	// Embed generates embeddings for multiple texts, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}
