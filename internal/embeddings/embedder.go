// Package embeddings turns case text into vectors for the search index.
package embeddings

import "context"

// Embedder generates text embeddings.
type Embedder interface {
	// Embed generates one embedding per text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the length of the vectors Embed produces.
	Dimensions() int

	// Name identifies the embedder in logs.
	Name() string
}
