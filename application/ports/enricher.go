package ports

import "context"

// Enricher is the boundary to the generative-AI content services. Only the
// shapes are owned here; the implementation lives outside the core.
type Enricher interface {
	// Summarize produces a short summary for a voice transcript.
	Summarize(ctx context.Context, transcript string) (string, error)
}
