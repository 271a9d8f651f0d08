package providers

import "context"

// EmbeddingProvider produces embedding vectors for free text. Implementations
// never fail: when the backing model cannot be reached, Embed returns a zero
// vector of Dimensions() length, which callers must treat as "no semantic
// signal" rather than a legitimate similarity input.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) []float32
	Dimensions() int
}

// ZeroVector returns an all-zero vector of the given dimensionality
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// IsZeroVector reports whether v carries no semantic signal
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
