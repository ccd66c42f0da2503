package llm

import "context"

// Provider defines the interface for language model providers.
// A call is a single blocking round trip; retries are the provider's concern.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
