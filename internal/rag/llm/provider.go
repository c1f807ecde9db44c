package llm

import "context"

type Provider interface {
	// Complete is the raw text-in, text-out capability used by the
	// indexing pipeline to derive summaries, questions and examples.
	Complete(ctx context.Context, prompt string) (string, error)

	// Chat answers a user question grounded on retrieved matches and
	// prior conversation turns.
	Chat(ctx context.Context, query string, matches []string, messageHistory []string) (string, error)
}
