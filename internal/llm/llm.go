// Package llm abstracts the chat model behind a single-call interface.
// The classifier is the only consumer; it sends one prompt per request and
// expects a JSON reply.
package llm

import "context"

// Client produces one completion for one prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
