package llm

import "context"

// Completer sends one prompt to a completion service and returns the model's raw text.
// Implementations make a single attempt and report failures as SERVICE_UNAVAILABLE.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
