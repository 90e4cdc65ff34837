package common

import (
	"context"

	"github.com/google/uuid"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID contextKey = "run_id"
)

// WithRunID tags ctx with a processing run id. An empty id generates a new one.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		runID = uuid.New().String()
	}
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run id from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}
