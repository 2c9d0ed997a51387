package app

import (
	"context"
	"strings"
)

// LocalActor is recorded on change events made without an authenticated caller.
const LocalActor = "local"

type actorKey struct{}

// WithActor attaches the caller identity that change events are attributed to.
func WithActor(ctx context.Context, actorID string) context.Context {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the attached caller identity or LocalActor.
func ActorFromContext(ctx context.Context) string {
	if ctx != nil {
		if actorID, ok := ctx.Value(actorKey{}).(string); ok && actorID != "" {
			return actorID
		}
	}
	return LocalActor
}
