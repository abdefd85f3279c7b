package core

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxKeyActor contextKey = "import_actor"

// ContextWithActor records the profile id of whoever submitted a request.
func ContextWithActor(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyActor, id)
}

// ActorFromContext returns the submitting profile id, or uuid.Nil.
func ActorFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(ctxKeyActor).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}
