package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/internal/access"
)

type actorKey struct{}

// WithActor stores the authenticated caller on the request context.
func WithActor(ctx context.Context, actor access.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the caller placed by Auth. ok is false for
// unauthenticated requests.
func ActorFromContext(ctx context.Context) (access.Actor, bool) {
	if ctx == nil {
		return access.Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(access.Actor)
	if !ok || actor.ID == uuid.Nil {
		return access.Actor{}, false
	}
	return actor, true
}

// UserIDFromContext is the caller id as a string, or "" when anonymous.
func UserIDFromContext(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.ID.String()
	}
	return ""
}
