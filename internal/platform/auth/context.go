package auth

import (
	"context"

	"github.com/ogurasousui/probation-workflow/internal/core/probation"
)

type actorContextKey struct{}

// WithActor は認証済みの実行者をコンテキストに格納します。
func WithActor(ctx context.Context, actor probation.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext はコンテキストに格納された実行者を返します。
func ActorFromContext(ctx context.Context) (probation.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(probation.Actor)
	return actor, ok
}
