package middlewares

import (
	"context"
	"strings"

	"bitbucket.org/baburtravels/agency_backend/appctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActorMiddleware resolves who is performing the request. The actor travels
// on the request context; every settlement row records it. Nothing here
// authenticates: the gateway in front of this service does that, we only
// carry the identity through.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader("X-Actor"))
		if actor == "" {
			actor = "system"
		}
		ctx := appctx.WithString(c.Request.Context(), appctx.ContextKeyActor, actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CorrelationMiddleware attaches one correlation id per request, generating
// it when the caller did not send one.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := appctx.WithString(c.Request.Context(), appctx.ContextKeyCorrelationId, cid)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ActorFromContext reads the resolved actor; callers outside an HTTP
// request (jobs, seeds) fall back to "system".
func ActorFromContext(ctx context.Context) string {
	if actor, ok := appctx.GetString(ctx, appctx.ContextKeyActor); ok && actor != "" {
		return actor
	}
	return "system"
}
