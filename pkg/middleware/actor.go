package middleware

import (
	"context"
	"strings"
	"time"

	"bountyhub/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HeaderUserID carries the id of the user authenticated by the gateway.
const HeaderUserID = "X-User-ID"

type actorKey struct{}

var ActorContextKey = actorKey{}

// Actor rejects requests without an authenticated user and stores the user id
// on both the gin and the request context.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			_ = c.Error(errutil.Unauthorized("missing authenticated user", nil))
			c.Abort()
			return
		}

		c.Set(HeaderUserID, userID)
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), userID))
		c.Next()
	}
}

func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ActorContextKey, userID)
}

// ActorID returns the authenticated user id, or "" outside Actor().
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(ActorContextKey).(string)
	return id
}

// Logger writes one line per request through zap.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		zap.L().Info("http.request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_id", c.GetString(HeaderUserID)),
		)
	}
}
