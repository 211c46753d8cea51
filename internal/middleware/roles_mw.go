package middleware

import (
	"log/slog"
	"net/http"

	"dashboard_api/internal/metrics"
	"dashboard_api/internal/policy"

	"github.com/gin-gonic/gin"
)

// RequireCapability rejects requests whose actor lacks capability c. It must
// run after JWTAuthMiddleware.
func RequireCapability(c policy.Capability) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actor, ok := ActorFrom(ctx)
		if !ok {
			AbortJSON(ctx, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
			return
		}

		if policy.Authorize(actor.Role, c) == policy.Deny {
			metrics.AuthorizationDenials.WithLabelValues(c.String(), actor.Role.String()).Inc()
			slog.InfoContext(ctx.Request.Context(), "authorization denied",
				slog.String("capability", c.String()),
				slog.String("role", actor.Role.String()),
				slog.String("path", ctx.FullPath()))
			AbortWithError(ctx, policy.ErrForbidden)
			return
		}

		ctx.Next()
	}
}

// AdminMiddleware checks if the user may manage users
func AdminMiddleware() gin.HandlerFunc {
	return RequireCapability(policy.ManageUsers)
}

// EditorMiddleware checks if the user may author posts
func EditorMiddleware() gin.HandlerFunc {
	return RequireCapability(policy.ManageOwnPosts)
}
