package middleware

import (
	"context"
	"net/http"
	"strings"

	"dashboard_api/internal/logging"
	"dashboard_api/internal/model"

	"github.com/gin-gonic/gin"
)

// AuthActorKey holds the model.Actor set by JWTAuthMiddleware.
const AuthActorKey = "authActor"

// TokenValidator resolves a bearer token to the stored user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.User, error)
}

// JWTAuthMiddleware authenticates the bearer token and stores the resolved
// actor on the gin context. The actor's role is the stored role.
func JWTAuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			AbortJSON(c, http.StatusUnauthorized, CodeUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			AbortJSON(c, http.StatusUnauthorized, CodeUnauthorized, "Invalid authorization header format")
			return
		}

		user, err := auth.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(AuthActorKey, model.ActorOf(user))
		c.Request = c.Request.WithContext(logging.WithUserID(c.Request.Context(), user.ID))

		c.Next()
	}
}

// ActorFrom returns the authenticated actor set by JWTAuthMiddleware.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(AuthActorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
