// Package server assembles the gin engine: middleware chain, API routes,
// health and metrics endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"dashboard_api/internal/cache"
	"dashboard_api/internal/handler"
	"dashboard_api/internal/middleware"
	"dashboard_api/internal/policy"
	"dashboard_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router wires together.
type Deps struct {
	Auth  service.AuthService
	Posts service.PostService
	Users service.UserService
	Logs  service.LogService

	// Store is the primary datastore. Cache may be nil or disabled.
	Store Pinger
	Cache *cache.Cache

	AllowedOrigins []string
	MaxBodyBytes   int64
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// AuthRateFailClosed rejects auth requests when Redis is unreachable.
	AuthRateFailClosed bool
}

// NewRouter builds the HTTP handler for the API.
func NewRouter(d Deps) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.StructuredLogger(),
		middleware.Metrics(),
		middleware.Recovery(),
		middleware.CORS(d.AllowedOrigins),
		middleware.BodyLimit(d.MaxBodyBytes),
	)

	// --- Initialize Middlewares ---
	authMW := middleware.JWTAuthMiddleware(d.Auth)
	editorMW := middleware.EditorMiddleware()
	adminMW := middleware.AdminMiddleware()
	logsMW := middleware.RequireCapability(policy.ViewLogs)
	failPolicy := middleware.FailOpen
	if d.AuthRateFailClosed {
		failPolicy = middleware.FailClosed
	}
	rateLimitMW := middleware.RateLimit(d.Cache.Client(), "auth", d.AuthRateLimit, d.AuthRateWindow, failPolicy)

	// --- Register Routes ---
	api := router.Group("/api")
	handler.NewAuthHandler(d.Auth).RegisterAuthRoutes(api, authMW, rateLimitMW)
	handler.NewPostHandler(d.Posts).RegisterPostRoutes(api, authMW, editorMW)
	handler.NewUserHandler(d.Users).RegisterUserRoutes(api, authMW, adminMW)
	handler.NewLogHandler(d.Logs).RegisterLogRoutes(api, authMW, logsMW)

	router.GET("/health", healthHandler(d))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(c *gin.Context) {
		middleware.AbortJSON(c, http.StatusNotFound, "ROUTE_NOT_FOUND", "Route not found")
	})
	return router, nil
}

func healthHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{"status": "ok", "db": "healthy", "redis": "disabled"}

		if d.Store != nil {
			if err := d.Store.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "error"
				body["db"] = "unhealthy"
			}
		}
		if d.Cache.Enabled() {
			body["redis"] = "healthy"
			if err := d.Cache.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "error"
				body["redis"] = "unhealthy"
			}
		}
		c.JSON(status, body)
	}
}
