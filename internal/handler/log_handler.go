package handler

import (
	"net/http"

	"dashboard_api/internal/middleware"
	"dashboard_api/internal/service"

	"github.com/gin-gonic/gin"
)

// LogHandler serves the activity log
type LogHandler struct {
	service service.LogService
}

// NewLogHandler creates a new LogHandler
func NewLogHandler(s service.LogService) *LogHandler {
	return &LogHandler{service: s}
}

func (h *LogHandler) ListLogs(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	logs, err := h.service.List(c.Request.Context(), a)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// RegisterLogRoutes registers admin-only log routes
func (h *LogHandler) RegisterLogRoutes(rg *gin.RouterGroup, authMW, logsMW gin.HandlerFunc) {
	rg.GET("/logs", authMW, logsMW, h.ListLogs)
}
