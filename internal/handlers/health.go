package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Home() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "order service is running"})
	}
}

func Health(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /health"
		defer handlePanic(c, route)

		if ping != nil {
			if err := ensureDBConnection(c.Request.Context(), ping); err != nil {
				requestLogger(c).Error("database ping failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	}
}
