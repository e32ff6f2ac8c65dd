package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenahq/arena/backend/internal/version"
)

// HealthHandler reports liveness and build info.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"name":    version.Name,
		"version": version.Full(),
	})
}
