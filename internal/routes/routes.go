package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"soko_backend/internal/handlers"
)

// RegisterRoutes mounts every handler under /api/v1.
func RegisterRoutes(r *gin.Engine, sellerHandler *handlers.SellerHandler, adminHandler *handlers.AdminHandler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	sellerHandler.RegisterRoutes(api)
	adminHandler.RegisterRoutes(api)
}
