// gpay-mock-upi/internal/routes/router.go
package routes

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"gpay-mock-upi/internal/handlers"
)

// SetupRoutes инициализирует все маршруты приложения.
func SetupRoutes(r *gin.Engine, h *handlers.UPIHandler) {
	r.Use(cors.New(corsConfig()))

	// Служебные маршруты без аутентификации.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "GPay Mock UPI API is running",
			"version": "1.0.0",
			"endpoints": gin.H{
				"health": "/health",
				"api":    "/api/status",
				"upi":    "/upi/*",
			},
		})
	})

	RegisterUPIRoutes(r, h)
}

// corsConfig собирает список разрешённых источников. К статичному списку
// окружений добавляется FRONTEND_URL из окружения.
func corsConfig() cors.Config {
	allowedOrigins := []string{
		"https://finzen-z1gq.onrender.com",
		"https://gpay-mock-upi-frontend-fizen.onrender.com",
		"https://gpay-mock-upi-fizen.onrender.com",
		"http://localhost:5173",
		"http://localhost:3000",
		"http://localhost:5174",
		"http://localhost:3001",
	}
	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		allowedOrigins = append(allowedOrigins, frontend)
	}

	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Content-Type", "Authorization", "X-Requested-With"}
	return cfg
}
