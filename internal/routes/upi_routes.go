// gpay-mock-upi/internal/routes/upi_routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"gpay-mock-upi/internal/handlers"
	"gpay-mock-upi/internal/middleware"
)

// RegisterUPIRoutes регистрирует маршруты платёжного API.
func RegisterUPIRoutes(r *gin.Engine, h *handlers.UPIHandler) {
	upi := r.Group("/upi")

	// Публичные маршруты: регистрация и вход.
	upi.POST("/register", h.RegisterHandler)
	upi.POST("/login", h.LoginHandler)
	upi.POST("/auth", h.AuthWithUpiHandler)

	// Всё остальное требует валидного токена.
	authRequired := upi.Group("/")
	authRequired.Use(middleware.AuthMiddleware())
	{
		authRequired.GET("/me", h.MeHandler)
		authRequired.GET("/balance/:upiId", h.GetBalanceHandler)
		authRequired.GET("/transactions/:upiId", h.GetTransactionsHandler)
		authRequired.GET("/transactions/:upiId/finzen", h.FetchFinzenHandler)
		authRequired.POST("/send", h.SendMoneyHandler)
		authRequired.GET("/ws", h.WSHandler)
	}
}
