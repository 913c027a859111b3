// gpay-mock-upi/internal/handlers/ws_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Для разработки разрешаем все источники
	},
}

// WSHandler подключает аутентифицированного клиента к хабу уведомлений.
// Клиент получает события только своего платёжного адреса.
func (h *UPIHandler) WSHandler(c *gin.Context) {
	upiID := c.GetString("upiId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", "error", err, "upiId", upiID)
		return
	}
	h.Hub.Attach(conn, upiID)
}
