// gpay-mock-upi/internal/handlers/upi_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gpay-mock-upi/internal/finzen"
	"gpay-mock-upi/internal/ledger"
	"gpay-mock-upi/internal/notify"
	"gpay-mock-upi/internal/storage"
	"gpay-mock-upi/models"
)

// UPIHandler держит зависимости обработчиков. Всё передаётся явно при
// сборке приложения - обработчики не тянут глобальное состояние сервера.
type UPIHandler struct {
	Store  storage.Store
	Ledger *ledger.Service
	Syncer *finzen.Syncer // nil, если FINZEN_API_URL не задан
	Hub    *notify.Hub
}

// SendMoneyRequest определяет структуру для входящих данных перевода.
type SendMoneyRequest struct {
	ReceiverUpi string          `json:"receiverUpi"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Note        string          `json:"note"`
	PaymentID   string          `json:"paymentId"`
}

// SendMoneyHandler - перевод денег от имени аутентифицированного отправителя.
// Вся доменная логика в ledger.Service; здесь только разбор запроса и
// перевод доменной ошибки в HTTP-ответ.
func (h *UPIHandler) SendMoneyHandler(c *gin.Context) {
	senderUpi := c.GetString("upiId")

	var req SendMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input: " + err.Error()})
		return
	}

	result, err := h.Ledger.SendMoney(c.Request.Context(), senderUpi, ledger.SendMoneyInput{
		ReceiverUpi: req.ReceiverUpi,
		Amount:      req.Amount,
		Category:    req.Category,
		Note:        req.Note,
		PaymentID:   req.PaymentID,
	})
	if err != nil {
		var domainErr *ledger.Error
		if errors.As(err, &domainErr) {
			c.JSON(domainErr.Status, gin.H{"message": domainErr.Message})
			return
		}
		slog.Error("Непредвиденная ошибка перевода", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Payment failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Payment successful",
		"senderTx":   result.SenderTx,
		"receiverTx": result.ReceiverTx,
	})
}

// GetBalanceHandler возвращает баланс владельца адреса.
func (h *UPIHandler) GetBalanceHandler(c *gin.Context) {
	user, ok := h.requireOwnership(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": user.Balance})
}

// GetTransactionsHandler возвращает операции владельца адреса,
// новые сверху.
func (h *UPIHandler) GetTransactionsHandler(c *gin.Context) {
	user, ok := h.requireOwnership(c)
	if !ok {
		return
	}

	txs, err := h.Store.TransactionsByUser(c.Request.Context(), user.ID)
	if err != nil {
		slog.Error("Не удалось получить историю операций", "error", err, "upiId", user.UpiID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch transactions"})
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	c.JSON(http.StatusOK, txs)
}

// FetchFinzenHandler подтягивает операции пользователя из Finzen,
// импортирует ранее не виденные и возвращает объединённую историю.
func (h *UPIHandler) FetchFinzenHandler(c *gin.Context) {
	user, ok := h.requireOwnership(c)
	if !ok {
		return
	}
	if h.Syncer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Finzen sync disabled - FINZEN_API_URL not set"})
		return
	}

	if _, err := h.Syncer.SyncUser(c.Request.Context(), *user); err != nil {
		slog.Error("Error fetching Finzen transactions", "error", err, "userId", user.UserID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch transactions"})
		return
	}

	// После импорта локальная история уже содержит записи Finzen.
	txs, err := h.Store.TransactionsByUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch transactions"})
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	c.JSON(http.StatusOK, txs)
}

// requireOwnership проверяет, что вызывающий запрашивает собственные
// данные: адрес из пути должен совпадать с адресом из токена, а счет -
// существовать и принадлежать тому же userId.
func (h *UPIHandler) requireOwnership(c *gin.Context) (*models.UPIUser, bool) {
	requested := c.Param("upiId")

	if c.GetString("upiId") != requested {
		c.JSON(ledger.ErrForbidden.Status, gin.H{"message": ledger.ErrForbidden.Message})
		return nil, false
	}

	user, err := h.Store.GetUserByUpiID(c.Request.Context(), requested)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "User not found"})
		return nil, false
	}
	if user.UserID != c.GetString("userId") {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden: User ID mismatch"})
		return nil, false
	}
	return user, true
}
