// gpay-mock-upi/internal/ledger/errors.go
package ledger

import "net/http"

// Error - доменная ошибка перевода. Status - HTTP-класс для границы API,
// Message - короткое сообщение для клиента. Детали нижних слоёв (Redis,
// Postgres) наружу не выносятся - они остаются в логах.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Таксономия ошибок перевода. Тексты сообщений сохраняют контракт API.
var (
	ErrMissingPaymentID  = &Error{Status: http.StatusBadRequest, Message: "paymentId is required"}
	ErrDuplicatePayment  = &Error{Status: http.StatusConflict, Message: "Duplicate payment blocked"}
	ErrFieldsRequired    = &Error{Status: http.StatusBadRequest, Message: "receiverUpi, amount, and category are required"}
	ErrAmountNotPositive = &Error{Status: http.StatusBadRequest, Message: "Amount must be positive"}
	ErrSelfTransfer      = &Error{Status: http.StatusBadRequest, Message: "Cannot send money to yourself."}
	ErrAccountNotFound   = &Error{Status: http.StatusNotFound, Message: "Sender or receiver not found"}
	ErrInsufficientFunds = &Error{Status: http.StatusBadRequest, Message: "Insufficient balance"}
	ErrPaymentFailed     = &Error{Status: http.StatusInternalServerError, Message: "Payment failed"}
	ErrForbidden         = &Error{Status: http.StatusForbidden, Message: "Forbidden: Cannot access other user data"}
)
