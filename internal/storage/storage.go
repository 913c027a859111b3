// gpay-mock-upi/internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"gpay-mock-upi/models"
)

// Ошибки уровня хранилища. Слой ledger переводит их в доменные ошибки,
// наружу (в ответы API) они не утекают.
var (
	ErrNotFound            = errors.New("запись не найдена")
	ErrDuplicateUser       = errors.New("пользователь уже существует")
	ErrAccountNotFound     = errors.New("счет не найден")
	ErrInsufficientBalance = errors.New("недостаточно средств")
)

// TransferParams - параметры атомарного применения перевода.
type TransferParams struct {
	SenderUpi   string
	ReceiverUpi string
	Amount      decimal.Decimal
	Category    string
	Note        string
	PaymentID   string
	Date        time.Time
}

// Store - интерфейс хранилища счетов и журнала операций.
// Реализации: gormstore (Postgres) и memory (тесты, запуск без БД).
type Store interface {
	CreateUser(ctx context.Context, user *models.UPIUser) error
	GetUserByUserID(ctx context.Context, userID string) (*models.UPIUser, error)
	GetUserByUpiID(ctx context.Context, upiID string) (*models.UPIUser, error)
	ListUsers(ctx context.Context) ([]models.UPIUser, error)

	// TransactionsByUser возвращает операции владельца, новые сверху.
	TransactionsByUser(ctx context.Context, userRef uint) ([]models.Transaction, error)

	// FindTransaction ищет операцию владельца по корреляционному идентификатору.
	FindTransaction(ctx context.Context, userRef uint, paymentID string) (*models.Transaction, error)

	// CreateTransaction добавляет одиночную запись (импорт из Finzen).
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// MarkSynced помечает все локальные несинхронизированные операции
	// владельца как переданные в Finzen.
	MarkSynced(ctx context.Context, userRef uint) error

	// ApplyTransfer применяет перевод как единое целое: списание, зачисление
	// и обе ноги журнала либо фиксируются вместе, либо не фиксируются вовсе.
	// Проверка существования счетов и достаточности баланса выполняется
	// под блокировкой внутри той же транзакции.
	ApplyTransfer(ctx context.Context, p TransferParams) (debit *models.Transaction, credit *models.Transaction, err error)
}
