// gpay-mock-upi/internal/ledger/service.go

// Package ledger содержит движок переводов: валидация запроса, защита от
// дублей, атомарное применение дебета и кредита, уведомления участников и
// передача операции в Finzen.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"gpay-mock-upi/internal/guard"
	"gpay-mock-upi/internal/storage"
	"gpay-mock-upi/models"
)

// TransferEvent - уведомление участнику перевода. Формат полей повторяет
// события канала transaction:<upiId>, которые слушает клиент.
type TransferEvent struct {
	Type            string          `json:"type"` // всегда "new"
	SenderUpi       string          `json:"senderUpi"`
	ReceiverUpi     string          `json:"receiverUpi"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Date            time.Time       `json:"date"`
	PaymentID       string          `json:"paymentId"`
	TransactionType string          `json:"transactionType"` // expense | income
}

// Notifier доставляет событие подписчикам платёжного адреса.
// Движок получает его при создании, а не тянет из глобального состояния.
type Notifier interface {
	Publish(upiID string, event TransferEvent)
}

// SyncClient - клиент внешнего сервиса Finzen. Вызовы best-effort:
// их результат никогда не влияет на исход перевода.
type SyncClient interface {
	Forward(ctx context.Context, user models.UPIUser, tx models.Transaction) error
}

// SendMoneyInput - параметры перевода от имени отправителя.
type SendMoneyInput struct {
	ReceiverUpi string
	Amount      decimal.Decimal
	Category    string
	Note        string
	PaymentID   string
}

// TransferResult - обе созданные ноги перевода.
type TransferResult struct {
	SenderTx   *models.Transaction `json:"senderTx"`
	ReceiverTx *models.Transaction `json:"receiverTx"`
}

// Service - движок переводов.
type Service struct {
	store    storage.Store
	guard    guard.PaymentGuard
	notifier Notifier   // может быть nil - тогда уведомления не шлются
	sync     SyncClient // может быть nil - тогда передача в Finzen выключена

	// forwardTimeout ограничивает фоновую передачу одной операции в Finzen.
	forwardTimeout time.Duration
}

func NewService(store storage.Store, g guard.PaymentGuard, notifier Notifier, sync SyncClient) *Service {
	return &Service{
		store:          store,
		guard:          g,
		notifier:       notifier,
		sync:           sync,
		forwardTimeout: 30 * time.Second,
	}
}

// SendMoney выполняет один перевод senderUpi -> in.ReceiverUpi.
//
// Порядок шагов фиксирован: сначала захват записи о платеже (дубль
// отсекается до любых других действий), затем чистая валидация, затем
// атомарное применение в хранилище. Запись о платеже не освобождается
// ни при успехе, ни при ошибке - она истекает сама через 30 секунд.
func (s *Service) SendMoney(ctx context.Context, senderUpi string, in SendMoneyInput) (*TransferResult, error) {
	if in.PaymentID == "" {
		return nil, ErrMissingPaymentID
	}

	if err := s.guard.Acquire(ctx, in.PaymentID); err != nil {
		if errors.Is(err, guard.ErrDuplicate) {
			return nil, ErrDuplicatePayment
		}
		slog.Error("Не удалось создать запись о платеже", "error", err, "paymentId", in.PaymentID)
		return nil, ErrPaymentFailed
	}

	if senderUpi == in.ReceiverUpi {
		return nil, ErrSelfTransfer
	}
	if in.ReceiverUpi == "" || in.Category == "" {
		return nil, ErrFieldsRequired
	}
	if in.Amount.Cmp(decimal.Zero) <= 0 {
		return nil, ErrAmountNotPositive
	}

	sender, err := s.store.GetUserByUpiID(ctx, senderUpi)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	receiver, err := s.store.GetUserByUpiID(ctx, in.ReceiverUpi)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	// Быстрая проверка до захвата строк; авторитетная выполняется
	// хранилищем под блокировкой.
	if sender.Balance.LessThan(in.Amount) {
		return nil, ErrInsufficientFunds
	}

	date := time.Now()
	debit, credit, err := s.store.ApplyTransfer(ctx, storage.TransferParams{
		SenderUpi:   senderUpi,
		ReceiverUpi: in.ReceiverUpi,
		Amount:      in.Amount,
		Category:    in.Category,
		Note:        in.Note,
		PaymentID:   in.PaymentID,
		Date:        date,
	})
	if err != nil {
		return nil, mapStorageErr(err)
	}

	s.notifyParticipants(*debit, *credit)
	s.forwardToFinzen(*sender, *receiver, *debit, *credit)

	return &TransferResult{SenderTx: debit, ReceiverTx: credit}, nil
}

func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, storage.ErrInsufficientBalance):
		return ErrInsufficientFunds
	default:
		slog.Error("Ошибка хранилища при применении перевода", "error", err)
		return ErrPaymentFailed
	}
}

func (s *Service) notifyParticipants(debit, credit models.Transaction) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(debit.SenderUpi, eventFor(debit))
	s.notifier.Publish(credit.ReceiverUpi, eventFor(credit))
}

// forwardToFinzen передаёт обе ноги перевода в Finzen в фоне.
// Ответ клиенту её не ждёт; любая ошибка только логируется.
func (s *Service) forwardToFinzen(sender, receiver models.UPIUser, debit, credit models.Transaction) {
	if s.sync == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.forwardTimeout)
		defer cancel()

		if err := s.sync.Forward(ctx, sender, debit); err != nil {
			slog.Error("FinZen integration failed", "error", err, "paymentId", debit.PaymentID, "upiId", sender.UpiID)
		}
		if err := s.sync.Forward(ctx, receiver, credit); err != nil {
			slog.Error("FinZen integration failed", "error", err, "paymentId", credit.PaymentID, "upiId", receiver.UpiID)
		}
	}()
}

func eventFor(tx models.Transaction) TransferEvent {
	return TransferEvent{
		Type:            "new",
		SenderUpi:       tx.SenderUpi,
		ReceiverUpi:     tx.ReceiverUpi,
		Amount:          tx.Amount,
		Category:        tx.Category,
		Description:     tx.Description,
		Date:            tx.Date,
		PaymentID:       tx.PaymentID,
		TransactionType: tx.Type,
	}
}
