// gpay-mock-upi/internal/finzen/syncer.go
package finzen

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gpay-mock-upi/internal/storage"
	"gpay-mock-upi/models"
)

// DefaultSyncInterval - период фоновой синхронизации с Finzen.
const DefaultSyncInterval = 5 * time.Minute

// Fetcher - то, что умеет клиент Finzen с точки зрения синхронизатора.
type Fetcher interface {
	FetchTransactions(ctx context.Context, user models.UPIUser) ([]Transaction, error)
}

// Syncer периодически подтягивает операции пользователей из Finzen,
// импортирует ранее не виденные (source=finzen) и помечает локальные
// записи как синхронизированные.
type Syncer struct {
	client   Fetcher
	store    storage.Store
	interval time.Duration
}

func NewSyncer(client Fetcher, store storage.Store, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Syncer{client: client, store: store, interval: interval}
}

// Run крутит цикл синхронизации до отмены контекста.
func (s *Syncer) Run(ctx context.Context) {
	slog.Info("Finzen sync enabled", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncAll(ctx)
		}
	}
}

// SyncAll обходит всех пользователей. Ошибка по одному пользователю не
// останавливает обход остальных.
func (s *Syncer) SyncAll(ctx context.Context) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		slog.Error("Finzen sync: failed to list users", "error", err)
		return
	}
	for _, user := range users {
		if _, err := s.SyncUser(ctx, user); err != nil {
			slog.Error("Finzen sync failed for user", "error", err, "userId", user.UserID)
		}
	}
}

// SyncUser подтягивает операции одного пользователя и возвращает их.
// Используется и фоновым циклом, и обработчиком GET /transactions/:upiId/finzen.
func (s *Syncer) SyncUser(ctx context.Context, user models.UPIUser) ([]Transaction, error) {
	fetched, err := s.client.FetchTransactions(ctx, user)
	if err != nil {
		return nil, err
	}

	for _, ftx := range fetched {
		_, err := s.store.FindTransaction(ctx, user.ID, ftx.PaymentID)
		if err == nil {
			continue // уже есть локально
		}
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Error("Finzen sync: lookup failed", "error", err, "paymentId", ftx.PaymentID)
			continue
		}

		imported := models.Transaction{
			UserRef:          user.ID,
			Type:             ftx.Type,
			Amount:           ftx.Amount,
			Category:         ftx.Category,
			Description:      ftx.Description,
			Date:             ftx.Date,
			PaymentID:        ftx.PaymentID,
			SenderUpi:        ftx.SenderUpi,
			ReceiverUpi:      ftx.ReceiverUpi,
			Source:           models.TxSourceFinzen,
			SyncedWithFinzen: true,
		}
		if err := s.store.CreateTransaction(ctx, &imported); err != nil {
			slog.Error("Finzen sync: import failed", "error", err, "paymentId", ftx.PaymentID)
		}
	}

	if err := s.store.MarkSynced(ctx, user.ID); err != nil {
		slog.Error("Finzen sync: failed to mark local transactions", "error", err, "userId", user.UserID)
	}

	slog.Info("Finzen sync completed for user", "userId", user.UserID, "fetched", len(fetched))
	return fetched, nil
}
