package finzen

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpay-mock-upi/internal/storage/memory"
	"gpay-mock-upi/models"
)

type fakeFetcher struct {
	txs []Transaction
}

func (f *fakeFetcher) FetchTransactions(ctx context.Context, user models.UPIUser) ([]Transaction, error) {
	return f.txs, nil
}

func TestSyncUser_ImportsUnseenAndSkipsExisting(t *testing.T) {
	store := memory.New()
	user := models.UPIUser{UserID: "alice", Name: "Alice", UpiID: "alice@finzen"}
	require.NoError(t, store.CreateUser(context.Background(), &user))

	// Одна запись уже есть локально, вторая - новая для нас.
	existing := models.Transaction{
		UserRef: user.ID, Type: models.TxTypeExpense, Amount: decimal.NewFromInt(10),
		Category: "food", PaymentID: "known", Source: models.TxSourceLocal,
	}
	require.NoError(t, store.CreateTransaction(context.Background(), &existing))

	fetcher := &fakeFetcher{txs: []Transaction{
		{Type: "expense", Amount: decimal.NewFromInt(10), Category: "food", PaymentID: "known", Date: time.Now()},
		{Type: "income", Amount: decimal.NewFromInt(7), Category: "cashback", PaymentID: "fresh", Date: time.Now()},
	}}

	syncer := NewSyncer(fetcher, store, DefaultSyncInterval)
	fetched, err := syncer.SyncUser(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, fetched, 2)

	// Новая запись импортирована с пометкой источника.
	imported, err := store.FindTransaction(context.Background(), user.ID, "fresh")
	require.NoError(t, err)
	assert.Equal(t, models.TxSourceFinzen, imported.Source)
	assert.True(t, imported.SyncedWithFinzen)

	// Существующая не задвоилась.
	txs, err := store.TransactionsByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	// Локальные записи помечены как синхронизированные.
	known, err := store.FindTransaction(context.Background(), user.ID, "known")
	require.NoError(t, err)
	assert.True(t, known.SyncedWithFinzen)
}
