package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpay-mock-upi/internal/storage"
	"gpay-mock-upi/models"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := New()
	require.NoError(t, s.CreateUser(context.Background(), &models.UPIUser{
		UserID: "alice", Name: "Alice", UpiID: "alice@finzen", Balance: decimal.NewFromInt(100),
	}))
	require.NoError(t, s.CreateUser(context.Background(), &models.UPIUser{
		UserID: "bob", Name: "Bob", UpiID: "bob@finzen", Balance: decimal.NewFromInt(0),
	}))
	return s
}

func TestCreateUser_Duplicate(t *testing.T) {
	s := seed(t)
	err := s.CreateUser(context.Background(), &models.UPIUser{
		UserID: "alice", Name: "Clone", UpiID: "alice@finzen",
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateUser)
}

func TestApplyTransfer_CreatesLinkedPair(t *testing.T) {
	s := seed(t)

	debit, credit, err := s.ApplyTransfer(context.Background(), storage.TransferParams{
		SenderUpi:   "alice@finzen",
		ReceiverUpi: "bob@finzen",
		Amount:      decimal.NewFromInt(40),
		Category:    "food",
		PaymentID:   "c1",
		Date:        time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, "c1", debit.PaymentID)
	assert.Equal(t, "c1", credit.PaymentID)
	assert.Equal(t, models.TxTypeExpense, debit.Type)
	assert.Equal(t, models.TxTypeIncome, credit.Type)
	assert.True(t, debit.Amount.Equal(credit.Amount))

	alice, err := s.GetUserByUpiID(context.Background(), "alice@finzen")
	require.NoError(t, err)
	bob, err := s.GetUserByUpiID(context.Background(), "bob@finzen")
	require.NoError(t, err)
	assert.True(t, alice.Balance.Equal(decimal.NewFromInt(60)))
	assert.True(t, bob.Balance.Equal(decimal.NewFromInt(40)))
}

func TestApplyTransfer_NoPartialStateOnFailure(t *testing.T) {
	s := seed(t)

	_, _, err := s.ApplyTransfer(context.Background(), storage.TransferParams{
		SenderUpi:   "alice@finzen",
		ReceiverUpi: "ghost@finzen",
		Amount:      decimal.NewFromInt(40),
		Category:    "food",
		PaymentID:   "c2",
		Date:        time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)

	alice, err := s.GetUserByUpiID(context.Background(), "alice@finzen")
	require.NoError(t, err)
	assert.True(t, alice.Balance.Equal(decimal.NewFromInt(100)), "списание без зачисления недопустимо")

	txs, err := s.TransactionsByUser(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestApplyTransfer_InsufficientBalance(t *testing.T) {
	s := seed(t)

	_, _, err := s.ApplyTransfer(context.Background(), storage.TransferParams{
		SenderUpi:   "bob@finzen",
		ReceiverUpi: "alice@finzen",
		Amount:      decimal.NewFromInt(1),
		Category:    "food",
		PaymentID:   "c3",
		Date:        time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrInsufficientBalance)
}

func TestTransactionsByUser_NewestFirst(t *testing.T) {
	s := seed(t)
	base := time.Now()

	for i, id := range []string{"old", "mid", "new"} {
		_, _, err := s.ApplyTransfer(context.Background(), storage.TransferParams{
			SenderUpi:   "alice@finzen",
			ReceiverUpi: "bob@finzen",
			Amount:      decimal.NewFromInt(1),
			Category:    "food",
			PaymentID:   id,
			Date:        base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	alice, err := s.GetUserByUpiID(context.Background(), "alice@finzen")
	require.NoError(t, err)
	txs, err := s.TransactionsByUser(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "new", txs[0].PaymentID)
	assert.Equal(t, "old", txs[2].PaymentID)
}

func TestMarkSynced_OnlyLocalRows(t *testing.T) {
	s := seed(t)
	alice, err := s.GetUserByUpiID(context.Background(), "alice@finzen")
	require.NoError(t, err)

	local := models.Transaction{
		UserRef: alice.ID, Type: models.TxTypeExpense, Amount: decimal.NewFromInt(1),
		Category: "food", PaymentID: "loc", Source: models.TxSourceLocal,
	}
	imported := models.Transaction{
		UserRef: alice.ID, Type: models.TxTypeIncome, Amount: decimal.NewFromInt(2),
		Category: "food", PaymentID: "ext", Source: models.TxSourceFinzen, SyncedWithFinzen: true,
	}
	require.NoError(t, s.CreateTransaction(context.Background(), &local))
	require.NoError(t, s.CreateTransaction(context.Background(), &imported))

	require.NoError(t, s.MarkSynced(context.Background(), alice.ID))

	tx, err := s.FindTransaction(context.Background(), alice.ID, "loc")
	require.NoError(t, err)
	assert.True(t, tx.SyncedWithFinzen)
}
