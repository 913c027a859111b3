// gpay-mock-upi/internal/storage/memory/store.go
package memory

import (
	"context"
	"sort"
	"sync"

	"gpay-mock-upi/internal/storage"
	"gpay-mock-upi/models"
)

// Store - потокобезопасное хранилище в памяти. Используется в тестах и при
// запуске без Postgres. Один мьютекс сериализует все операции, поэтому
// ApplyTransfer атомарен по построению.
type Store struct {
	mu     sync.Mutex
	nextID uint
	users  map[string]*models.UPIUser // ключ - userId
	txs    []models.Transaction
}

func New() *Store {
	return &Store{
		nextID: 1,
		users:  make(map[string]*models.UPIUser),
	}
}

func (s *Store) CreateUser(ctx context.Context, user *models.UPIUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.UserID]; exists {
		return storage.ErrDuplicateUser
	}
	user.ID = s.nextID
	s.nextID++

	clone := *user
	s.users[user.UserID] = &clone
	return nil
}

func (s *Store) GetUserByUserID(ctx context.Context, userID string) (*models.UPIUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *Store) GetUserByUpiID(ctx context.Context, upiID string) (*models.UPIUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.findByUpiLocked(upiID)
	if user == nil {
		return nil, storage.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.UPIUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]models.UPIUser, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) TransactionsByUser(ctx context.Context, userRef uint) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Transaction
	for _, tx := range s.txs {
		if tx.UserRef == userRef {
			result = append(result, tx)
		}
	}
	// Новые операции сверху, как в выдаче gormstore.
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

func (s *Store) FindTransaction(ctx context.Context, userRef uint, paymentID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.txs {
		if s.txs[i].UserRef == userRef && s.txs[i].PaymentID == paymentID {
			clone := s.txs[i]
			return &clone, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = s.nextID
	s.nextID++
	s.txs = append(s.txs, *tx)
	return nil
}

func (s *Store) MarkSynced(ctx context.Context, userRef uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.txs {
		if s.txs[i].UserRef == userRef && s.txs[i].Source == models.TxSourceLocal {
			s.txs[i].SyncedWithFinzen = true
		}
	}
	return nil
}

func (s *Store) ApplyTransfer(ctx context.Context, p storage.TransferParams) (*models.Transaction, *models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender := s.findByUpiLocked(p.SenderUpi)
	receiver := s.findByUpiLocked(p.ReceiverUpi)
	if sender == nil || receiver == nil {
		return nil, nil, storage.ErrAccountNotFound
	}
	if sender.Balance.LessThan(p.Amount) {
		return nil, nil, storage.ErrInsufficientBalance
	}

	sender.Balance = sender.Balance.Sub(p.Amount)
	receiver.Balance = receiver.Balance.Add(p.Amount)

	debit := models.Transaction{
		UserRef:     sender.ID,
		Type:        models.TxTypeExpense,
		Amount:      p.Amount,
		Category:    p.Category,
		Description: p.Note,
		Date:        p.Date,
		PaymentID:   p.PaymentID,
		SenderUpi:   p.SenderUpi,
		ReceiverUpi: p.ReceiverUpi,
		Source:      models.TxSourceLocal,
	}
	debit.ID = s.nextID
	s.nextID++

	credit := models.Transaction{
		UserRef:     receiver.ID,
		Type:        models.TxTypeIncome,
		Amount:      p.Amount,
		Category:    p.Category,
		Description: p.Note,
		Date:        p.Date,
		PaymentID:   p.PaymentID,
		SenderUpi:   p.SenderUpi,
		ReceiverUpi: p.ReceiverUpi,
		Source:      models.TxSourceLocal,
	}
	credit.ID = s.nextID
	s.nextID++

	s.txs = append(s.txs, debit, credit)

	debitClone, creditClone := debit, credit
	return &debitClone, &creditClone, nil
}

func (s *Store) findByUpiLocked(upiID string) *models.UPIUser {
	for _, u := range s.users {
		if u.UpiID == upiID {
			return u
		}
	}
	return nil
}

// Проверка на этапе компиляции, что Store реализует интерфейс.
var _ storage.Store = (*Store)(nil)
