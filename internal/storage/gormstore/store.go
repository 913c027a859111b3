// gpay-mock-upi/internal/storage/gormstore/store.go
package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gpay-mock-upi/internal/storage"
	"gpay-mock-upi/models"
)

// Store - реализация storage.Store поверх GORM/Postgres.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, user *models.UPIUser) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrDuplicateUser
	}
	return err
}

func (s *Store) GetUserByUserID(ctx context.Context, userID string) (*models.UPIUser, error) {
	var user models.UPIUser
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByUpiID(ctx context.Context, upiID string) (*models.UPIUser, error) {
	var user models.UPIUser
	if err := s.db.WithContext(ctx).Where("upi_id = ?", upiID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.UPIUser, error) {
	var users []models.UPIUser
	if err := s.db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) TransactionsByUser(ctx context.Context, userRef uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_ref = ?", userRef).
		Order("date desc").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *Store) FindTransaction(ctx context.Context, userRef uint, paymentID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_ref = ? AND payment_id = ?", userRef, paymentID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

func (s *Store) MarkSynced(ctx context.Context, userRef uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_ref = ? AND source = ? AND synced_with_finzen = ?", userRef, models.TxSourceLocal, false).
		Update("synced_with_finzen", true).Error
}

// ApplyTransfer выполняет перевод в одной транзакции БД.
// Обе строки счетов блокируются SELECT ... FOR UPDATE, причем всегда в
// порядке возрастания upi_id - иначе два встречных перевода могут
// заблокировать друг друга намертво.
func (s *Store) ApplyTransfer(ctx context.Context, p storage.TransferParams) (*models.Transaction, *models.Transaction, error) {
	var debit, credit models.Transaction

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		first, second := p.SenderUpi, p.ReceiverUpi
		if second < first {
			first, second = second, first
		}

		locked := map[string]*models.UPIUser{}
		for _, upiID := range []string{first, second} {
			var user models.UPIUser
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("upi_id = ?", upiID).
				First(&user).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return storage.ErrAccountNotFound
				}
				return err
			}
			locked[upiID] = &user
		}

		sender := locked[p.SenderUpi]
		receiver := locked[p.ReceiverUpi]

		// Проверка баланса только под блокировкой: предварительная проверка
		// в сервисе могла устареть к этому моменту.
		if sender.Balance.LessThan(p.Amount) {
			return storage.ErrInsufficientBalance
		}

		if err := tx.Model(sender).
			Update("balance", gorm.Expr("balance - ?", p.Amount)).Error; err != nil {
			return err
		}
		if err := tx.Model(receiver).
			Update("balance", gorm.Expr("balance + ?", p.Amount)).Error; err != nil {
			return err
		}

		debit = models.Transaction{
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
		if err := tx.Create(&debit).Error; err != nil {
			return err
		}

		credit = models.Transaction{
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
		return tx.Create(&credit).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &debit, &credit, nil
}

// Проверка на этапе компиляции, что Store реализует интерфейс.
var _ storage.Store = (*Store)(nil)
