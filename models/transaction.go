// FILE: models/transaction.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Направление операции с точки зрения владельца записи.
const (
	TxTypeExpense = "expense" // списание (дебет отправителя)
	TxTypeIncome  = "income"  // зачисление (кредит получателя)
)

// Источник записи: локальный перевод или импорт из Finzen.
const (
	TxSourceLocal  = "local"
	TxSourceFinzen = "finzen"
)

// Transaction представляет одну ногу перевода (дебет или кредит).
// Перевод всегда создаёт ровно две связанные записи с общим PaymentID.
type Transaction struct {
	gorm.Model

	// UserRef - владелец записи (отправитель для expense, получатель для income).
	UserRef uint `json:"-" gorm:"index;not null"`

	// Type - 'expense' или 'income'.
	Type string `json:"type" gorm:"not null"`

	// Amount - сумма операции, всегда положительная.
	Amount decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`

	// Category - категория расхода/дохода, задаётся отправителем.
	Category string `json:"category" gorm:"not null"`

	// Description - произвольный комментарий к переводу.
	Description string `json:"description"`

	// Date - момент совершения перевода. Обе ноги несут одну и ту же метку.
	Date time.Time `json:"date"`

	// PaymentID - корреляционный идентификатор перевода. Ровно две записи
	// (одна expense, одна income) разделяют одно значение.
	PaymentID string `json:"paymentId" gorm:"index;not null"`

	// SenderUpi и ReceiverUpi дублируются в обеих ногах для трассировки.
	SenderUpi   string `json:"senderUpi" gorm:"not null"`
	ReceiverUpi string `json:"receiverUpi" gorm:"not null"`

	// Source - 'local' для переводов внутри системы, 'finzen' для записей,
	// импортированных из внешнего сервиса.
	Source string `json:"source" gorm:"not null;default:local"`

	// SyncedWithFinzen - отметка о том, что запись уже передана в Finzen.
	// Единственное изменяемое поле после создания.
	SyncedWithFinzen bool `json:"syncedWithFinzen" gorm:"not null;default:false"`
}
