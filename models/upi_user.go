// gpay-mock-upi/models/upi_user.go
package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UPIUser представляет участника платёжной системы.
type UPIUser struct {
	gorm.Model

	// UserID - стабильный идентификатор пользователя, задаётся при регистрации.
	UserID string `json:"userId" gorm:"uniqueIndex;not null"`

	// Name - отображаемое имя пользователя.
	Name string `json:"name" gorm:"not null"`

	// UpiID - платёжный адрес. Всегда вычисляется из UserID (<userId>@finzen)
	// и никогда не задаётся снаружи.
	UpiID string `json:"upiId" gorm:"uniqueIndex;not null"`

	// Password - bcrypt-хэш пароля. В JSON-ответы не попадает.
	Password string `json:"-" gorm:"not null"`

	// Balance - текущий баланс. NUMERIC(12,2) для точности денежных расчетов.
	// Инвариант: после любого завершённого перевода баланс не отрицателен.
	Balance decimal.Decimal `json:"balance" gorm:"type:numeric(12,2);not null;default:0"`

	// Transactions - история операций пользователя (обе ноги переводов,
	// где он участвует как владелец записи).
	Transactions []Transaction `json:"transactionHistory,omitempty" gorm:"foreignKey:UserRef"`
}

// DeriveUpiID возвращает платёжный адрес для идентификатора пользователя.
// Чистая функция: один и тот же userId всегда даёт один и тот же адрес.
func DeriveUpiID(userID string) string {
	return userID + "@finzen"
}
