// gpay-mock-upi/internal/guard/guard.go

// Package guard реализует защиту от повторного исполнения перевода.
// Запись о платеже создаётся один раз на paymentId и живёт фиксированные
// 30 секунд независимо от исхода операции - явного освобождения нет,
// записи истекают сами (как TTL-индекс в исходной системе).
package guard

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL - время жизни записи о платеже.
const DefaultTTL = 30 * time.Second

// ErrDuplicate возвращается, когда запись для paymentId уже существует,
// то есть такой же запрос уже принят в работу (или недавно завершился).
var ErrDuplicate = errors.New("платеж с таким paymentId уже обрабатывается")

// PaymentGuard выдаёт эксклюзивную запись на paymentId.
type PaymentGuard interface {
	// Acquire создаёт запись для paymentId. Если запись уже есть,
	// возвращает ErrDuplicate без каких-либо побочных эффектов.
	Acquire(ctx context.Context, paymentID string) error
}
