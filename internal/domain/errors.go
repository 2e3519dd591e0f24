package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound возвращается, если пользователя с таким ID нет.
	ErrUserNotFound = errors.New("user not found")
	// ErrOrderNotFound возвращается, если заказа с таким ID нет.
	ErrOrderNotFound = errors.New("order not found")
	// ErrEmailConflict сигнализирует о нарушении уникальности email.
	ErrEmailConflict = errors.New("email already exists")
	// ErrOutboxMessageNotFound — сообщение outbox не найдено при смене статуса.
	ErrOutboxMessageNotFound = errors.New("outbox message not found")
	// Ошибки хранилища idempotency-ключей.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different request")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
)

// ValidationError — входные данные отклонены; Reason уходит клиенту.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// StoreError оборачивает сбой хранилища, который не относится к бизнес-ошибкам.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsNotFound сообщает, что ошибка означает отсутствие записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrOrderNotFound)
}

// IsValidation проверяет, является ли ошибка ValidationError, и возвращает причину.
func IsValidation(err error) (string, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason, true
	}
	return "", false
}
