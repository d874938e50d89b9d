package models

import "fmt"

// ValidationError rejects invalid operator input before any write happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StockConflictError signals a requested quantity above the last-known stock.
// The check runs against a possibly stale snapshot, not a transactional
// guarantee.
type StockConflictError struct {
	ProductoID int64
	Requested  int
	Available  int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested=%d, available=%d",
		e.ProductoID, e.Requested, e.Available)
}

// NotFoundError signals a missing referenced entity.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.ID)
}

// RemoteWriteError wraps a store failure during a commit. The whole batch is
// rolled back; no compensating action runs automatically.
type RemoteWriteError struct {
	Op  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}
