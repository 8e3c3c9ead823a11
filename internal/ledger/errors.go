package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/wageledger/internal/calculator"
	"github.com/mmynk/wageledger/internal/models"
	"github.com/mmynk/wageledger/internal/storage"
)

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrOverpayment        = errors.New("payment exceeds outstanding balance")
	ErrEmployeeHasRecords = errors.New("employee has attendance or payments")

	// ErrBalanceOverflow is returned when an employee's outstanding balance
	// would not fit in an Amount.
	ErrBalanceOverflow = calculator.ErrBalanceOverflow

	// ErrStorageUnavailable is storage.ErrUnavailable; errors.Is matches either.
	ErrStorageUnavailable = storage.ErrUnavailable
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// OverpaymentError is returned when a payment is larger than what is owed.
type OverpaymentError struct {
	Amount      models.Amount
	Outstanding models.Amount
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds outstanding balance of %s", e.Amount, e.Outstanding)
}

func (e *OverpaymentError) Is(target error) bool {
	return target == ErrOverpayment
}

// domainError reports whether err already carries its classification.
func domainError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrEmployeeHasRecords) ||
		errors.Is(err, ErrBalanceOverflow) ||
		errors.Is(err, storage.ErrUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// storageError classifies any other failure as the store being unavailable.
func storageError(err error) error {
	if err == nil || domainError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
}
