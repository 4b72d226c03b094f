package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("missing or malformed request fields")
	ErrRateUnavailable      = errors.New("no exchange rate available for asset")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrTransferNotFound     = errors.New("deposit/transfer not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrBankDetailNotFound   = errors.New("no bank details linked to user")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
)

// ProviderError is a non-2xx response from the settlement provider or the
// banking rails. It carries the upstream status code and message and is never
// retried by the immediate caller.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d: %s", e.Provider, e.StatusCode, e.Message)
}

// AsProvider unwraps err into a *ProviderError if possible.
func AsProvider(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
