package utils

import "errors"

// Settlement error taxonomy. Balance mutations abort the enclosing
// transaction on any of these; the HTTP layer maps them to status codes.
var (
	ErrorRecordNotFound = errors.New("record not found")

	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrExceedsOriginal        = errors.New("amount exceeds original")
	ErrAlreadyCancelled       = errors.New("record already cancelled")
	ErrMissingEntity          = errors.New("referenced entity not found")
	ErrInvalidPaymentMode     = errors.New("invalid payment mode")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
