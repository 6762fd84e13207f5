package ledger

import "errors"

// Failure classes surfaced by the executor. Callers match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidMargin     = errors.New("invalid margin")
	ErrInvalidAmount     = errors.New("invalid amount")
)
