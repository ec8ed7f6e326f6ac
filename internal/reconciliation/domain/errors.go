package domain

import "errors"

var (
	// ErrInvalidInput rejects malformed identifiers or missing fields before
	// any read happens.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTransactionNotFound means the referenced bank transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvoiceNotFound means the referenced quote does not exist.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrAlreadyLinked guards against linking a transaction twice. Batch
	// callers skip on it; it must never be silently overwritten.
	ErrAlreadyLinked = errors.New("transaction already linked to an installment")
	// ErrTransactionIgnored means the transaction sits in the ignored pool
	// and must be restored before it can be linked.
	ErrTransactionIgnored = errors.New("transaction is ignored")
	// ErrNotIgnored means restore was called on a transaction that is not ignored.
	ErrNotIgnored = errors.New("transaction is not ignored")
	// ErrConcurrencyConflict signals that the optimistic version check on a
	// receivable account failed; callers retry with fresh state a bounded
	// number of times.
	ErrConcurrencyConflict = errors.New("receivable account modified by another transaction")
	// ErrRunNotFound means the requested reconciliation run report does not exist.
	ErrRunNotFound = errors.New("reconciliation run not found")
)
