// Package domain holds the reconciliation engine's entities and the pure
// matching logic. Nothing in this package performs I/O; persistence is behind
// the repository interfaces in repository.go.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a bank statement entry.
type Direction string

const (
	DirectionInflow  Direction = "ENTRADA"
	DirectionOutflow Direction = "SAIDA"
)

// IgnoreReason is the closed set of reasons an operator may give when taking
// a transaction out of the reconciliation pool. ReasonOther carries free text.
type IgnoreReason string

const (
	ReasonBankFee          IgnoreReason = "BANK_FEE"
	ReasonInternalTransfer IgnoreReason = "INTERNAL_TRANSFER"
	ReasonReversal         IgnoreReason = "REVERSAL"
	ReasonTaxCharge        IgnoreReason = "TAX_CHARGE"
	ReasonAdjustment       IgnoreReason = "ACCOUNTING_ADJUSTMENT"
	ReasonOther            IgnoreReason = "OTHER"
)

// Valid reports whether r is one of the accepted ignore reasons.
func (r IgnoreReason) Valid() bool {
	switch r {
	case ReasonBankFee, ReasonInternalTransfer, ReasonReversal,
		ReasonTaxCharge, ReasonAdjustment, ReasonOther:
		return true
	}
	return false
}

// Transaction is one imported bank statement entry (lançamento).
// The importer owns creation; this engine only flips its link and ignore
// state. A transaction is linked to at most one installment, and an ignored
// transaction can never be linked at the same time.
type Transaction struct {
	ID            uint
	CreatedAt     time.Time
	UpdatedAt     time.Time
	TransactionID string
	TenantID      string
	Description   string
	Amount        decimal.Decimal
	Direction     Direction
	Date          time.Time
	Category      string
	InstallmentID string
	Ignored       bool
	IgnoreReason  IgnoreReason
	IgnoreNote    string
}

// Linked reports whether the transaction already settles an installment.
func (t *Transaction) Linked() bool {
	return t.InstallmentID != ""
}

// Orphan reports whether the transaction is a reconciliation candidate:
// not linked and not ignored.
func (t *Transaction) Orphan() bool {
	return !t.Linked() && !t.Ignored
}

// LinkTo records the installment this transaction settles. Fails with
// ErrAlreadyLinked when a link exists and ErrTransactionIgnored when the
// transaction sits in the ignored pool.
func (t *Transaction) LinkTo(installmentID string) error {
	if t.Linked() {
		return ErrAlreadyLinked
	}
	if t.Ignored {
		return ErrTransactionIgnored
	}
	if installmentID == "" {
		return ErrInvalidInput
	}
	t.InstallmentID = installmentID
	return nil
}

// Ignore moves the transaction into the ignored pool. Linked transactions
// cannot be ignored; re-ignoring just overwrites the reason.
func (t *Transaction) Ignore(reason IgnoreReason, note string) error {
	if t.Linked() {
		return ErrAlreadyLinked
	}
	if !reason.Valid() {
		return ErrInvalidInput
	}
	if reason == ReasonOther && strings.TrimSpace(note) == "" {
		return ErrInvalidInput
	}
	t.Ignored = true
	t.IgnoreReason = reason
	t.IgnoreNote = note
	return nil
}

// Restore returns a previously ignored transaction to the orphan pool.
// Restoring never touches link state: an ignored transaction is unlinked by
// invariant, so it comes back exactly as it was before the ignore.
func (t *Transaction) Restore() error {
	if !t.Ignored {
		return ErrNotIgnored
	}
	t.Ignored = false
	t.IgnoreReason = ""
	t.IgnoreNote = ""
	return nil
}
