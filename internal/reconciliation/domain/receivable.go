package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus int8
type InstallmentStatus int8

const (
	AccountPending AccountStatus = 1
	AccountPartial AccountStatus = 2
	AccountPaid    AccountStatus = 3

	InstallmentPending InstallmentStatus = 1
	InstallmentPaid    InstallmentStatus = 2
	InstallmentPartial InstallmentStatus = 3
	InstallmentOverdue InstallmentStatus = 4
)

func (s AccountStatus) String() string {
	switch s {
	case AccountPending:
		return "PENDING"
	case AccountPartial:
		return "PARTIAL"
	case AccountPaid:
		return "PAID"
	}
	return "UNKNOWN"
}

func (s InstallmentStatus) String() string {
	switch s {
	case InstallmentPending:
		return "PENDING"
	case InstallmentPaid:
		return "PAID"
	case InstallmentPartial:
		return "PARTIAL"
	case InstallmentOverdue:
		return "OVERDUE"
	}
	return "UNKNOWN"
}

// ReceivableAccount is the ledger header for one invoice (conta a receber).
// At most one account exists per invoice; it is created lazily on the first
// link. Version backs the optimistic concurrency check in the repository:
// two concurrent links against the same invoice must not both consume the
// same pending installment or add to amount_paid from a stale read.
type ReceivableAccount struct {
	ID               uint
	CreatedAt        time.Time
	UpdatedAt        time.Time
	AccountID        string
	TenantID         string
	InvoiceID        string
	ClientName       string
	TotalAmount      decimal.Decimal
	AmountPaid       decimal.Decimal
	InstallmentCount int
	Status           AccountStatus
	Version          int64
}

// NewReceivableAccount opens the ledger header for an invoice with nothing
// paid yet.
func NewReceivableAccount(accountID string, inv *Invoice) *ReceivableAccount {
	return &ReceivableAccount{
		AccountID:   accountID,
		TenantID:    inv.TenantID,
		InvoiceID:   inv.InvoiceID,
		ClientName:  inv.ClientName,
		TotalAmount: inv.TotalAmount,
		AmountPaid:  decimal.Zero,
		Status:      AccountPending,
	}
}

// Recompute derives amount_paid and status from the paid installments under
// the account. Invariant: PAID iff amount_paid >= total, PARTIAL iff
// 0 < amount_paid < total, PENDING otherwise.
func (a *ReceivableAccount) Recompute(installments []*Installment) {
	paid := decimal.Zero
	for _, in := range installments {
		if in.Status == InstallmentPaid {
			paid = paid.Add(in.Amount)
		}
	}
	a.AmountPaid = paid
	switch {
	case paid.GreaterThanOrEqual(a.TotalAmount) && a.TotalAmount.IsPositive():
		a.Status = AccountPaid
	case paid.IsPositive():
		a.Status = AccountPartial
	default:
		a.Status = AccountPending
	}
}

// Installment is one expected or realized payment slice (parcela) under a
// receivable account. Sequence numbers are unique within the account and
// assigned monotonically.
type Installment struct {
	ID            uint
	CreatedAt     time.Time
	UpdatedAt     time.Time
	InstallmentID string
	AccountID     string
	Sequence      int
	Amount        decimal.Decimal
	DueDate       time.Time
	PaymentDate   *time.Time
	Status        InstallmentStatus
}

// NewInstallment creates a pending installment expecting amount on dueDate.
func NewInstallment(installmentID, accountID string, sequence int, amount decimal.Decimal, dueDate time.Time) *Installment {
	return &Installment{
		InstallmentID: installmentID,
		AccountID:     accountID,
		Sequence:      sequence,
		Amount:        amount,
		DueDate:       dueDate,
		Status:        InstallmentPending,
	}
}

// MarkPaid settles the installment on paymentDate with the realized amount.
// A reused pre-created installment keeps its own amount only when the
// realized amount matches; otherwise the realized amount wins, because the
// ledger aggregate is derived from what the bank actually moved.
func (i *Installment) MarkPaid(amount decimal.Decimal, paymentDate time.Time) error {
	if i.Status == InstallmentPaid {
		return ErrInvalidInput
	}
	i.Amount = amount
	i.Status = InstallmentPaid
	d := paymentDate
	i.PaymentDate = &d
	return nil
}
