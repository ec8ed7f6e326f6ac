package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus mirrors the quoting subsystem's lifecycle. The engine never
// writes invoices; it only filters them into the candidate pool.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "DRAFT"
	InvoiceSent          InvoiceStatus = "SENT"
	InvoiceUnanswered    InvoiceStatus = "UNANSWERED"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoiceCancelled     InvoiceStatus = "CANCELLED"
)

// EligibleStatuses is the default candidate filter: quotes a customer could
// still be paying for. Draft, fully paid and cancelled quotes only enter the
// pool when a caller asks for them explicitly.
func EligibleStatuses() []InvoiceStatus {
	return []InvoiceStatus{InvoiceSent, InvoiceUnanswered, InvoicePartiallyPaid}
}

// Invoice is the read model of a customer quote (orçamento). Owned by the
// quoting subsystem; the engine reads code, client name, total and creation
// date, nothing else.
type Invoice struct {
	InvoiceID   string
	TenantID    string
	Code        string
	ClientName  string
	TotalAmount decimal.Decimal
	Status      InvoiceStatus
	CreatedAt   time.Time
}
