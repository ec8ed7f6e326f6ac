package domain

import "time"

const (
	TopicReconciliation = "backoffice.reconciliation"

	EventTypeLinked   = "reconciliation.linked"
	EventTypeIgnored  = "reconciliation.ignored"
	EventTypeRestored = "reconciliation.restored"
)

// LinkedEvent announces that a transaction settled an installment and the
// receivable aggregate moved.
type LinkedEvent struct {
	EventType     string    `json:"event_type"`
	TenantID      string    `json:"tenant_id"`
	TransactionID string    `json:"transaction_id"`
	InvoiceID     string    `json:"invoice_id"`
	AccountID     string    `json:"account_id"`
	InstallmentID string    `json:"installment_id"`
	Amount        string    `json:"amount"`
	AccountStatus string    `json:"account_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// IgnoredEvent announces an orphan moved in or out of the ignored pool.
type IgnoredEvent struct {
	EventType     string    `json:"event_type"`
	TenantID      string    `json:"tenant_id"`
	TransactionID string    `json:"transaction_id"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
