package domain

import (
	"context"
)

// TransactionRepository persists bank statement entries. The engine only
// mutates link and ignore state; the importer owns everything else.
type TransactionRepository interface {
	Get(ctx context.Context, tenantID, transactionID string) (*Transaction, error)
	// ListUnlinked returns the orphan pool for one direction. includeIgnored
	// widens the listing to transactions parked in the ignored pool.
	ListUnlinked(ctx context.Context, tenantID string, direction Direction, includeIgnored bool) ([]*Transaction, error)
	// Save writes back link/ignore state changes.
	Save(ctx context.Context, t *Transaction) error
}

// InvoiceReader is the read-only view onto the quoting subsystem.
type InvoiceReader interface {
	Get(ctx context.Context, tenantID, invoiceID string) (*Invoice, error)
	ListByStatus(ctx context.Context, tenantID string, statuses []InvoiceStatus) ([]*Invoice, error)
}

// ReceivableRepository persists the ledger pair the linker mutates: the
// per-invoice account header and its installments. SaveAccount must enforce
// the optimistic version check and return ErrConcurrencyConflict on a stale
// write.
type ReceivableRepository interface {
	GetAccountByInvoice(ctx context.Context, tenantID, invoiceID string) (*ReceivableAccount, error)
	CreateAccount(ctx context.Context, a *ReceivableAccount) error
	SaveAccount(ctx context.Context, a *ReceivableAccount) error
	// ListInstallments returns every installment under the account ordered
	// by due date ascending, sequence as tie-break.
	ListInstallments(ctx context.Context, accountID string) ([]*Installment, error)
	CreateInstallment(ctx context.Context, in *Installment) error
	SaveInstallment(ctx context.Context, in *Installment) error
}

// RunRepository persists batch run reports.
type RunRepository interface {
	SaveRun(ctx context.Context, run *ReconciliationRun) error
	GetRun(ctx context.Context, tenantID, runID string) (*ReconciliationRun, error)
}

// UnitOfWork brackets the linker's five-step sequence: every repository call
// made inside fn joins the same database transaction, and either all steps
// persist or none do.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher notifies downstream collaborators (dashboards, reporting)
// of ledger changes.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
