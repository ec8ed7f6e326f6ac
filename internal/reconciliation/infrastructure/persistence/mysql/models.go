// Package mysql persists the reconciliation aggregates with gorm. Repository
// methods join the caller's transaction when one travels in the context.
package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
)

// TransactionPO maps the imported bank statement entries. The importer writes
// most columns; the engine only updates link and ignore state.
type TransactionPO struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
	TransactionID string          `gorm:"column:transaction_id;type:varchar(64);not null;uniqueIndex:uk_tenant_txn,priority:2"`
	TenantID      string          `gorm:"column:tenant_id;type:varchar(64);not null;uniqueIndex:uk_tenant_txn,priority:1;index:idx_tenant_pool,priority:1"`
	Description   string          `gorm:"type:varchar(512);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Direction     string          `gorm:"type:varchar(16);not null;index:idx_tenant_pool,priority:2"`
	TxnDate       time.Time       `gorm:"column:txn_date;not null"`
	Category      string          `gorm:"type:varchar(64)"`
	InstallmentID string          `gorm:"column:installment_id;type:varchar(64);index"`
	Ignored       bool            `gorm:"not null;default:0"`
	IgnoreReason  string          `gorm:"type:varchar(32)"`
	IgnoreNote    string          `gorm:"type:varchar(255)"`
}

func (TransactionPO) TableName() string { return "bank_transactions" }

// InvoicePO is the engine's read-only view of the quoting tables.
type InvoicePO struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	InvoiceID   string          `gorm:"column:invoice_id;type:varchar(64);not null;uniqueIndex:uk_tenant_invoice,priority:2"`
	TenantID    string          `gorm:"column:tenant_id;type:varchar(64);not null;uniqueIndex:uk_tenant_invoice,priority:1;index:idx_tenant_status,priority:1"`
	Code        string          `gorm:"type:varchar(32);not null"`
	ClientName  string          `gorm:"type:varchar(255);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status      string          `gorm:"type:varchar(32);not null;index:idx_tenant_status,priority:2"`
}

func (InvoicePO) TableName() string { return "invoices" }

// ReceivableAccountPO is the per-invoice ledger header. version backs the
// optimistic concurrency check in SaveAccount.
type ReceivableAccountPO struct {
	ID               uint            `gorm:"primaryKey;autoIncrement"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
	AccountID        string          `gorm:"column:account_id;type:varchar(64);not null;uniqueIndex"`
	TenantID         string          `gorm:"column:tenant_id;type:varchar(64);not null;uniqueIndex:uk_tenant_invoice,priority:1"`
	InvoiceID        string          `gorm:"column:invoice_id;type:varchar(64);not null;uniqueIndex:uk_tenant_invoice,priority:2"`
	ClientName       string          `gorm:"type:varchar(255);not null"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AmountPaid       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	InstallmentCount int             `gorm:"not null;default:0"`
	Status           int8            `gorm:"not null;default:1"`
	Version          int64           `gorm:"not null;default:1"`
}

func (ReceivableAccountPO) TableName() string { return "receivable_accounts" }

// InstallmentPO is one payment slice under an account.
type InstallmentPO struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
	InstallmentID string          `gorm:"column:installment_id;type:varchar(64);not null;uniqueIndex"`
	AccountID     string          `gorm:"column:account_id;type:varchar(64);not null;index"`
	Sequence      int             `gorm:"column:seq;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DueDate       time.Time       `gorm:"not null"`
	PaymentDate   *time.Time
	Status        int8 `gorm:"not null;default:1"`
}

func (InstallmentPO) TableName() string { return "receivable_installments" }

// RunPO is the audit header of one batch run.
type RunPO struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
	RunID        string    `gorm:"column:run_id;type:varchar(64);not null;uniqueIndex"`
	TenantID     string    `gorm:"column:tenant_id;type:varchar(64);not null;index"`
	TriggeredBy  string    `gorm:"type:varchar(64)"`
	Scheduled    bool      `gorm:"not null;default:0"`
	Status       int8      `gorm:"not null;default:1"`
	LinkedCount  int32     `gorm:"not null;default:0"`
	SkippedCount int32     `gorm:"not null;default:0"`
}

func (RunPO) TableName() string { return "reconciliation_runs" }

// RunItemPO is the per-selection outcome inside a run.
type RunItemPO struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	RunID         string    `gorm:"column:run_id;type:varchar(64);not null;index"`
	TransactionID string    `gorm:"column:transaction_id;type:varchar(64);not null"`
	InvoiceID     string    `gorm:"column:invoice_id;type:varchar(64)"`
	Score         float64   `gorm:"not null;default:0"`
	Status        int8      `gorm:"not null;default:1"`
	Reason        string    `gorm:"type:varchar(512)"`
}

func (RunItemPO) TableName() string { return "reconciliation_run_items" }

// AutoMigrate creates or updates every table the engine owns. The invoices
// table belongs to the quoting subsystem and is migrated here only for
// standalone deployments.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&TransactionPO{},
		&InvoicePO{},
		&ReceivableAccountPO{},
		&InstallmentPO{},
		&RunPO{},
		&RunItemPO{},
	)
}

func transactionToPO(t *domain.Transaction) *TransactionPO {
	return &TransactionPO{
		ID:            t.ID,
		TransactionID: t.TransactionID,
		TenantID:      t.TenantID,
		Description:   t.Description,
		Amount:        t.Amount,
		Direction:     string(t.Direction),
		TxnDate:       t.Date,
		Category:      t.Category,
		InstallmentID: t.InstallmentID,
		Ignored:       t.Ignored,
		IgnoreReason:  string(t.IgnoreReason),
		IgnoreNote:    t.IgnoreNote,
	}
}

func transactionToDomain(po *TransactionPO) *domain.Transaction {
	return &domain.Transaction{
		ID:            po.ID,
		CreatedAt:     po.CreatedAt,
		UpdatedAt:     po.UpdatedAt,
		TransactionID: po.TransactionID,
		TenantID:      po.TenantID,
		Description:   po.Description,
		Amount:        po.Amount,
		Direction:     domain.Direction(po.Direction),
		Date:          po.TxnDate,
		Category:      po.Category,
		InstallmentID: po.InstallmentID,
		Ignored:       po.Ignored,
		IgnoreReason:  domain.IgnoreReason(po.IgnoreReason),
		IgnoreNote:    po.IgnoreNote,
	}
}

func invoiceToDomain(po *InvoicePO) *domain.Invoice {
	return &domain.Invoice{
		InvoiceID:   po.InvoiceID,
		TenantID:    po.TenantID,
		Code:        po.Code,
		ClientName:  po.ClientName,
		TotalAmount: po.TotalAmount,
		Status:      domain.InvoiceStatus(po.Status),
		CreatedAt:   po.CreatedAt,
	}
}

func accountToPO(a *domain.ReceivableAccount) *ReceivableAccountPO {
	return &ReceivableAccountPO{
		ID:               a.ID,
		AccountID:        a.AccountID,
		TenantID:         a.TenantID,
		InvoiceID:        a.InvoiceID,
		ClientName:       a.ClientName,
		TotalAmount:      a.TotalAmount,
		AmountPaid:       a.AmountPaid,
		InstallmentCount: a.InstallmentCount,
		Status:           int8(a.Status),
		Version:          a.Version,
	}
}

func accountToDomain(po *ReceivableAccountPO) *domain.ReceivableAccount {
	return &domain.ReceivableAccount{
		ID:               po.ID,
		CreatedAt:        po.CreatedAt,
		UpdatedAt:        po.UpdatedAt,
		AccountID:        po.AccountID,
		TenantID:         po.TenantID,
		InvoiceID:        po.InvoiceID,
		ClientName:       po.ClientName,
		TotalAmount:      po.TotalAmount,
		AmountPaid:       po.AmountPaid,
		InstallmentCount: po.InstallmentCount,
		Status:           domain.AccountStatus(po.Status),
		Version:          po.Version,
	}
}

func installmentToPO(in *domain.Installment) *InstallmentPO {
	return &InstallmentPO{
		ID:            in.ID,
		InstallmentID: in.InstallmentID,
		AccountID:     in.AccountID,
		Sequence:      in.Sequence,
		Amount:        in.Amount,
		DueDate:       in.DueDate,
		PaymentDate:   in.PaymentDate,
		Status:        int8(in.Status),
	}
}

func installmentToDomain(po *InstallmentPO) *domain.Installment {
	return &domain.Installment{
		ID:            po.ID,
		CreatedAt:     po.CreatedAt,
		UpdatedAt:     po.UpdatedAt,
		InstallmentID: po.InstallmentID,
		AccountID:     po.AccountID,
		Sequence:      po.Sequence,
		Amount:        po.Amount,
		DueDate:       po.DueDate,
		PaymentDate:   po.PaymentDate,
		Status:        domain.InstallmentStatus(po.Status),
	}
}
