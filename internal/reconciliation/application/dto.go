package application

import (
	"time"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
)

// TransactionDTO is the wire shape of a bank statement entry.
type TransactionDTO struct {
	TransactionID string    `json:"transaction_id"`
	Description   string    `json:"description"`
	Amount        string    `json:"amount"`
	Direction     string    `json:"direction"`
	Date          time.Time `json:"date"`
	Category      string    `json:"category,omitempty"`
	InstallmentID string    `json:"installment_id,omitempty"`
	Ignored       bool      `json:"ignored"`
	IgnoreReason  string    `json:"ignore_reason,omitempty"`
	IgnoreNote    string    `json:"ignore_note,omitempty"`
}

// MatchSuggestionDTO is one scored invoice candidate.
type MatchSuggestionDTO struct {
	InvoiceID   string                `json:"invoice_id"`
	InvoiceCode string                `json:"invoice_code"`
	ClientName  string                `json:"client_name"`
	TotalAmount string                `json:"total_amount"`
	Score       domain.ScoreBreakdown `json:"score"`
}

// MatchPreviewDTO pairs a transaction with its ranked candidates.
type MatchPreviewDTO struct {
	Transaction TransactionDTO       `json:"transaction"`
	Candidates  []MatchSuggestionDTO `json:"candidates"`
}

// OrphanDTO is one unmatched transaction plus its best suggestion, when any
// invoice clears the acceptance floor.
type OrphanDTO struct {
	Transaction TransactionDTO      `json:"transaction"`
	Suggestion  *MatchSuggestionDTO `json:"suggestion,omitempty"`
}

// LinkResult reports the ledger state a confirmed link produced.
type LinkResult struct {
	TransactionID       string `json:"transaction_id"`
	InvoiceID           string `json:"invoice_id"`
	AccountID           string `json:"account_id"`
	InstallmentID       string `json:"installment_id"`
	InstallmentSequence int    `json:"installment_sequence"`
	AmountApplied       string `json:"amount_applied"`
	AccountStatus       string `json:"account_status"`
	AmountPaid          string `json:"amount_paid"`
	TotalAmount         string `json:"total_amount"`
}

// BatchSelection is one row of a batch preview: the best match the engine
// would confirm for a transaction.
type BatchSelection struct {
	TransactionID string                `json:"transaction_id"`
	Description   string                `json:"description"`
	Amount        string                `json:"amount"`
	InvoiceID     string                `json:"invoice_id"`
	InvoiceCode   string                `json:"invoice_code"`
	ClientName    string                `json:"client_name"`
	Score         domain.ScoreBreakdown `json:"score"`
}

// RunItemDTO is the per-selection outcome inside a run report.
type RunItemDTO struct {
	TransactionID string  `json:"transaction_id"`
	InvoiceID     string  `json:"invoice_id"`
	Score         float64 `json:"score"`
	Status        string  `json:"status"`
	Reason        string  `json:"reason,omitempty"`
}

// RunReportDTO is the audit record of one batch apply.
type RunReportDTO struct {
	RunID        string       `json:"run_id"`
	TenantID     string       `json:"tenant_id"`
	TriggeredBy  string       `json:"triggered_by"`
	Scheduled    bool         `json:"scheduled"`
	Status       string       `json:"status"`
	LinkedCount  int32        `json:"linked_count"`
	SkippedCount int32        `json:"skipped_count"`
	Items        []RunItemDTO `json:"items"`
}

// BulkResult reports a multi-item ignore/restore: how many changed and why
// the rest did not.
type BulkResult struct {
	Updated  int           `json:"updated"`
	Failures []ItemFailure `json:"failures,omitempty"`
}

// ItemFailure names the transaction an ignore/restore skipped and why.
type ItemFailure struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

func toTransactionDTO(t *domain.Transaction) TransactionDTO {
	return TransactionDTO{
		TransactionID: t.TransactionID,
		Description:   t.Description,
		Amount:        t.Amount.String(),
		Direction:     string(t.Direction),
		Date:          t.Date,
		Category:      t.Category,
		InstallmentID: t.InstallmentID,
		Ignored:       t.Ignored,
		IgnoreReason:  string(t.IgnoreReason),
		IgnoreNote:    t.IgnoreNote,
	}
}

func toSuggestionDTO(c domain.MatchCandidate) MatchSuggestionDTO {
	return MatchSuggestionDTO{
		InvoiceID:   c.Invoice.InvoiceID,
		InvoiceCode: c.Invoice.Code,
		ClientName:  c.Invoice.ClientName,
		TotalAmount: c.Invoice.TotalAmount.String(),
		Score:       c.Score,
	}
}

func toRunReportDTO(run *domain.ReconciliationRun) *RunReportDTO {
	out := &RunReportDTO{
		RunID:        run.RunID,
		TenantID:     run.TenantID,
		TriggeredBy:  run.TriggeredBy,
		Scheduled:    run.Scheduled,
		Status:       run.Status.String(),
		LinkedCount:  run.LinkedCount,
		SkippedCount: run.SkippedCount,
		Items:        make([]RunItemDTO, 0, len(run.Items)),
	}
	for _, it := range run.Items {
		out.Items = append(out.Items, RunItemDTO{
			TransactionID: it.TransactionID,
			InvoiceID:     it.InvoiceID,
			Score:         it.Score,
			Status:        it.Status.String(),
			Reason:        it.Reason,
		})
	}
	return out
}
