package application

import (
	"context"
	"fmt"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
)

// PreviewMatches ranks every eligible invoice against one transaction. Works
// for ignored transactions too, so an operator can check what a restore would
// surface; linked transactions have nothing left to match.
// Callers may narrow or widen the invoice pool with an explicit status
// filter; the default is the eligible set.
func (s *Service) PreviewMatches(ctx context.Context, tenantID, transactionID string, statuses ...domain.InvoiceStatus) (*MatchPreviewDTO, error) {
	if tenantID == "" || transactionID == "" {
		return nil, fmt.Errorf("%w: tenant_id and transaction_id are required", domain.ErrInvalidInput)
	}

	txn, err := s.transactions.Get(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Linked() {
		return nil, domain.ErrAlreadyLinked
	}

	invoices, err := s.invoices.ListByStatus(ctx, tenantID, resolveStatuses(statuses))
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.CandidatesScored.Add(float64(len(invoices)))
	}

	ranked := s.matcher.RankMatches(txn, invoices)
	out := &MatchPreviewDTO{
		Transaction: toTransactionDTO(txn),
		Candidates:  make([]MatchSuggestionDTO, 0, len(ranked)),
	}
	for _, c := range ranked {
		out.Candidates = append(out.Candidates, toSuggestionDTO(c))
	}
	return out, nil
}

func resolveStatuses(statuses []domain.InvoiceStatus) []domain.InvoiceStatus {
	if len(statuses) == 0 {
		return domain.EligibleStatuses()
	}
	return statuses
}

// GetRun fetches a persisted batch run report.
func (s *Service) GetRun(ctx context.Context, tenantID, runID string) (*RunReportDTO, error) {
	if tenantID == "" || runID == "" {
		return nil, fmt.Errorf("%w: tenant_id and run_id are required", domain.ErrInvalidInput)
	}
	run, err := s.runs.GetRun(ctx, tenantID, runID)
	if err != nil {
		return nil, err
	}
	return toRunReportDTO(run), nil
}
