package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/pkg/logging"
)

// PreviewBatch computes, without writing anything, the selections a batch run
// would confirm: for every inflow orphan the single best invoice at or above
// the acceptance floor. Deterministic over the same data, so operators can
// inspect the preview and then apply it.
func (s *Service) PreviewBatch(ctx context.Context, tenantID string) ([]BatchSelection, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrInvalidInput)
	}

	orphans, err := s.transactions.ListUnlinked(ctx, tenantID, domain.DirectionInflow, false)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.ListByStatus(ctx, tenantID, domain.EligibleStatuses())
	if err != nil {
		return nil, err
	}

	selections := make([]BatchSelection, 0, len(orphans))
	for _, txn := range orphans {
		if s.metrics != nil {
			s.metrics.CandidatesScored.Add(float64(len(invoices)))
		}
		best, ok := s.matcher.FindBestMatch(txn, invoices)
		if !ok {
			continue
		}
		selections = append(selections, BatchSelection{
			TransactionID: txn.TransactionID,
			Description:   txn.Description,
			Amount:        txn.Amount.String(),
			InvoiceID:     best.Invoice.InvoiceID,
			InvoiceCode:   best.Invoice.Code,
			ClientName:    best.Invoice.ClientName,
			Score:         best.Score,
		})
	}
	sort.SliceStable(selections, func(i, j int) bool {
		a, b := selections[i], selections[j]
		if a.Score.TotalScore != b.Score.TotalScore {
			return a.Score.TotalScore > b.Score.TotalScore
		}
		if a.Score.NameScore != b.Score.NameScore {
			return a.Score.NameScore > b.Score.NameScore
		}
		return a.TransactionID < b.TransactionID
	})
	return selections, nil
}

// RunBatch previews and applies in one pass, recording the outcome of every
// selection in a persisted run report.
func (s *Service) RunBatch(ctx context.Context, tenantID, triggeredBy string, scheduled bool) (*RunReportDTO, error) {
	selections, err := s.PreviewBatch(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.ApplyBatch(ctx, tenantID, triggeredBy, scheduled, selections)
}

// ApplyBatch links the given selections in order. A failed selection is
// skipped with its reason; it never aborts the rest of the batch. When
// several selections target the same invoice, only the first (highest
// scoring) one is applied; the competitors stay in the orphan pool for
// manual review instead of stacking onto the same invoice unattended.
func (s *Service) ApplyBatch(ctx context.Context, tenantID, triggeredBy string, scheduled bool, selections []BatchSelection) (*RunReportDTO, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrInvalidInput)
	}

	run := domain.NewRun(uuid.NewString(), tenantID, triggeredBy, scheduled)
	logging.Info(ctx, "batch reconciliation started",
		"run_id", run.RunID, "tenant_id", tenantID, "selections", len(selections), "scheduled", scheduled)

	claimed := make(map[string]string, len(selections))
	for _, sel := range selections {
		item := domain.RunItem{
			RunID:         run.RunID,
			TransactionID: sel.TransactionID,
			InvoiceID:     sel.InvoiceID,
			Score:         sel.Score.TotalScore,
		}
		if winner, ok := claimed[sel.InvoiceID]; ok {
			item.Status = domain.RunItemSkipped
			item.Reason = "invoice already claimed by " + winner + " in this run"
			run.Items = append(run.Items, item)
			continue
		}
		_, err := s.Link(ctx, LinkCommand{
			TenantID:      tenantID,
			ActorID:       triggeredBy,
			TransactionID: sel.TransactionID,
			InvoiceID:     sel.InvoiceID,
		})
		if err != nil {
			item.Status = domain.RunItemSkipped
			item.Reason = err.Error()
		} else {
			item.Status = domain.RunItemLinked
			claimed[sel.InvoiceID] = sel.TransactionID
		}
		run.Items = append(run.Items, item)
	}

	run.Complete()
	if err := s.runs.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run %s: %w", run.RunID, err)
	}

	if s.metrics != nil {
		s.metrics.BatchRunsTotal.Inc()
		s.metrics.BatchLinked.Add(float64(run.LinkedCount))
		s.metrics.BatchSkipped.Add(float64(run.SkippedCount))
	}
	logging.Info(ctx, "batch reconciliation completed",
		"run_id", run.RunID, "linked", run.LinkedCount, "skipped", run.SkippedCount)
	return toRunReportDTO(run), nil
}
