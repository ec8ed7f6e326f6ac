package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/pkg/logging"
)

// IgnoreCommand parks transactions in the ignored pool.
type IgnoreCommand struct {
	TenantID       string              `json:"tenant_id"`
	ActorID        string              `json:"actor_id"`
	TransactionIDs []string            `json:"transaction_ids"`
	Reason         domain.IgnoreReason `json:"reason"`
	Note           string              `json:"note"`
}

// RestoreCommand returns ignored transactions to the orphan pool.
type RestoreCommand struct {
	TenantID       string   `json:"tenant_id"`
	ActorID        string   `json:"actor_id"`
	TransactionIDs []string `json:"transaction_ids"`
}

// OrphanQuery filters the orphan listing.
type OrphanQuery struct {
	TenantID       string
	Direction      domain.Direction
	IncludeIgnored bool
	// Search matches the transaction description or the suggested invoice's
	// code and client name, accent and case insensitive.
	Search string
	// Statuses overrides the invoice pool suggestions are drawn from.
	Statuses []domain.InvoiceStatus
}

// IgnoreTransactions processes every id independently: one bad id does not
// block the rest of a bulk selection.
func (s *Service) IgnoreTransactions(ctx context.Context, cmd IgnoreCommand) (*BulkResult, error) {
	if cmd.TenantID == "" || len(cmd.TransactionIDs) == 0 {
		return nil, fmt.Errorf("%w: tenant_id and transaction_ids are required", domain.ErrInvalidInput)
	}
	if !cmd.Reason.Valid() {
		return nil, fmt.Errorf("%w: unknown ignore reason %q", domain.ErrInvalidInput, cmd.Reason)
	}
	if cmd.Reason == domain.ReasonOther && strings.TrimSpace(cmd.Note) == "" {
		return nil, fmt.Errorf("%w: reason OTHER requires a note", domain.ErrInvalidInput)
	}

	res := &BulkResult{}
	for _, id := range cmd.TransactionIDs {
		if err := s.ignoreOne(ctx, cmd.TenantID, id, cmd.Reason, cmd.Note); err != nil {
			res.Failures = append(res.Failures, ItemFailure{TransactionID: id, Reason: err.Error()})
			continue
		}
		res.Updated++
		if s.metrics != nil {
			s.metrics.IgnoredTotal.Inc()
		}
	}
	logging.Info(ctx, "transactions ignored",
		"tenant_id", cmd.TenantID, "reason", cmd.Reason,
		"updated", res.Updated, "failed", len(res.Failures), "actor", cmd.ActorID)
	return res, nil
}

func (s *Service) ignoreOne(ctx context.Context, tenantID, transactionID string, reason domain.IgnoreReason, note string) error {
	txn, err := s.transactions.Get(ctx, tenantID, transactionID)
	if err != nil {
		return err
	}
	if err := txn.Ignore(reason, note); err != nil {
		return err
	}
	if err := s.transactions.Save(ctx, txn); err != nil {
		return err
	}
	s.publishIgnored(ctx, tenantID, transactionID, domain.EventTypeIgnored, string(reason))
	return nil
}

// RestoreTransactions is the inverse of IgnoreTransactions with the same
// per-item isolation.
func (s *Service) RestoreTransactions(ctx context.Context, cmd RestoreCommand) (*BulkResult, error) {
	if cmd.TenantID == "" || len(cmd.TransactionIDs) == 0 {
		return nil, fmt.Errorf("%w: tenant_id and transaction_ids are required", domain.ErrInvalidInput)
	}

	res := &BulkResult{}
	for _, id := range cmd.TransactionIDs {
		if err := s.restoreOne(ctx, cmd.TenantID, id); err != nil {
			res.Failures = append(res.Failures, ItemFailure{TransactionID: id, Reason: err.Error()})
			continue
		}
		res.Updated++
		if s.metrics != nil {
			s.metrics.RestoredTotal.Inc()
		}
	}
	logging.Info(ctx, "transactions restored",
		"tenant_id", cmd.TenantID, "updated", res.Updated, "failed", len(res.Failures), "actor", cmd.ActorID)
	return res, nil
}

func (s *Service) restoreOne(ctx context.Context, tenantID, transactionID string) error {
	txn, err := s.transactions.Get(ctx, tenantID, transactionID)
	if err != nil {
		return err
	}
	if err := txn.Restore(); err != nil {
		return err
	}
	if err := s.transactions.Save(ctx, txn); err != nil {
		return err
	}
	s.publishIgnored(ctx, tenantID, transactionID, domain.EventTypeRestored, "")
	return nil
}

// ListOrphans returns the unmatched pool with the engine's best suggestion
// attached to each inflow entry.
func (s *Service) ListOrphans(ctx context.Context, q OrphanQuery) ([]OrphanDTO, error) {
	if q.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrInvalidInput)
	}

	orphans, err := s.transactions.ListUnlinked(ctx, q.TenantID, q.Direction, q.IncludeIgnored)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.ListByStatus(ctx, q.TenantID, resolveStatuses(q.Statuses))
	if err != nil {
		return nil, err
	}

	search := domain.NormalizeText(q.Search)
	out := make([]OrphanDTO, 0, len(orphans))
	for _, txn := range orphans {
		dto := OrphanDTO{Transaction: toTransactionDTO(txn)}
		if txn.Direction == domain.DirectionInflow && !txn.Ignored {
			if best, ok := s.matcher.FindBestMatch(txn, invoices); ok {
				sug := toSuggestionDTO(best)
				dto.Suggestion = &sug
			}
		}
		if search != "" && !orphanMatches(dto, search) {
			continue
		}
		out = append(out, dto)
	}
	return out, nil
}

func orphanMatches(o OrphanDTO, search string) bool {
	if strings.Contains(domain.NormalizeText(o.Transaction.Description), search) {
		return true
	}
	if o.Suggestion == nil {
		return false
	}
	return strings.Contains(domain.NormalizeText(o.Suggestion.InvoiceCode), search) ||
		strings.Contains(domain.NormalizeText(o.Suggestion.ClientName), search)
}

func (s *Service) publishIgnored(ctx context.Context, tenantID, transactionID, eventType, reason string) {
	if s.publisher == nil {
		return
	}
	event := domain.IgnoredEvent{
		EventType:     eventType,
		TenantID:      tenantID,
		TransactionID: transactionID,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, domain.TopicReconciliation, transactionID, event); err != nil {
		logging.Error(ctx, "publish ignore event failed", "transaction_id", transactionID, "error", err)
	}
}
