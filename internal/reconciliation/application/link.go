package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/pkg/idgen"
	"github.com/casadecor/backoffice/pkg/logging"
)

// LinkCommand confirms that a transaction settles (part of) an invoice.
type LinkCommand struct {
	TenantID      string `json:"tenant_id"`
	ActorID       string `json:"actor_id"`
	TransactionID string `json:"transaction_id"`
	InvoiceID     string `json:"invoice_id"`
}

func (c LinkCommand) validate() error {
	if c.TenantID == "" || c.TransactionID == "" || c.InvoiceID == "" {
		return fmt.Errorf("%w: tenant_id, transaction_id and invoice_id are required", domain.ErrInvalidInput)
	}
	return nil
}

// Link runs the confirmation sequence: guard the transaction, lazily open the
// receivable account, settle an installment, record the link and recompute
// the aggregate. All writes happen in one unit of work. A version conflict on
// the account is retried with fresh state a bounded number of times.
func (s *Service) Link(ctx context.Context, cmd LinkCommand) (*LinkResult, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LinkTimeout)
	defer cancel()

	var (
		res *LinkResult
		err error
	)
	for attempt := 0; ; attempt++ {
		res, err = s.linkOnce(ctx, cmd)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) || attempt+1 >= s.cfg.LinkMaxRetries {
			s.countLinkFailure(err)
			return nil, err
		}
		logging.Warn(ctx, "link retry after version conflict",
			"transaction_id", cmd.TransactionID, "invoice_id", cmd.InvoiceID, "attempt", attempt+1)
	}

	if s.metrics != nil {
		s.metrics.LinksTotal.Inc()
	}
	s.publishLinked(ctx, cmd.TenantID, res)
	logging.Info(ctx, "transaction linked",
		"transaction_id", res.TransactionID, "invoice_id", res.InvoiceID,
		"installment_id", res.InstallmentID, "account_status", res.AccountStatus,
		"actor", cmd.ActorID)
	return res, nil
}

func (s *Service) linkOnce(ctx context.Context, cmd LinkCommand) (*LinkResult, error) {
	var res *LinkResult
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		txn, err := s.transactions.Get(ctx, cmd.TenantID, cmd.TransactionID)
		if err != nil {
			return err
		}
		if txn.Linked() {
			return domain.ErrAlreadyLinked
		}
		if txn.Ignored {
			return domain.ErrTransactionIgnored
		}

		inv, err := s.invoices.Get(ctx, cmd.TenantID, cmd.InvoiceID)
		if err != nil {
			return err
		}

		acc, err := s.receivables.GetAccountByInvoice(ctx, cmd.TenantID, cmd.InvoiceID)
		if err != nil {
			return err
		}
		if acc == nil {
			acc = domain.NewReceivableAccount(idgen.GenKey("RCV"), inv)
			if err := s.receivables.CreateAccount(ctx, acc); err != nil {
				return err
			}
		}

		installments, err := s.receivables.ListInstallments(ctx, acc.AccountID)
		if err != nil {
			return err
		}
		inst := firstPending(installments)
		if inst == nil {
			inst = domain.NewInstallment(
				idgen.GenKey("PAR"), acc.AccountID,
				nextSequence(installments), txn.Amount.Abs(), txn.Date,
			)
			if err := s.receivables.CreateInstallment(ctx, inst); err != nil {
				return err
			}
		}
		if err := inst.MarkPaid(txn.Amount.Abs(), txn.Date); err != nil {
			return err
		}
		if err := s.receivables.SaveInstallment(ctx, inst); err != nil {
			return err
		}

		if err := txn.LinkTo(inst.InstallmentID); err != nil {
			return err
		}
		if err := s.transactions.Save(ctx, txn); err != nil {
			return err
		}

		installments, err = s.receivables.ListInstallments(ctx, acc.AccountID)
		if err != nil {
			return err
		}
		acc.Recompute(installments)
		acc.InstallmentCount = len(installments)
		if err := s.receivables.SaveAccount(ctx, acc); err != nil {
			return err
		}

		res = &LinkResult{
			TransactionID:       txn.TransactionID,
			InvoiceID:           inv.InvoiceID,
			AccountID:           acc.AccountID,
			InstallmentID:       inst.InstallmentID,
			InstallmentSequence: inst.Sequence,
			AmountApplied:       inst.Amount.String(),
			AccountStatus:       acc.Status.String(),
			AmountPaid:          acc.AmountPaid.String(),
			TotalAmount:         acc.TotalAmount.String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// firstPending returns the earliest-due pending installment; the repository
// already orders by due date.
func firstPending(installments []*domain.Installment) *domain.Installment {
	for _, in := range installments {
		if in.Status == domain.InstallmentPending {
			return in
		}
	}
	return nil
}

func nextSequence(installments []*domain.Installment) int {
	max := 0
	for _, in := range installments {
		if in.Sequence > max {
			max = in.Sequence
		}
	}
	return max + 1
}

func (s *Service) publishLinked(ctx context.Context, tenantID string, res *LinkResult) {
	if s.publisher == nil {
		return
	}
	event := domain.LinkedEvent{
		EventType:     domain.EventTypeLinked,
		TenantID:      tenantID,
		TransactionID: res.TransactionID,
		InvoiceID:     res.InvoiceID,
		AccountID:     res.AccountID,
		InstallmentID: res.InstallmentID,
		Amount:        res.AmountApplied,
		AccountStatus: res.AccountStatus,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, domain.TopicReconciliation, res.TransactionID, event); err != nil {
		// The link is already committed; losing the event must not fail it.
		logging.Error(ctx, "publish linked event failed", "transaction_id", res.TransactionID, "error", err)
	}
}

func (s *Service) countLinkFailure(err error) {
	if s.metrics == nil {
		return
	}
	reason := "other"
	switch {
	case errors.Is(err, domain.ErrAlreadyLinked):
		reason = "already_linked"
	case errors.Is(err, domain.ErrTransactionIgnored):
		reason = "ignored"
	case errors.Is(err, domain.ErrTransactionNotFound), errors.Is(err, domain.ErrInvoiceNotFound):
		reason = "not_found"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		reason = "conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		reason = "invalid"
	}
	s.metrics.LinkFailuresTotal.WithLabelValues(reason).Inc()
}
