package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/casadecor/backoffice/internal/reconciliation/application"
	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/internal/reconciliation/infrastructure/persistence/memory"
)

const tenant = "casadecor"

func newService(t *testing.T, store *memory.Store, recorder *memory.EventRecorder, override func(*application.Repositories)) *application.Service {
	t.Helper()
	repos := application.Repositories{
		Transactions: store,
		Invoices:     store.Invoices(),
		Receivables:  store,
		Runs:         store,
		UoW:          memory.UnitOfWork{Store: store},
	}
	if override != nil {
		override(&repos)
	}
	// A nil *memory.EventRecorder must become a nil interface, or the
	// service's publisher nil-check never trips.
	var publisher domain.EventPublisher
	if recorder != nil {
		publisher = recorder
	}
	svc, err := application.NewService(application.Config{
		Scoring:        domain.DefaultScoringConfig(),
		LinkTimeout:    2 * time.Second,
		LinkMaxRetries: 3,
	}, repos, publisher, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedInvoice(store *memory.Store, id, code, client string, total int64, created time.Time) {
	store.SeedInvoice(&domain.Invoice{
		InvoiceID:   id,
		TenantID:    tenant,
		Code:        code,
		ClientName:  client,
		TotalAmount: decimal.NewFromInt(total),
		Status:      domain.InvoiceSent,
		CreatedAt:   created,
	})
}

func seedTxn(store *memory.Store, id, desc string, amount float64, date time.Time) {
	store.SeedTransaction(&domain.Transaction{
		TransactionID: id,
		TenantID:      tenant,
		Description:   desc,
		Amount:        decimal.NewFromFloat(amount),
		Direction:     domain.DirectionInflow,
		Date:          date,
	})
}

func TestLink_CreatesAccountAndSettlesInstallment(t *testing.T) {
	store := memory.NewStore()
	recorder := &memory.EventRecorder{}
	svc := newService(t, store, recorder, nil)
	ctx := context.Background()

	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	seedInvoice(store, "ORC-001", "2026-0142", "Maria Silva", 1000, created)
	seedTxn(store, "TXN-1", "PIX RECEBIDO MARIA SILVA", 500, created.AddDate(0, 0, 2))

	res, err := svc.Link(ctx, application.LinkCommand{
		TenantID: tenant, ActorID: "operator-1",
		TransactionID: "TXN-1", InvoiceID: "ORC-001",
	})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if res.AccountStatus != "PARTIAL" {
		t.Errorf("account status = %s, want PARTIAL", res.AccountStatus)
	}
	if res.AmountPaid != "500" {
		t.Errorf("amount paid = %s, want 500", res.AmountPaid)
	}
	if res.InstallmentSequence != 1 {
		t.Errorf("sequence = %d, want 1", res.InstallmentSequence)
	}

	txn, _ := store.Get(ctx, tenant, "TXN-1")
	if txn.InstallmentID != res.InstallmentID {
		t.Errorf("transaction installment = %s, want %s", txn.InstallmentID, res.InstallmentID)
	}

	acc, err := store.GetAccountByInvoice(ctx, tenant, "ORC-001")
	if err != nil || acc == nil {
		t.Fatalf("account not created: %v", err)
	}
	if acc.Status != domain.AccountPartial {
		t.Errorf("persisted status = %s, want PARTIAL", acc.Status)
	}
	if len(recorder.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(recorder.Events))
	}
	ev, ok := recorder.Events[0].Event.(domain.LinkedEvent)
	if !ok || ev.EventType != domain.EventTypeLinked {
		t.Errorf("unexpected event %+v", recorder.Events[0])
	}
}

func TestLink_SecondPaymentReusesAccountAndPaysInFull(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store, nil, nil)
	ctx := context.Background()

	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	seedInvoice(store, "ORC-001", "2026-0142", "Maria Silva", 1000, created)
	seedTxn(store, "TXN-1", "PIX RECEBIDO MARIA SILVA", 500, created.AddDate(0, 0, 2))
	seedTxn(store, "TXN-2", "PIX RECEBIDO MARIA SILVA", 500, created.AddDate(0, 0, 30))

	first, err := svc.Link(ctx, application.LinkCommand{TenantID: tenant, TransactionID: "TXN-1", InvoiceID: "ORC-001"})
	if err != nil {
		t.Fatalf("first link: %v", err)
	}
	second, err := svc.Link(ctx, application.LinkCommand{TenantID: tenant, TransactionID: "TXN-2", InvoiceID: "ORC-001"})
	if err != nil {
		t.Fatalf("second link: %v", err)
	}

	if second.AccountID != first.AccountID {
		t.Errorf("second link opened a new account %s, want %s", second.AccountID, first.AccountID)
	}
	if second.InstallmentSequence != 2 {
		t.Errorf("second sequence = %d, want 2", second.InstallmentSequence)
	}
	if second.AccountStatus != "PAID" {
		t.Errorf("account status after full payment = %s, want PAID", second.AccountStatus)
	}
	if second.AmountPaid != "1000" {
		t.Errorf("amount paid = %s, want 1000", second.AmountPaid)
	}

	installments, _ := store.ListInstallments(ctx, first.AccountID)
	if len(installments) != 2 {
		t.Fatalf("installments = %d, want 2", len(installments))
	}
	for _, in := range installments {
		if in.Status != domain.InstallmentPaid {
			t.Errorf("installment %s status = %s, want PAID", in.InstallmentID, in.Status)
		}
	}
}

func TestLink_Guards(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store, nil, nil)
	ctx := context.Background()

	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	seedInvoice(store, "ORC-001", "2026-0142", "Maria Silva", 1000, created)
	seedTxn(store, "TXN-1", "PIX RECEBIDO MARIA SILVA", 500, created.AddDate(0, 0, 2))
	seedTxn(store, "TXN-2", "TED RECEBIDA MARIA SILVA", 500, created.AddDate(0, 0, 5))
	seedTxn(store, "TXN-IGN", "TARIFA BANCARIA", 12.50, created)

	ignored, _ := store.Get(ctx, tenant, "TXN-IGN")
	if err := ignored.Ignore(domain.ReasonBankFee, ""); err != nil {
		t.Fatalf("seed ignore: %v", err)
	}
	if err := store.Save(ctx, ignored); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	if _, err := svc.Link(ctx, application.LinkCommand{TenantID: tenant, TransactionID: "TXN-1", InvoiceID: "ORC-001"}); err != nil {
		t.Fatalf("setup link: %v", err)
	}

	tests := []struct {
		name    string
		cmd     application.LinkCommand
		wantErr error
	}{
		{"relink", application.LinkCommand{TenantID: tenant, TransactionID: "TXN-1", InvoiceID: "ORC-001"}, domain.ErrAlreadyLinked},
		{"ignored", application.LinkCommand{TenantID: tenant, TransactionID: "TXN-IGN", InvoiceID: "ORC-001"}, domain.ErrTransactionIgnored},
		{"missing transaction", application.LinkCommand{TenantID: tenant, TransactionID: "TXN-404", InvoiceID: "ORC-001"}, domain.ErrTransactionNotFound},
		{"missing invoice", application.LinkCommand{TenantID: tenant, TransactionID: "TXN-2", InvoiceID: "ORC-404"}, domain.ErrInvoiceNotFound},
		{"empty input", application.LinkCommand{TenantID: tenant}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Link(ctx, tt.cmd)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Link error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// The failed relink must not have moved the ledger.
	acc, _ := store.GetAccountByInvoice(ctx, tenant, "ORC-001")
	if !acc.AmountPaid.Equal(decimal.NewFromInt(500)) {
		t.Errorf("amount paid after failed relink = %s, want 500", acc.AmountPaid)
	}
}

// conflictOnce makes the first account write fail with a version conflict,
// as if another operator confirmed a link in between.
type conflictOnce struct {
	domain.ReceivableRepository
	fired bool
}

func (c *conflictOnce) SaveAccount(ctx context.Context, a *domain.ReceivableAccount) error {
	if !c.fired {
		c.fired = true
		return domain.ErrConcurrencyConflict
	}
	return c.ReceivableRepository.SaveAccount(ctx, a)
}

func TestLink_RetriesOnVersionConflict(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store, nil, func(r *application.Repositories) {
		r.Receivables = &conflictOnce{ReceivableRepository: store}
	})
	ctx := context.Background()

	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	seedInvoice(store, "ORC-001", "2026-0142", "Maria Silva", 1000, created)
	seedTxn(store, "TXN-1", "PIX RECEBIDO MARIA SILVA", 500, created.AddDate(0, 0, 2))

	res, err := svc.Link(ctx, application.LinkCommand{TenantID: tenant, TransactionID: "TXN-1", InvoiceID: "ORC-001"})
	if err != nil {
		t.Fatalf("Link after conflict: %v", err)
	}
	if res.AccountStatus != "PARTIAL" {
		t.Errorf("account status = %s, want PARTIAL", res.AccountStatus)
	}

	// Exactly one installment survived the rolled back first attempt.
	installments, _ := store.ListInstallments(ctx, res.AccountID)
	if len(installments) != 1 {
		t.Errorf("installments = %d, want 1", len(installments))
	}
}
