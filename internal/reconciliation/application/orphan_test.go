package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/casadecor/backoffice/internal/reconciliation/application"
	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/internal/reconciliation/infrastructure/persistence/memory"
)

func TestIgnoreAndRestoreLifecycle(t *testing.T) {
	store := memory.NewStore()
	recorder := &memory.EventRecorder{}
	svc := newService(t, store, recorder, nil)
	ctx := context.Background()

	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	seedTxn(store, "TXN-FEE", "TARIFA PACOTE SERVICOS", 39.90, created)
	seedTxn(store, "TXN-1", "PIX RECEBIDO MARIA SILVA", 500, created)

	res, err := svc.IgnoreTransactions(ctx, application.IgnoreCommand{
		TenantID:       tenant,
		ActorID:        "operator-1",
		TransactionIDs: []string{"TXN-FEE"},
		Reason:         domain.ReasonBankFee,
	})
	if err != nil {
		t.Fatalf("IgnoreTransactions: %v", err)
	}
	if res.Updated != 1 || len(res.Failures) != 0 {
		t.Fatalf("result = %+v, want 1 updated", res)
	}

	// Gone from the default orphan listing, visible with includeIgnored.
	orphans, err := svc.ListOrphans(ctx, application.OrphanQuery{TenantID: tenant})
	if err != nil {
		t.Fatalf("ListOrphans: %v", err)
	}
	if len(orphans) != 1 || orphans[0].Transaction.TransactionID != "TXN-1" {
		t.Fatalf("default listing = %+v, want only TXN-1", orphans)
	}
	all, _ := svc.ListOrphans(ctx, application.OrphanQuery{TenantID: tenant, IncludeIgnored: true})
	if len(all) != 2 {
		t.Fatalf("includeIgnored listing = %d, want 2", len(all))
	}

	restored, err := svc.RestoreTransactions(ctx, application.RestoreCommand{
		TenantID:       tenant,
		TransactionIDs: []string{"TXN-FEE"},
	})
	if err != nil {
		t.Fatalf("RestoreTransactions: %v", err)
	}
	if restored.Updated != 1 {
		t.Fatalf("restored = %+v, want 1 updated", restored)
	}
	txn, _ := store.Get(ctx, tenant, "TXN-FEE")
	if txn.Ignored || txn.IgnoreReason != "" || txn.IgnoreNote != "" {
		t.Errorf("restore left ignore state behind: %+v", txn)
	}

	// One ignored and one restored event.
	if len(recorder.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(recorder.Events))
	}
	first, _ := recorder.Events[0].Event.(domain.IgnoredEvent)
	second, _ := recorder.Events[1].Event.(domain.IgnoredEvent)
	if first.EventType != domain.EventTypeIgnored || second.EventType != domain.EventTypeRestored {
		t.Errorf("event types = %s, %s", first.EventType, second.EventType)
	}
}

func TestIgnoreTransactions_Validation(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  application.IgnoreCommand
	}{
		{"no ids", application.IgnoreCommand{TenantID: tenant, Reason: domain.ReasonBankFee}},
		{"unknown reason", application.IgnoreCommand{TenantID: tenant, TransactionIDs: []string{"x"}, Reason: "WHATEVER"}},
		{"other without note", application.IgnoreCommand{TenantID: tenant, TransactionIDs: []string{"x"}, Reason: domain.ReasonOther}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.IgnoreTransactions(ctx, tt.cmd); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestIgnoreTransactions_PerItemIsolation(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store, nil, nil)
	ctx := context.Background()

	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	seedInvoice(store, "ORC-001", "2026-0142", "Maria Silva", 1000, created)
	seedTxn(store, "TXN-1", "PIX RECEBIDO MARIA SILVA", 500, created)
	seedTxn(store, "TXN-2", "TARIFA BANCARIA", 12.50, created)
	if _, err := svc.Link(ctx, application.LinkCommand{TenantID: tenant, TransactionID: "TXN-1", InvoiceID: "ORC-001"}); err != nil {
		t.Fatalf("setup link: %v", err)
	}

	res, err := svc.IgnoreTransactions(ctx, application.IgnoreCommand{
		TenantID:       tenant,
		TransactionIDs: []string{"TXN-1", "TXN-2", "TXN-404"},
		Reason:         domain.ReasonBankFee,
	})
	if err != nil {
		t.Fatalf("IgnoreTransactions: %v", err)
	}
	if res.Updated != 1 {
		t.Errorf("updated = %d, want 1", res.Updated)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("failures = %+v, want 2", res.Failures)
	}
	// Linked and unknown transactions fail without blocking TXN-2.
	txn, _ := store.Get(ctx, tenant, "TXN-2")
	if !txn.Ignored {
		t.Error("TXN-2 not ignored")
	}
}

func TestListOrphans_SearchAndSuggestions(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store, nil, nil)
	ctx := context.Background()

	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	seedInvoice(store, "ORC-001", "2026-0142", "José Antônio", 1000, created)
	seedTxn(store, "TXN-1", "PIX JOSE ANTONIO", 500, created.AddDate(0, 0, 2))
	seedTxn(store, "TXN-FEE", "TAXA MANUTENCAO CONTA", 12.50, created.AddDate(0, 0, 70))

	// Accent-insensitive search over the description.
	found, err := svc.ListOrphans(ctx, application.OrphanQuery{TenantID: tenant, Search: "josé"})
	if err != nil {
		t.Fatalf("ListOrphans: %v", err)
	}
	if len(found) != 1 || found[0].Transaction.TransactionID != "TXN-1" {
		t.Fatalf("search result = %+v, want TXN-1", found)
	}
	if found[0].Suggestion == nil {
		t.Fatal("no suggestion attached")
	}
	if found[0].Suggestion.InvoiceID != "ORC-001" {
		t.Errorf("suggestion = %s, want ORC-001", found[0].Suggestion.InvoiceID)
	}
	if found[0].Suggestion.Score.Confidence != domain.ConfidenceHigh {
		t.Errorf("confidence = %s, want HIGH", found[0].Suggestion.Score.Confidence)
	}

	// Search also covers the suggested invoice code.
	byCode, _ := svc.ListOrphans(ctx, application.OrphanQuery{TenantID: tenant, Search: "2026-0142"})
	if len(byCode) != 1 || byCode[0].Transaction.TransactionID != "TXN-1" {
		t.Fatalf("code search result = %+v, want TXN-1", byCode)
	}

	// The fee has no candidate above the floor: listed, no suggestion.
	everything, _ := svc.ListOrphans(ctx, application.OrphanQuery{TenantID: tenant})
	for _, o := range everything {
		if o.Transaction.TransactionID == "TXN-FEE" && o.Suggestion != nil {
			t.Errorf("fee got a suggestion: %+v", o.Suggestion)
		}
	}
}
