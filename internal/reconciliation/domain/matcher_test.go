package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testTransaction(id, description string, amount int64, date string) *Transaction {
	return &Transaction{
		TransactionID: id,
		TenantID:      "org-1",
		Description:   description,
		Amount:        decimal.NewFromInt(amount),
		Direction:     DirectionInflow,
		Date:          day(date),
	}
}

func testInvoice(id, code, client string, total int64, created string) *Invoice {
	return &Invoice{
		InvoiceID:   id,
		TenantID:    "org-1",
		Code:        code,
		ClientName:  client,
		TotalAmount: decimal.NewFromInt(total),
		Status:      InvoiceSent,
		CreatedAt:   day(created),
	}
}

func TestMatcher_FindBestMatch(t *testing.T) {
	m := NewMatcher(DefaultScoringConfig())
	txn := testTransaction("TXN-1", "PIX MARIA SILVA", 500, "2024-01-12")

	invoices := []*Invoice{
		testInvoice("ORC-002", "ORC-002", "Carlos Souza", 2500, "2024-01-05"),
		testInvoice("ORC-001", "ORC-001", "Maria Silva", 1000, "2024-01-10"),
	}

	best, ok := m.FindBestMatch(txn, invoices)
	if !ok {
		t.Fatal("FindBestMatch returned none, want ORC-001")
	}
	if best.Invoice.InvoiceID != "ORC-001" {
		t.Errorf("best match = %s, want ORC-001", best.Invoice.InvoiceID)
	}
	if best.Score.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %v, want HIGH", best.Score.Confidence)
	}
}

func TestMatcher_NoMatchBelowFloor(t *testing.T) {
	m := NewMatcher(DefaultScoringConfig())

	// A R$45 bank maintenance fee a month after the only open quote: nothing
	// clears the acceptance floor.
	txn := testTransaction("TXN-9", "TAXA MANUTENCAO CONTA", 45, "2024-02-10")
	invoices := []*Invoice{
		testInvoice("ORC-001", "ORC-001", "Maria Silva", 1000, "2024-01-10"),
	}

	if _, ok := m.FindBestMatch(txn, invoices); ok {
		t.Error("FindBestMatch matched a bank fee, want none")
	}
	if ranked := m.RankMatches(txn, invoices); len(ranked) != 0 {
		t.Errorf("RankMatches returned %d candidates, want 0", len(ranked))
	}
}

func TestMatcher_DeterministicTieBreak(t *testing.T) {
	m := NewMatcher(DefaultScoringConfig())
	txn := testTransaction("TXN-1", "PIX MARIA SILVA", 500, "2024-01-12")

	// Two identical quotes for the same client: the earlier one must win,
	// and with equal creation dates the lower invoice id.
	older := testInvoice("ORC-010", "ORC-010", "Maria Silva", 1000, "2024-01-08")
	newer := testInvoice("ORC-011", "ORC-011", "Maria Silva", 1000, "2024-01-08")
	newer.CreatedAt = day("2024-01-09")

	ranked := m.RankMatches(txn, []*Invoice{newer, older})
	if len(ranked) != 2 {
		t.Fatalf("RankMatches returned %d candidates, want 2", len(ranked))
	}
	if ranked[0].Invoice.InvoiceID != "ORC-010" {
		t.Errorf("first candidate = %s, want older invoice ORC-010", ranked[0].Invoice.InvoiceID)
	}

	twinA := testInvoice("ORC-020", "ORC-020", "Maria Silva", 1000, "2024-01-08")
	twinB := testInvoice("ORC-021", "ORC-021", "Maria Silva", 1000, "2024-01-08")
	ranked = m.RankMatches(txn, []*Invoice{twinB, twinA})
	if ranked[0].Invoice.InvoiceID != "ORC-020" {
		t.Errorf("first candidate = %s, want lower id ORC-020", ranked[0].Invoice.InvoiceID)
	}
}

func TestMatcher_RankedOrderDescending(t *testing.T) {
	m := NewMatcher(DefaultScoringConfig())
	txn := testTransaction("TXN-1", "TRANSF MARIA SILVA", 500, "2024-01-15")

	invoices := []*Invoice{
		testInvoice("ORC-001", "ORC-001", "Maria Silva", 1000, "2024-01-10"),
		testInvoice("ORC-002", "ORC-002", "Maria Silveira", 900, "2024-01-02"),
		testInvoice("ORC-003", "ORC-003", "Mario Silva", 500, "2023-12-01"),
	}

	ranked := m.RankMatches(txn, invoices)
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score.TotalScore > ranked[i-1].Score.TotalScore {
			t.Errorf("ranking not descending at %d: %v > %v",
				i, ranked[i].Score.TotalScore, ranked[i-1].Score.TotalScore)
		}
	}
}
