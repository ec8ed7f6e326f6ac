package domain

import "sort"

// MatchCandidate pairs a transaction with an invoice and the score that
// binds them. Derived data: it exists only inside a reconciliation run and
// is never persisted.
type MatchCandidate struct {
	Transaction *Transaction
	Invoice     *Invoice
	Score       ScoreBreakdown
}

// Matcher selects invoice candidates for unmatched transactions. It never
// fails: an empty candidate pool or a pool with nothing above the acceptance
// floor simply yields no match.
type Matcher struct {
	scorer *Scorer
	cfg    ScoringConfig
}

func NewMatcher(cfg ScoringConfig) *Matcher {
	return &Matcher{scorer: NewScorer(cfg), cfg: cfg}
}

// RankMatches scores the transaction against every invoice in the pool and
// returns the candidates at or above the acceptance floor, best first.
// Ordering is fully deterministic so repeated batch runs over the same data
// produce identical previews: total score desc, then name sub-score desc,
// then earlier invoice creation date, then invoice id.
func (m *Matcher) RankMatches(t *Transaction, invoices []*Invoice) []MatchCandidate {
	var out []MatchCandidate
	for _, inv := range invoices {
		score := m.scorer.Score(
			t.Description, t.Amount, t.Date,
			inv.ClientName, inv.TotalAmount, inv.CreatedAt,
		)
		if score.TotalScore < m.cfg.MinAcceptScore {
			continue
		}
		out = append(out, MatchCandidate{Transaction: t, Invoice: inv, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score.TotalScore != b.Score.TotalScore {
			return a.Score.TotalScore > b.Score.TotalScore
		}
		if a.Score.NameScore != b.Score.NameScore {
			return a.Score.NameScore > b.Score.NameScore
		}
		if !a.Invoice.CreatedAt.Equal(b.Invoice.CreatedAt) {
			return a.Invoice.CreatedAt.Before(b.Invoice.CreatedAt)
		}
		return a.Invoice.InvoiceID < b.Invoice.InvoiceID
	})
	return out
}

// FindBestMatch returns the highest-ranked candidate, or false when nothing
// clears the acceptance floor.
func (m *Matcher) FindBestMatch(t *Transaction, invoices []*Invoice) (MatchCandidate, bool) {
	ranked := m.RankMatches(t, invoices)
	if len(ranked) == 0 {
		return MatchCandidate{}, false
	}
	return ranked[0], true
}
