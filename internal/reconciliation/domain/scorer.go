package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// ConfidenceTier is the qualitative band shown to operators next to a score.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "HIGH"
	ConfidenceMedium ConfidenceTier = "MEDIUM"
	ConfidenceLow    ConfidenceTier = "LOW"
)

// ScoringConfig externalizes every matching constant. The partial payment
// fractions encode the business convention that customers settle quotes in
// 40/50/60/100% slices; deployments with other payment plans override them.
type ScoringConfig struct {
	NameWeight  float64 `mapstructure:"name_weight"`
	ValueWeight float64 `mapstructure:"value_weight"`
	DateWeight  float64 `mapstructure:"date_weight"`

	// HighThreshold and MediumThreshold bound the confidence tiers;
	// MinAcceptScore is the floor below which a candidate is never surfaced.
	HighThreshold   float64 `mapstructure:"high_threshold"`
	MediumThreshold float64 `mapstructure:"medium_threshold"`
	MinAcceptScore  float64 `mapstructure:"min_accept_score"`

	// MaxDateWindowDays is the day distance at which the date sub-score
	// reaches zero.
	MaxDateWindowDays int `mapstructure:"max_date_window_days"`

	// PartialFractions are the invoice-total fractions that score a perfect
	// value sub-score; ValueTolerance is the relative difference from the
	// nearest fraction at which the value sub-score reaches zero.
	PartialFractions []float64 `mapstructure:"partial_fractions"`
	ValueTolerance   float64   `mapstructure:"value_tolerance"`
}

// DefaultScoringConfig returns the thresholds and weights the business runs
// with: name weighted most heavily, then value, then date.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		NameWeight:        0.5,
		ValueWeight:       0.3,
		DateWeight:        0.2,
		HighThreshold:     70,
		MediumThreshold:   50,
		MinAcceptScore:    40,
		MaxDateWindowDays: 90,
		PartialFractions:  []float64{0.4, 0.5, 0.6, 1.0},
		ValueTolerance:    0.25,
	}
}

// Validate checks the configuration is internally consistent.
func (c ScoringConfig) Validate() error {
	if c.NameWeight < 0 || c.ValueWeight < 0 || c.DateWeight < 0 {
		return fmt.Errorf("scoring weights cannot be negative")
	}
	sum := c.NameWeight + c.ValueWeight + c.DateWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %v", sum)
	}
	if c.HighThreshold < c.MediumThreshold || c.MediumThreshold < c.MinAcceptScore {
		return fmt.Errorf("thresholds must satisfy high >= medium >= min accept")
	}
	if c.MaxDateWindowDays <= 0 {
		return fmt.Errorf("max date window must be positive: %d", c.MaxDateWindowDays)
	}
	if len(c.PartialFractions) == 0 {
		return fmt.Errorf("at least one partial payment fraction is required")
	}
	for _, f := range c.PartialFractions {
		if f <= 0 || f > 1 {
			return fmt.Errorf("partial fraction out of range (0,1]: %v", f)
		}
	}
	if c.ValueTolerance <= 0 {
		return fmt.Errorf("value tolerance must be positive: %v", c.ValueTolerance)
	}
	return nil
}

// ScoreBreakdown carries the three sub-scores, the weighted total and the
// confidence tier for one (transaction, invoice) pair. All scores live in
// [0,100].
type ScoreBreakdown struct {
	NameScore  float64        `json:"name_score"`
	ValueScore float64        `json:"value_score"`
	DateScore  float64        `json:"date_score"`
	TotalScore float64        `json:"total_score"`
	Confidence ConfidenceTier `json:"confidence"`
}

// Scorer computes similarity scores between bank transactions and open
// quotes. Pure and deterministic: same inputs always produce the same
// breakdown.
type Scorer struct {
	cfg ScoringConfig
}

func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score rates how likely the transaction settles (part of) the invoice.
func (s *Scorer) Score(
	description string, amount decimal.Decimal, date time.Time,
	clientName string, invoiceAmount decimal.Decimal, invoiceDate time.Time,
) ScoreBreakdown {
	b := ScoreBreakdown{
		NameScore:  s.nameScore(description, clientName),
		ValueScore: s.valueScore(amount, invoiceAmount),
		DateScore:  s.dateScore(date, invoiceDate),
	}
	total := s.cfg.NameWeight*b.NameScore +
		s.cfg.ValueWeight*b.ValueScore +
		s.cfg.DateWeight*b.DateScore
	b.TotalScore = clampScore(total)
	switch {
	case b.TotalScore >= s.cfg.HighThreshold:
		b.Confidence = ConfidenceHigh
	case b.TotalScore >= s.cfg.MediumThreshold:
		b.Confidence = ConfidenceMedium
	default:
		b.Confidence = ConfidenceLow
	}
	return b
}

// nameScore compares the free-text statement description against the
// client's name, tolerant of accents, case and partial containment (a
// surname buried in "PIX TRANSF MARIA SILVA 123").
func (s *Scorer) nameScore(description, clientName string) float64 {
	desc := normalizeText(description)
	name := normalizeText(clientName)
	if desc == "" || name == "" {
		return 0
	}
	if strings.Contains(desc, name) || strings.Contains(name, desc) {
		return 100
	}

	// Token coverage: how much of the client name shows up in the
	// description, allowing one edit per token for typos.
	descTokens := nameTokens(desc)
	var covered, total int
	for _, nt := range nameTokens(name) {
		total++
		for _, dt := range descTokens {
			if nt == dt || (len(nt) >= 4 && tokenDistance(nt, dt) <= 1) {
				covered++
				break
			}
		}
	}
	coverage := 0.0
	if total > 0 {
		coverage = float64(covered) / float64(total) * 100
	}

	// Whole-string edit distance as a fallback for descriptions that are a
	// mangled version of the name rather than a superset of it.
	dist := levenshtein.DistanceForStrings([]rune(desc), []rune(name), levenshtein.DefaultOptions)
	maxLen := len([]rune(desc))
	if l := len([]rune(name)); l > maxLen {
		maxLen = l
	}
	ratio := (1 - float64(dist)/float64(maxLen)) * 100

	return clampScore(math.Max(coverage, ratio))
}

// valueScore is 100 when the transaction amount hits any configured fraction
// of the invoice total exactly, decaying with the relative distance from the
// nearest fraction. Partial payments are a first-class scenario, not noise.
func (s *Scorer) valueScore(amount, invoiceAmount decimal.Decimal) float64 {
	if !invoiceAmount.IsPositive() {
		return 0
	}
	paid := amount.Abs()
	best := 0.0
	for _, f := range s.cfg.PartialFractions {
		expected := invoiceAmount.Mul(decimal.NewFromFloat(f))
		if !expected.IsPositive() {
			continue
		}
		rel, _ := paid.Sub(expected).Abs().Div(expected).Float64()
		score := (1 - rel/s.cfg.ValueTolerance) * 100
		if score > best {
			best = score
		}
	}
	return clampScore(best)
}

// dateScore is 100 on the same day and decays linearly to zero at the edge
// of the configured window.
func (s *Scorer) dateScore(txnDate, invoiceDate time.Time) float64 {
	days := math.Abs(truncateDay(txnDate).Sub(truncateDay(invoiceDate)).Hours() / 24)
	window := float64(s.cfg.MaxDateWindowDays)
	if days >= window {
		return 0
	}
	return clampScore((1 - days/window) * 100)
}

func tokenDistance(a, b string) int {
	return levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
