// Package application orchestrates the reconciliation use cases over the
// domain ports: manual linking, batch auto reconciliation, the orphan
// ignore/restore lifecycle and the read-side previews.
package application

import (
	"time"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/pkg/metrics"
)

// Config bounds the service's runtime behavior.
type Config struct {
	Scoring domain.ScoringConfig
	// LinkTimeout bounds one link operation end to end.
	LinkTimeout time.Duration
	// LinkMaxRetries bounds retries after an optimistic version conflict.
	LinkMaxRetries int
}

// Repositories bundles the persistence ports the service needs.
type Repositories struct {
	Transactions domain.TransactionRepository
	Invoices     domain.InvoiceReader
	Receivables  domain.ReceivableRepository
	Runs         domain.RunRepository
	UoW          domain.UnitOfWork
}

// Service is the application facade the HTTP handlers and the scheduler call.
type Service struct {
	transactions domain.TransactionRepository
	invoices     domain.InvoiceReader
	receivables  domain.ReceivableRepository
	runs         domain.RunRepository
	uow          domain.UnitOfWork
	publisher    domain.EventPublisher
	matcher      *domain.Matcher
	metrics      *metrics.Metrics
	cfg          Config
}

// NewService validates cfg and wires the facade. publisher and m may be nil;
// events and metrics are then skipped.
func NewService(cfg Config, repos Repositories, publisher domain.EventPublisher, m *metrics.Metrics) (*Service, error) {
	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	if cfg.LinkTimeout <= 0 {
		cfg.LinkTimeout = 5 * time.Second
	}
	if cfg.LinkMaxRetries <= 0 {
		cfg.LinkMaxRetries = 3
	}
	return &Service{
		transactions: repos.Transactions,
		invoices:     repos.Invoices,
		receivables:  repos.Receivables,
		runs:         repos.Runs,
		uow:          repos.UoW,
		publisher:    publisher,
		matcher:      domain.NewMatcher(cfg.Scoring),
		metrics:      m,
		cfg:          cfg,
	}, nil
}
