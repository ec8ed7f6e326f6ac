// Package memory implements the reconciliation repositories on in-process
// maps. It backs application tests and local development without MySQL; the
// optimistic version check behaves exactly like the SQL implementation.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
)

// Store holds every aggregate behind one mutex.
type Store struct {
	mu           sync.Mutex
	transactions map[string]*domain.Transaction
	invoices     map[string]*domain.Invoice
	accounts     map[string]*domain.ReceivableAccount
	installments map[string][]*domain.Installment
	runs         map[string]*domain.ReconciliationRun
	nextID       uint
}

func NewStore() *Store {
	return &Store{
		transactions: make(map[string]*domain.Transaction),
		invoices:     make(map[string]*domain.Invoice),
		accounts:     make(map[string]*domain.ReceivableAccount),
		installments: make(map[string][]*domain.Installment),
		runs:         make(map[string]*domain.ReconciliationRun),
	}
}

func key(tenantID, id string) string {
	return tenantID + "|" + id
}

// SeedTransaction inserts a transaction, overwriting any previous state.
func (s *Store) SeedTransaction(t *domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *t
	if c.ID == 0 {
		s.nextID++
		c.ID = s.nextID
	}
	s.transactions[key(t.TenantID, t.TransactionID)] = &c
}

// SeedInvoice inserts an invoice into the read model.
func (s *Store) SeedInvoice(inv *domain.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *inv
	s.invoices[key(inv.TenantID, inv.InvoiceID)] = &c
}

func (s *Store) Get(ctx context.Context, tenantID, transactionID string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[key(tenantID, transactionID)]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	c := *t
	return &c, nil
}

func (s *Store) ListUnlinked(ctx context.Context, tenantID string, direction domain.Direction, includeIgnored bool) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range s.transactions {
		if t.TenantID != tenantID || t.Linked() {
			continue
		}
		if direction != "" && t.Direction != direction {
			continue
		}
		if t.Ignored && !includeIgnored {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TransactionID < out[j].TransactionID
	})
	return out, nil
}

func (s *Store) Save(ctx context.Context, t *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(t.TenantID, t.TransactionID)
	if _, ok := s.transactions[k]; !ok {
		return domain.ErrTransactionNotFound
	}
	c := *t
	s.transactions[k] = &c
	return nil
}

// InvoiceReader satisfies domain.InvoiceReader on a separate receiver; the
// transaction repository already owns Get on *Store.
type InvoiceReader struct{ s *Store }

// Invoices returns the store's read-only invoice view.
func (s *Store) Invoices() *InvoiceReader {
	return &InvoiceReader{s: s}
}

func (r *InvoiceReader) Get(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[key(tenantID, invoiceID)]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	c := *inv
	return &c, nil
}

func (r *InvoiceReader) ListByStatus(ctx context.Context, tenantID string, statuses []domain.InvoiceStatus) ([]*domain.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	allowed := make(map[domain.InvoiceStatus]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}
	var out []*domain.Invoice
	for _, inv := range r.s.invoices {
		if inv.TenantID != tenantID || !allowed[inv.Status] {
			continue
		}
		c := *inv
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceID < out[j].InvoiceID })
	return out, nil
}

func (s *Store) GetAccountByInvoice(ctx context.Context, tenantID, invoiceID string) (*domain.ReceivableAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[key(tenantID, invoiceID)]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *domain.ReceivableAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Version = 1
	c := *a
	s.accounts[key(a.TenantID, a.InvoiceID)] = &c
	return nil
}

// SaveAccount applies the same compare-and-swap the SQL repository does:
// the write only lands when the caller read the current version.
func (s *Store) SaveAccount(ctx context.Context, a *domain.ReceivableAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(a.TenantID, a.InvoiceID)
	cur, ok := s.accounts[k]
	if !ok || cur.Version != a.Version {
		return domain.ErrConcurrencyConflict
	}
	a.Version++
	c := *a
	s.accounts[k] = &c
	return nil
}

func (s *Store) ListInstallments(ctx context.Context, accountID string) ([]*domain.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.installments[accountID]
	out := make([]*domain.Installment, 0, len(list))
	for _, in := range list {
		c := *in
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (s *Store) CreateInstallment(ctx context.Context, in *domain.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *in
	s.installments[in.AccountID] = append(s.installments[in.AccountID], &c)
	return nil
}

func (s *Store) SaveInstallment(ctx context.Context, in *domain.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.installments[in.AccountID] {
		if cur.InstallmentID == in.InstallmentID {
			c := *in
			s.installments[in.AccountID][i] = &c
			return nil
		}
	}
	return domain.ErrInvalidInput
}

func (s *Store) SaveRun(ctx context.Context, run *domain.ReconciliationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *run
	c.Items = append([]domain.RunItem(nil), run.Items...)
	s.runs[key(run.TenantID, run.RunID)] = &c
	return nil
}

func (s *Store) GetRun(ctx context.Context, tenantID, runID string) (*domain.ReconciliationRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[key(tenantID, runID)]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	c := *run
	c.Items = append([]domain.RunItem(nil), run.Items...)
	return &c, nil
}

type snapshot struct {
	transactions map[string]*domain.Transaction
	accounts     map[string]*domain.ReceivableAccount
	installments map[string][]*domain.Installment
	runs         map[string]*domain.ReconciliationRun
}

func (s *Store) takeSnapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		transactions: make(map[string]*domain.Transaction, len(s.transactions)),
		accounts:     make(map[string]*domain.ReceivableAccount, len(s.accounts)),
		installments: make(map[string][]*domain.Installment, len(s.installments)),
		runs:         make(map[string]*domain.ReconciliationRun, len(s.runs)),
	}
	for k, v := range s.transactions {
		c := *v
		snap.transactions[k] = &c
	}
	for k, v := range s.accounts {
		c := *v
		snap.accounts[k] = &c
	}
	for k, list := range s.installments {
		cp := make([]*domain.Installment, len(list))
		for i, in := range list {
			c := *in
			cp[i] = &c
		}
		snap.installments[k] = cp
	}
	for k, v := range s.runs {
		c := *v
		c.Items = append([]domain.RunItem(nil), v.Items...)
		snap.runs[k] = &c
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = snap.transactions
	s.accounts = snap.accounts
	s.installments = snap.installments
	s.runs = snap.runs
}

// UnitOfWork emulates transactional rollback by snapshotting the maps before
// fn and restoring them when fn fails.
type UnitOfWork struct {
	Store *Store
}

func (u UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u.Store == nil {
		return fn(ctx)
	}
	snap := u.Store.takeSnapshot()
	if err := fn(ctx); err != nil {
		u.Store.restore(snap)
		return err
	}
	return nil
}

// EventRecorder collects published events for assertions.
type EventRecorder struct {
	mu     sync.Mutex
	Events []RecordedEvent
}

type RecordedEvent struct {
	Topic string
	Key   string
	Event any
}

func (r *EventRecorder) Publish(ctx context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, RecordedEvent{Topic: topic, Key: key, Event: event})
	return nil
}
