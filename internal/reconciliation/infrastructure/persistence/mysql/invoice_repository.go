package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/pkg/contextx"
)

// InvoiceRepository implements the read-only domain.InvoiceReader over the
// quoting subsystem's table. Never writes.
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *InvoiceRepository) Get(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error) {
	var po InvoicePO
	err := r.getDB(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return invoiceToDomain(&po), nil
}

func (r *InvoiceRepository) ListByStatus(ctx context.Context, tenantID string, statuses []domain.InvoiceStatus) ([]*domain.Invoice, error) {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}

	var pos []InvoicePO
	err := r.getDB(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID, names).
		Order("created_at ASC, invoice_id ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Invoice, 0, len(pos))
	for i := range pos {
		out = append(out, invoiceToDomain(&pos[i]))
	}
	return out, nil
}
