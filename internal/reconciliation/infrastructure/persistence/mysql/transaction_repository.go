package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/pkg/contextx"
)

// TransactionRepository implements domain.TransactionRepository on MySQL.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *TransactionRepository) Get(ctx context.Context, tenantID, transactionID string) (*domain.Transaction, error) {
	var po TransactionPO
	err := r.getDB(ctx).
		Where("tenant_id = ? AND transaction_id = ?", tenantID, transactionID).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transactionToDomain(&po), nil
}

func (r *TransactionRepository) ListUnlinked(ctx context.Context, tenantID string, direction domain.Direction, includeIgnored bool) ([]*domain.Transaction, error) {
	q := r.getDB(ctx).
		Where("tenant_id = ? AND (installment_id IS NULL OR installment_id = '')", tenantID)
	if direction != "" {
		q = q.Where("direction = ?", string(direction))
	}
	if !includeIgnored {
		q = q.Where("ignored = ?", false)
	}

	var pos []TransactionPO
	if err := q.Order("txn_date ASC, transaction_id ASC").Find(&pos).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Transaction, 0, len(pos))
	for i := range pos {
		out = append(out, transactionToDomain(&pos[i]))
	}
	return out, nil
}

func (r *TransactionRepository) Save(ctx context.Context, t *domain.Transaction) error {
	res := r.getDB(ctx).Model(&TransactionPO{}).
		Where("tenant_id = ? AND transaction_id = ?", t.TenantID, t.TransactionID).
		Updates(map[string]any{
			"installment_id": t.InstallmentID,
			"ignored":        t.Ignored,
			"ignore_reason":  string(t.IgnoreReason),
			"ignore_note":    t.IgnoreNote,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Updates with identical values still affect the row in MySQL only
		// when a column changes; re-check existence before reporting.
		var count int64
		if err := r.getDB(ctx).Model(&TransactionPO{}).
			Where("tenant_id = ? AND transaction_id = ?", t.TenantID, t.TransactionID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrTransactionNotFound
		}
	}
	return nil
}
