package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/pkg/contextx"
)

// ReceivableRepository implements domain.ReceivableRepository on MySQL.
type ReceivableRepository struct {
	db *gorm.DB
}

func NewReceivableRepository(db *gorm.DB) *ReceivableRepository {
	return &ReceivableRepository{db: db}
}

func (r *ReceivableRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// GetAccountByInvoice returns nil without error when no account exists yet;
// the linker creates it lazily on the first confirmed payment.
func (r *ReceivableRepository) GetAccountByInvoice(ctx context.Context, tenantID, invoiceID string) (*domain.ReceivableAccount, error) {
	var po ReceivableAccountPO
	err := r.getDB(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return accountToDomain(&po), nil
}

func (r *ReceivableRepository) CreateAccount(ctx context.Context, a *domain.ReceivableAccount) error {
	a.Version = 1
	po := accountToPO(a)
	if err := r.getDB(ctx).Create(po).Error; err != nil {
		return err
	}
	a.ID = po.ID
	return nil
}

// SaveAccount writes the aggregate only when the caller read the current
// version. A zero row count means someone else moved the account first.
func (r *ReceivableRepository) SaveAccount(ctx context.Context, a *domain.ReceivableAccount) error {
	res := r.getDB(ctx).Model(&ReceivableAccountPO{}).
		Where("account_id = ? AND version = ?", a.AccountID, a.Version).
		Updates(map[string]any{
			"amount_paid":       a.AmountPaid,
			"installment_count": a.InstallmentCount,
			"status":            int8(a.Status),
			"version":           a.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrencyConflict
	}
	a.Version++
	return nil
}

func (r *ReceivableRepository) ListInstallments(ctx context.Context, accountID string) ([]*domain.Installment, error) {
	var pos []InstallmentPO
	err := r.getDB(ctx).
		Where("account_id = ?", accountID).
		Order("due_date ASC, seq ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Installment, 0, len(pos))
	for i := range pos {
		out = append(out, installmentToDomain(&pos[i]))
	}
	return out, nil
}

func (r *ReceivableRepository) CreateInstallment(ctx context.Context, in *domain.Installment) error {
	po := installmentToPO(in)
	if err := r.getDB(ctx).Create(po).Error; err != nil {
		return err
	}
	in.ID = po.ID
	return nil
}

func (r *ReceivableRepository) SaveInstallment(ctx context.Context, in *domain.Installment) error {
	res := r.getDB(ctx).Model(&InstallmentPO{}).
		Where("installment_id = ?", in.InstallmentID).
		Updates(map[string]any{
			"amount":       in.Amount,
			"payment_date": in.PaymentDate,
			"status":       int8(in.Status),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidInput
	}
	return nil
}
