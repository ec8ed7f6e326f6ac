package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/pkg/contextx"
)

// RunRepository persists batch run reports.
type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// SaveRun writes the header and all items together. Runs are written once
// when the batch completes, so this is a plain insert.
func (r *RunRepository) SaveRun(ctx context.Context, run *domain.ReconciliationRun) error {
	return r.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		header := &RunPO{
			RunID:        run.RunID,
			TenantID:     run.TenantID,
			TriggeredBy:  run.TriggeredBy,
			Scheduled:    run.Scheduled,
			Status:       int8(run.Status),
			LinkedCount:  run.LinkedCount,
			SkippedCount: run.SkippedCount,
		}
		if err := tx.Create(header).Error; err != nil {
			return err
		}
		if len(run.Items) == 0 {
			return nil
		}
		items := make([]RunItemPO, 0, len(run.Items))
		for _, it := range run.Items {
			items = append(items, RunItemPO{
				RunID:         it.RunID,
				TransactionID: it.TransactionID,
				InvoiceID:     it.InvoiceID,
				Score:         it.Score,
				Status:        int8(it.Status),
				Reason:        it.Reason,
			})
		}
		return tx.Create(&items).Error
	})
}

func (r *RunRepository) GetRun(ctx context.Context, tenantID, runID string) (*domain.ReconciliationRun, error) {
	var header RunPO
	err := r.getDB(ctx).
		Where("tenant_id = ? AND run_id = ?", tenantID, runID).
		First(&header).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}

	var items []RunItemPO
	if err := r.getDB(ctx).Where("run_id = ?", runID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	run := &domain.ReconciliationRun{
		ID:           header.ID,
		CreatedAt:    header.CreatedAt,
		UpdatedAt:    header.UpdatedAt,
		RunID:        header.RunID,
		TenantID:     header.TenantID,
		TriggeredBy:  header.TriggeredBy,
		Scheduled:    header.Scheduled,
		Status:       domain.RunStatus(header.Status),
		LinkedCount:  header.LinkedCount,
		SkippedCount: header.SkippedCount,
	}
	for _, it := range items {
		run.Items = append(run.Items, domain.RunItem{
			ID:            it.ID,
			CreatedAt:     it.CreatedAt,
			RunID:         it.RunID,
			TransactionID: it.TransactionID,
			InvoiceID:     it.InvoiceID,
			Score:         it.Score,
			Status:        domain.RunItemStatus(it.Status),
			Reason:        it.Reason,
		})
	}
	return run, nil
}
