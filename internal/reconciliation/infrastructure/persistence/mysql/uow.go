package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/casadecor/backoffice/pkg/database"
)

// UnitOfWork implements domain.UnitOfWork over a gorm transaction. The
// optimistic version check on the account makes stronger isolation levels
// unnecessary.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTx(ctx, u.db, fn)
}
