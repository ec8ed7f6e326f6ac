// Package contextx propagates an open database transaction through context
// so repositories transparently join the caller's unit of work.
package contextx

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTx returns a context carrying the given transaction handle.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx extracts the transaction handle from ctx, or nil when the caller is
// not inside a unit of work.
func GetTx(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}
