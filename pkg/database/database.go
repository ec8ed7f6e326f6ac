// Package database initializes the gorm MySQL connection and provides
// transaction helpers that pair with contextx.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/casadecor/backoffice/pkg/contextx"
	"github.com/casadecor/backoffice/pkg/logging"
)

// Config mirrors config.DatabaseConfig without importing it, keeping this
// package free of the config dependency.
type Config struct {
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	LogEnabled         bool
	SlowQueryThreshold time.Duration
}

// Init opens the MySQL connection with the configured pool limits.
func Init(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: newGormLogger(cfg),
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// WithTx runs fn in a transaction whose handle is published through context,
// so repositories called inside fn join it automatically.
func WithTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

// WithTxIsolation is WithTx at an explicit isolation level, for callers
// whose read-modify-write sequences need more than the engine default.
func WithTxIsolation(ctx context.Context, db *gorm.DB, level sql.IsolationLevel, fn func(ctx context.Context) error) error {
	opts := &sql.TxOptions{Isolation: level}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	}, opts)
}

// gormSlogLogger routes gorm's log output through the service logger.
type gormSlogLogger struct {
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func newGormLogger(cfg Config) gormlogger.Interface {
	level := gormlogger.Warn
	if cfg.LogEnabled {
		level = gormlogger.Info
	}
	return &gormSlogLogger{
		slowThreshold: cfg.SlowQueryThreshold,
		level:         level,
	}
}

func (l *gormSlogLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormSlogLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		logging.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormSlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		logging.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormSlogLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		logging.Error(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormSlogLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	switch {
	case err != nil && err != gorm.ErrRecordNotFound && l.level >= gormlogger.Error:
		logging.Error(ctx, "sql error", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		logging.Warn(ctx, "slow sql", "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.level >= gormlogger.Info:
		logging.Debug(ctx, "sql", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
