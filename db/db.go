// Package db opens the PostgreSQL connection backing the membership
// snapshot ledger.
package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

// Options controls the connection pool. Zero values fall back to defaults
// sized for the ledger's write-mostly, low-concurrency workload.
type Options struct {
	URI             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type snapshotLogger struct {
	zapgorm2.Logger
}

// Snapshot lookups miss routinely (a subscription with no ledger row yet),
// so ErrRecordNotFound stays out of zap/sentry.
func (l *snapshotLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if err == gorm.ErrRecordNotFound {
		return
	}
	l.Logger.Trace(ctx, begin, fc, err)
}

// New returns a gorm handle for the ledger database
func New(logger *zap.Logger, option Options) (*gorm.DB, error) {
	if option.MaxIdleConns == 0 {
		option.MaxIdleConns = 2
	}
	if option.MaxOpenConns == 0 {
		option.MaxOpenConns = 10
	}
	if option.ConnMaxLifetime == 0 {
		option.ConnMaxLifetime = time.Hour
	}

	gLogger := zapgorm2.Logger{
		ZapLogger:        logger,
		LogLevel:         gormlogger.Warn,
		SlowThreshold:    time.Second,
		SkipCallerLookup: false,
	}
	db, err := gorm.Open(postgres.Open(option.URI), &gorm.Config{
		Logger: &snapshotLogger{
			Logger: gLogger,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "Cannot connect to database")
	}
	pool, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "Cannot get the connection pool")
	}
	pool.SetMaxIdleConns(option.MaxIdleConns)
	pool.SetMaxOpenConns(option.MaxOpenConns)
	pool.SetConnMaxLifetime(option.ConnMaxLifetime)
	return db, nil
}
