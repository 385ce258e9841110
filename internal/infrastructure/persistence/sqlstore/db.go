// Package sqlstore carries database transactions through context.Context so
// repositories join whatever transaction the calling service opened.
package sqlstore

import (
	"context"
	"database/sql"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/pkg/database"
	"go.uber.org/zap"
)

type contextKey string

const txKey contextKey = "tx"

// Executor covers both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB wraps an opened database and implements port.TransactionManager
type DB struct {
	sqlDB   *sql.DB
	dialect database.Dialect
	logger  *zap.Logger
}

// New wraps db for use by repositories
func New(db *database.DB, logger *zap.Logger) *DB {
	return &DB{
		sqlDB:   db.DB,
		dialect: db.Dialect,
		logger:  logger,
	}
}

// WithTransaction runs fn in a transaction stored on the returned context.
// Nested calls reuse the outer transaction.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if extractTx(ctx) != nil {
		return fn(ctx)
	}

	tx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		db.logger.Error("Failed to begin transaction", zap.Error(err))
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to begin transaction")
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error("Failed to commit transaction", zap.Error(err))
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to commit transaction")
	}
	return nil
}

// Executor returns the transaction on ctx, or the pool when there is none
func (db *DB) Executor(ctx context.Context) Executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return db.sqlDB
}

// Rebind adapts a '?' query to the underlying driver
func (db *DB) Rebind(query string) string {
	return db.dialect.Rebind(query)
}

// Ping reports whether the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.sqlDB.PingContext(ctx)
}

func extractTx(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return nil
}

var _ port.TransactionManager = (*DB)(nil)
