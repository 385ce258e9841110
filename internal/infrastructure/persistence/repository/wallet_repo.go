package repository

import (
	"context"
	"strings"
	"time"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/infrastructure/persistence/sqlstore"
	"go.uber.org/zap"
)

// WalletRepository implements port.WalletRepository
type WalletRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *sqlstore.DB, logger *zap.Logger) port.WalletRepository {
	return &WalletRepository{db: db, logger: logger}
}

// Credit adds amount to the balance in a single statement so concurrent credits never lose updates
func (r *WalletRepository) Credit(ctx context.Context, userID, currency string, amount int64) error {
	query := r.db.Rebind(`
		INSERT INTO wallets (user_id, currency, balance, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, currency) DO UPDATE SET
			balance = wallets.balance + excluded.balance,
			updated_at = excluded.updated_at
	`)

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		userID, strings.ToLower(currency), amount, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to credit wallet",
			zap.String("user_id", userID),
			zap.String("currency", currency),
			zap.Int64("amount", amount),
			zap.Error(err))
		return storageError(err, "failed to credit wallet")
	}
	return nil
}

// List returns every balance the user holds
func (r *WalletRepository) List(ctx context.Context, userID string) ([]*entity.Wallet, error) {
	query := r.db.Rebind(`SELECT user_id, currency, balance, updated_at FROM wallets WHERE user_id = ? ORDER BY currency`)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list wallets", zap.String("user_id", userID), zap.Error(err))
		return nil, storageError(err, "failed to list wallets")
	}
	defer rows.Close()

	var wallets []*entity.Wallet
	for rows.Next() {
		var w entity.Wallet
		if err := rows.Scan(&w.UserID, &w.Currency, &w.Balance, &w.UpdatedAt); err != nil {
			return nil, storageError(err, "failed to scan wallet")
		}
		w.UpdatedAt = w.UpdatedAt.UTC()
		wallets = append(wallets, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "failed to read wallets")
	}
	return wallets, nil
}

var _ port.WalletRepository = (*WalletRepository)(nil)
