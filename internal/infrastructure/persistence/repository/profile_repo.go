package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/infrastructure/persistence/sqlstore"
	"go.uber.org/zap"
)

// ProfileRepository implements port.ProfileRepository
type ProfileRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sqlstore.DB, logger *zap.Logger) port.ProfileRepository {
	return &ProfileRepository{db: db, logger: logger}
}

// Get returns the user's profile, or nil when none was saved
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	query := r.db.Rebind(`SELECT user_id, name, email, updated_at FROM profiles WHERE user_id = ?`)

	var (
		p    entity.Profile
		name sql.NullString
	)
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, userID).Scan(&p.UserID, &name, &p.Email, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get profile", zap.String("user_id", userID), zap.Error(err))
		return nil, storageError(err, "failed to get profile")
	}

	p.Name = stringPtr(name)
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// Upsert creates or replaces the user's profile
func (r *ProfileRepository) Upsert(ctx context.Context, profile *entity.Profile) error {
	query := r.db.Rebind(`
		INSERT INTO profiles (user_id, name, email, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name, email = excluded.email, updated_at = excluded.updated_at
	`)
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		profile.UserID, nullableString(profile.Name), strings.TrimSpace(profile.Email), profile.UpdatedAt.UTC())
	if err != nil {
		r.logger.Error("Failed to upsert profile", zap.String("user_id", profile.UserID), zap.Error(err))
		return storageError(err, "failed to upsert profile")
	}
	return nil
}

var _ port.ProfileRepository = (*ProfileRepository)(nil)
