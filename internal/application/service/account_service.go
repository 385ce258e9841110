package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/pkg/utils"
)

const maxProfileNameLen = 120

// AccountService reads and updates a user's profile and wallet balances
type AccountService interface {
	// GetProfile returns the stored profile or an empty one for new users
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, userID string, name *string, email string) (*entity.Profile, error)
	Wallets(ctx context.Context, userID string) ([]*entity.Wallet, error)
}

type accountServiceImpl struct {
	profileRepo port.ProfileRepository
	walletRepo  port.WalletRepository
	logger      Logger
	now         func() time.Time
}

// NewAccountService creates a new AccountService
func NewAccountService(profileRepo port.ProfileRepository, walletRepo port.WalletRepository, logger Logger) AccountService {
	return &accountServiceImpl{
		profileRepo: profileRepo,
		walletRepo:  walletRepo,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *accountServiceImpl) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return &entity.Profile{UserID: userID}, nil
	}
	return profile, nil
}

func (s *accountServiceImpl) UpdateProfile(ctx context.Context, userID string, name *string, email string) (*entity.Profile, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if len([]rune(trimmed)) > maxProfileNameLen {
			return nil, apperror.New(apperror.KindValidationFailed, "name must be at most %d characters", maxProfileNameLen)
		}
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if err := utils.ValidateEmail(email); err != nil {
			return nil, apperror.Wrap(apperror.KindValidationFailed, err, "email is not a valid address")
		}
	}

	profile := &entity.Profile{
		UserID:    userID,
		Name:      name,
		Email:     email,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		s.logger.Error("Failed to update profile", "error", err, "user_id", userID)
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return profile, nil
}

func (s *accountServiceImpl) Wallets(ctx context.Context, userID string) ([]*entity.Wallet, error) {
	wallets, err := s.walletRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}
