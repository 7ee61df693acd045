package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/terraed/terra-api/internal/dto"
	"github.com/terraed/terra-api/internal/models"
	"github.com/terraed/terra-api/internal/repository"
)

var (
	// ErrBelowRedemptionMinimum indicates the wallet balance is under the
	// minimum required to redeem.
	ErrBelowRedemptionMinimum = errors.New("balance below redemption minimum")
	// ErrInsufficientBalance indicates the redemption value exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrRedemptionLimit indicates the weekly redemption cap was reached.
	ErrRedemptionLimit = errors.New("weekly redemption limit reached")
)

// voucherValidity is how long an issued voucher stays redeemable.
const voucherValidity = 90 * 24 * time.Hour

// RedemptionRules carries the limits applied when redeeming points.
type RedemptionRules struct {
	Minimum     int
	WeeklyLimit int
}

func (r *RedemptionRules) applyDefaults() {
	if r.Minimum == 0 {
		r.Minimum = 100
	}
	if r.WeeklyLimit == 0 {
		r.WeeklyLimit = 2
	}
}

// WalletService exposes the points wallet and voucher redemption.
type WalletService interface {
	GetWallet(ctx context.Context, userID uint) (dto.WalletResponse, error)
	Redeem(ctx context.Context, req dto.RedeemRequest) (dto.VoucherResponse, error)
}

type walletService struct {
	wallet repository.WalletRepository
	users  repository.UserRepository
	rules  RedemptionRules
	logger zerolog.Logger
	now    func() time.Time
}

// NewWalletService constructs the wallet service.
func NewWalletService(wallet repository.WalletRepository, users repository.UserRepository, rules RedemptionRules, logger zerolog.Logger) WalletService {
	rules.applyDefaults()

	return &walletService{
		wallet: wallet,
		users:  users,
		rules:  rules,
		logger: logger.With().Str("component", "wallet_service").Logger(),
		now:    time.Now,
	}
}

func (s *walletService) GetWallet(ctx context.Context, userID uint) (dto.WalletResponse, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WalletResponse{}, ErrUserNotFound
		}
		return dto.WalletResponse{}, fmt.Errorf("failed to load user: %w", err)
	}

	balance, err := s.wallet.Balance(ctx, userID)
	if err != nil {
		return dto.WalletResponse{}, fmt.Errorf("failed to compute balance: %w", err)
	}

	transactions, err := s.wallet.ListTransactions(ctx, userID)
	if err != nil {
		return dto.WalletResponse{}, fmt.Errorf("failed to list transactions: %w", err)
	}

	vouchers, err := s.wallet.ListVouchers(ctx, userID)
	if err != nil {
		return dto.WalletResponse{}, fmt.Errorf("failed to list vouchers: %w", err)
	}

	return dto.NewWalletResponse(userID, balance, transactions, vouchers), nil
}

func (s *walletService) Redeem(ctx context.Context, req dto.RedeemRequest) (dto.VoucherResponse, error) {
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.VoucherResponse{}, ErrUserNotFound
		}
		return dto.VoucherResponse{}, fmt.Errorf("failed to load user: %w", err)
	}

	balance, err := s.wallet.Balance(ctx, req.UserID)
	if err != nil {
		return dto.VoucherResponse{}, fmt.Errorf("failed to compute balance: %w", err)
	}
	if balance < s.rules.Minimum {
		return dto.VoucherResponse{}, ErrBelowRedemptionMinimum
	}
	if req.Value > balance {
		return dto.VoucherResponse{}, ErrInsufficientBalance
	}

	now := s.now()
	weekAgo := now.Add(-7 * 24 * time.Hour)
	redemptions, err := s.wallet.CountRedemptionsSince(ctx, req.UserID, weekAgo)
	if err != nil {
		return dto.VoucherResponse{}, fmt.Errorf("failed to count redemptions: %w", err)
	}
	if redemptions >= int64(s.rules.WeeklyLimit) {
		return dto.VoucherResponse{}, ErrRedemptionLimit
	}

	voucher := models.Voucher{
		Code:      s.newVoucherCode(now),
		UserID:    req.UserID,
		Value:     req.Value,
		Type:      req.Type,
		ExpiresAt: now.Add(voucherValidity),
	}
	if err := s.wallet.CreateVoucher(ctx, &voucher); err != nil {
		return dto.VoucherResponse{}, fmt.Errorf("failed to issue voucher: %w", err)
	}

	transaction := models.WalletTransaction{
		UserID:      req.UserID,
		Type:        models.TransactionRedeemed,
		Amount:      -req.Value,
		Description: fmt.Sprintf("Redeemed %s voucher", req.Type),
		VoucherCode: voucher.Code,
	}
	if err := s.wallet.CreateTransaction(ctx, &transaction); err != nil {
		return dto.VoucherResponse{}, fmt.Errorf("failed to record redemption: %w", err)
	}

	s.logger.Info().
		Uint("user_id", req.UserID).
		Int("value", req.Value).
		Str("voucher_code", voucher.Code).
		Msg("points redeemed")

	return dto.NewVoucherResponse(voucher), nil
}

func (s *walletService) newVoucherCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("TERRA-%d-%s", now.Year(), suffix)
}
