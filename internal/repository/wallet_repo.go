package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/terraed/terra-api/internal/models"
)

// WalletRepository defines data operations for wallet transactions and vouchers.
type WalletRepository interface {
	ListTransactions(ctx context.Context, userID uint) ([]models.WalletTransaction, error)
	CreateTransaction(ctx context.Context, transaction *models.WalletTransaction) error
	Balance(ctx context.Context, userID uint) (int, error)
	CountRedemptionsSince(ctx context.Context, userID uint, since time.Time) (int64, error)
	CreateVoucher(ctx context.Context, voucher *models.Voucher) error
	ListVouchers(ctx context.Context, userID uint) ([]models.Voucher, error)
}

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository instantiates the repository.
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) ListTransactions(ctx context.Context, userID uint) ([]models.WalletTransaction, error) {
	var transactions []models.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *walletRepository) CreateTransaction(ctx context.Context, transaction *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *walletRepository) Balance(ctx context.Context, userID uint) (int, error) {
	var balance *int
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Select("SUM(amount)").
		Where("user_id = ?", userID).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}

	return *balance, nil
}

func (r *walletRepository) CountRedemptionsSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("user_id = ?", userID).
		Where("type = ?", models.TransactionRedeemed).
		Where("created_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *walletRepository) CreateVoucher(ctx context.Context, voucher *models.Voucher) error {
	return r.db.WithContext(ctx).Create(voucher).Error
}

func (r *walletRepository) ListVouchers(ctx context.Context, userID uint) ([]models.Voucher, error) {
	var vouchers []models.Voucher
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&vouchers).Error; err != nil {
		return nil, err
	}

	return vouchers, nil
}
