package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/terraed/terra-api/internal/dto"
	"github.com/terraed/terra-api/internal/models"
)

type walletFixture struct {
	svc    *walletService
	wallet *stubWalletRepo
	users  *stubUserRepo
}

func newWalletFixture(t *testing.T) walletFixture {
	t.Helper()

	users := &stubUserRepo{users: map[uint]models.User{
		5: {ID: 5, Name: "Aini", Role: models.RoleStudent},
	}}
	wallet := &stubWalletRepo{}

	svc := NewWalletService(wallet, users, RedemptionRules{}, testLogger()).(*walletService)
	svc.now = fixedNow

	return walletFixture{svc: svc, wallet: wallet, users: users}
}

func creditWallet(fixture walletFixture, userID uint, amount int) {
	_ = fixture.wallet.CreateTransaction(context.Background(), &models.WalletTransaction{
		UserID:      userID,
		Type:        models.TransactionEarned,
		Amount:      amount,
		Description: "Completed quest: Plant a Sapling",
	})
}

func TestWalletServiceGetWallet(t *testing.T) {
	fixture := newWalletFixture(t)
	creditWallet(fixture, 5, 120)
	creditWallet(fixture, 5, 30)

	wallet, err := fixture.svc.GetWallet(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, uint(5), wallet.UserID)
	require.Equal(t, 150, wallet.Balance)
	require.Len(t, wallet.Transactions, 2)
	require.Empty(t, wallet.Vouchers)
}

func TestWalletServiceGetWalletUnknownUser(t *testing.T) {
	fixture := newWalletFixture(t)

	_, err := fixture.svc.GetWallet(context.Background(), 99)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestWalletServiceRedeemIssuesVoucher(t *testing.T) {
	fixture := newWalletFixture(t)
	creditWallet(fixture, 5, 150)

	voucher, err := fixture.svc.Redeem(context.Background(), dto.RedeemRequest{
		UserID: 5,
		Value:  120,
		Type:   "canteen",
	})
	require.NoError(t, err)
	require.Regexp(t, `^TERRA-2026-[0-9A-F]{8}$`, voucher.Code)
	require.Equal(t, 120, voucher.Value)
	require.Equal(t, "canteen", voucher.Type)
	require.Equal(t, fixedNow().Add(90*24*time.Hour), voucher.ExpiresAt)

	// The redemption debits the balance through a negative transaction.
	balance, err := fixture.wallet.Balance(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 30, balance)

	last := fixture.wallet.transactions[len(fixture.wallet.transactions)-1]
	require.Equal(t, models.TransactionRedeemed, last.Type)
	require.Equal(t, -120, last.Amount)
	require.Equal(t, voucher.Code, last.VoucherCode)
}

func TestWalletServiceRedeemBelowMinimum(t *testing.T) {
	fixture := newWalletFixture(t)
	creditWallet(fixture, 5, 99)

	_, err := fixture.svc.Redeem(context.Background(), dto.RedeemRequest{UserID: 5, Value: 50, Type: "canteen"})
	require.ErrorIs(t, err, ErrBelowRedemptionMinimum)
}

func TestWalletServiceRedeemInsufficientBalance(t *testing.T) {
	fixture := newWalletFixture(t)
	creditWallet(fixture, 5, 100)

	_, err := fixture.svc.Redeem(context.Background(), dto.RedeemRequest{UserID: 5, Value: 150, Type: "bookstore"})
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestWalletServiceRedeemWeeklyLimit(t *testing.T) {
	fixture := newWalletFixture(t)
	creditWallet(fixture, 5, 1000)

	for i := 0; i < 2; i++ {
		_, err := fixture.svc.Redeem(context.Background(), dto.RedeemRequest{UserID: 5, Value: 100, Type: "transport"})
		require.NoError(t, err, fmt.Sprintf("redemption %d", i+1))
	}

	_, err := fixture.svc.Redeem(context.Background(), dto.RedeemRequest{UserID: 5, Value: 100, Type: "transport"})
	require.ErrorIs(t, err, ErrRedemptionLimit)
}
