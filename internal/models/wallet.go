package models

import "time"

// Wallet transaction types.
const (
	TransactionEarned   = "earned"
	TransactionRedeemed = "redeemed"
	TransactionBonus    = "bonus"
)

// Voucher types redeemable with partner outlets.
const (
	VoucherCanteen   = "canteen"
	VoucherBookstore = "bookstore"
	VoucherTransport = "transport"
)

// WalletTransaction records a single point movement on a user's wallet.
// Redemptions carry a negative amount.
type WalletTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Type        string    `gorm:"size:16;not null" json:"type"`
	Amount      int       `gorm:"not null" json:"amount"`
	Description string    `gorm:"size:512" json:"description"`
	QuestID     *uint     `json:"quest_id"`
	VoucherCode string    `gorm:"size:64" json:"voucher_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// Voucher is an issued redemption code for a partner outlet.
type Voucher struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Value     int       `gorm:"not null" json:"value"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	Used      bool      `gorm:"default:false" json:"used"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the voucher can no longer be used.
func (v Voucher) IsExpired(reference time.Time) bool {
	return reference.After(v.ExpiresAt)
}
