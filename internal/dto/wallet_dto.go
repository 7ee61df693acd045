package dto

import (
	"time"

	"github.com/terraed/terra-api/internal/models"
)

// RedeemRequest describes a point redemption for a partner voucher.
type RedeemRequest struct {
	UserID uint   `json:"user_id" validate:"required,gt=0"`
	Value  int    `json:"value" validate:"required,gt=0"`
	Type   string `json:"type" validate:"required,oneof=canteen bookstore transport"`
}

// TransactionResponse is a single wallet ledger entry.
type TransactionResponse struct {
	ID          uint      `json:"id"`
	Type        string    `json:"type"`
	Amount      int       `json:"amount"`
	Description string    `json:"description"`
	QuestID     *uint     `json:"quest_id"`
	VoucherCode string    `json:"voucher_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// VoucherResponse is an issued voucher as shown to the student.
type VoucherResponse struct {
	ID        uint      `json:"id"`
	Code      string    `json:"code"`
	Value     int       `json:"value"`
	Type      string    `json:"type"`
	Used      bool      `json:"used"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// WalletResponse is the full wallet view for a user.
type WalletResponse struct {
	UserID       uint                  `json:"user_id"`
	Balance      int                   `json:"balance"`
	Transactions []TransactionResponse `json:"transactions"`
	Vouchers     []VoucherResponse     `json:"vouchers"`
}

// NewTransactionResponse converts a transaction model into a DTO.
func NewTransactionResponse(model models.WalletTransaction) TransactionResponse {
	return TransactionResponse{
		ID:          model.ID,
		Type:        model.Type,
		Amount:      model.Amount,
		Description: model.Description,
		QuestID:     model.QuestID,
		VoucherCode: model.VoucherCode,
		CreatedAt:   model.CreatedAt,
	}
}

// NewVoucherResponse converts a voucher model into a DTO.
func NewVoucherResponse(model models.Voucher) VoucherResponse {
	return VoucherResponse{
		ID:        model.ID,
		Code:      model.Code,
		Value:     model.Value,
		Type:      model.Type,
		Used:      model.Used,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
	}
}

// NewWalletResponse assembles the wallet view from its parts.
func NewWalletResponse(userID uint, balance int, transactions []models.WalletTransaction, vouchers []models.Voucher) WalletResponse {
	response := WalletResponse{
		UserID:       userID,
		Balance:      balance,
		Transactions: make([]TransactionResponse, 0, len(transactions)),
		Vouchers:     make([]VoucherResponse, 0, len(vouchers)),
	}
	for _, transaction := range transactions {
		response.Transactions = append(response.Transactions, NewTransactionResponse(transaction))
	}
	for _, voucher := range vouchers {
		response.Vouchers = append(response.Vouchers, NewVoucherResponse(voucher))
	}

	return response
}
