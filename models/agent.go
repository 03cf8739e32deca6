package models

import (
	"time"

	"bitbucket.org/baburtravels/agency_backend/utils"
	"github.com/shopspring/decimal"
)

// Agent stores the remaining credit (CreditBalance) instead of the used
// portion. The two conventions describe the same pool
// (credit_limit - credit_balance == used); both are kept so that reports and
// imports built against the historical schema keep reading the same numbers.
type Agent struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Name          string          `gorm:"size:120;uniqueIndex;not null" json:"name" binding:"required"`
	Contact       string          `gorm:"size:40" json:"contact"`
	Email         string          `gorm:"size:120" json:"email"`
	Active        *bool           `gorm:"not null;default:true" json:"active"`
	WalletBalance decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"wallet_balance"`
	CreditLimit   decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"credit_limit"`
	CreditBalance decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"credit_balance"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Agent) ApplyDeduction(amount decimal.Decimal) error {
	if a.WalletBalance.Add(a.CreditBalance).LessThan(amount) {
		return utils.ErrInsufficientFunds
	}
	fromWallet := decimal.Min(a.WalletBalance, amount)
	a.WalletBalance = a.WalletBalance.Sub(fromWallet)
	a.CreditBalance = a.CreditBalance.Sub(amount.Sub(fromWallet))
	return nil
}

// ApplyReversal restores the credit deficit first, remainder to wallet.
func (a *Agent) ApplyReversal(amount decimal.Decimal) {
	deficit := a.CreditLimit.Sub(a.CreditBalance)
	restored := decimal.Min(deficit, amount)
	a.CreditBalance = a.CreditBalance.Add(restored)
	a.WalletBalance = a.WalletBalance.Add(amount.Sub(restored))
}
