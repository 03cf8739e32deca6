package models

import (
	"time"

	"bitbucket.org/baburtravels/agency_backend/utils"
	"github.com/shopspring/decimal"
)

// Customer holds a wallet plus a revolving credit line. CreditUsed stores the
// consumed portion (0 <= CreditUsed <= CreditLimit); the agent model stores
// the complementary "remaining" convention, see agent.go.
type Customer struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Name          string          `gorm:"size:120;uniqueIndex;not null" json:"name" binding:"required"`
	Contact       string          `gorm:"size:40" json:"contact"`
	Email         string          `gorm:"size:120" json:"email"`
	Active        *bool           `gorm:"not null;default:true" json:"active"`
	WalletBalance decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"wallet_balance"`
	CreditLimit   decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"credit_limit"`
	CreditUsed    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"credit_used"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ApplyDeduction takes amount out of the wallet first, then out of the credit
// line. Fails without mutating anything when wallet + available credit cannot
// cover the amount.
func (c *Customer) ApplyDeduction(amount decimal.Decimal) error {
	creditAvailable := c.CreditLimit.Sub(c.CreditUsed)
	if c.WalletBalance.Add(creditAvailable).LessThan(amount) {
		return utils.ErrInsufficientFunds
	}
	fromWallet := decimal.Min(c.WalletBalance, amount)
	c.WalletBalance = c.WalletBalance.Sub(fromWallet)
	c.CreditUsed = c.CreditUsed.Add(amount.Sub(fromWallet))
	return nil
}

// ApplyReversal is the exact inverse of ApplyDeduction: used credit is
// restored first, the remainder lands in the wallet.
func (c *Customer) ApplyReversal(amount decimal.Decimal) {
	restored := decimal.Min(c.CreditUsed, amount)
	c.CreditUsed = c.CreditUsed.Sub(restored)
	c.WalletBalance = c.WalletBalance.Add(amount.Sub(restored))
}
