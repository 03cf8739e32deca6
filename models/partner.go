package models

import (
	"time"

	"bitbucket.org/baburtravels/agency_backend/utils"
	"github.com/shopspring/decimal"
)

// Partner has no credit line, only a wallet. AllowNegativeWallet lets the
// wallet be driven below zero (settlement partners that are billed later).
type Partner struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	Name                string          `gorm:"size:120;uniqueIndex;not null" json:"name" binding:"required"`
	Contact             string          `gorm:"size:40" json:"contact"`
	Email               string          `gorm:"size:120" json:"email"`
	Active              *bool           `gorm:"not null;default:true" json:"active"`
	WalletBalance       decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"wallet_balance"`
	AllowNegativeWallet bool            `gorm:"not null;default:false" json:"allow_negative_wallet"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Partner) ApplyDeduction(amount decimal.Decimal) error {
	if !p.AllowNegativeWallet && p.WalletBalance.LessThan(amount) {
		return utils.ErrInsufficientFunds
	}
	p.WalletBalance = p.WalletBalance.Sub(amount)
	return nil
}

func (p *Partner) ApplyReversal(amount decimal.Decimal) {
	p.WalletBalance = p.WalletBalance.Add(amount)
}
