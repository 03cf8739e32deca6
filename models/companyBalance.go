package models

import (
	"errors"
	"time"

	"bitbucket.org/baburtravels/agency_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CompanyAccountBalance is one append-only row of the company ledger.
// Rows are never edited in place; corrections append an offsetting entry.
// The current balance for a mode is the row with the highest id for that
// mode, which is also the cumulative sum of all CreditedAmount deltas.
type CompanyAccountBalance struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Mode            PaymentMode     `gorm:"size:20;index;not null" json:"mode"`
	CreditedAmount  decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"credited_amount"`
	CreditedDate    time.Time       `gorm:"autoCreateTime" json:"credited_date"`
	Balance         decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"balance"`
	RefNo           string          `gorm:"size:100" json:"ref_no"`
	TransactionType string          `gorm:"size:20" json:"transaction_type"`
	Action          LedgerAction    `gorm:"size:20" json:"action"`
	UpdatedBy       string          `gorm:"size:100" json:"updated_by"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CompanyBalance returns the current balance for a mode. No rows yet means
// zero. Ordering is by id (not timestamp): several entries can share a
// timestamp within one operation, ids cannot.
func CompanyBalance(tx *gorm.DB, mode PaymentMode) (decimal.Decimal, error) {
	var last CompanyAccountBalance
	err := tx.Where("mode = ?", mode).Order("id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return last.Balance, nil
}

// AppendCompanyEntry appends a signed delta to the ledger for a company mode
// and returns the new row. The delta and the running balance are rounded to
// cents (banker's rounding) at the point of write so repeated reversals
// cannot drift.
func AppendCompanyEntry(tx *gorm.DB, mode PaymentMode, delta decimal.Decimal, refNo string, transactionType string, action LedgerAction, actor string) (*CompanyAccountBalance, error) {
	if !mode.CompanyMode() {
		return nil, utils.ErrInvalidPaymentMode
	}
	prev, err := CompanyBalance(tx, mode)
	if err != nil {
		return nil, err
	}
	delta = utils.RoundMoney(delta)
	entry := CompanyAccountBalance{
		Mode:            mode,
		CreditedAmount:  delta,
		Balance:         utils.RoundMoney(prev.Add(delta)),
		RefNo:           refNo,
		TransactionType: transactionType,
		Action:          action,
		UpdatedBy:       actor,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
