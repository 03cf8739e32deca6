package models

import (
	"errors"
	"time"

	"bitbucket.org/baburtravels/agency_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AppliedEffects records exactly which sub-effects a transaction produced
// when it was applied. Reversal reads these flags back instead of
// re-deriving intent from the current field values, which is what makes
// edit/delete safe after the amount, entity or mode has changed.
type AppliedEffects struct {
	DebitedEntity   bool `json:"debited_entity,omitempty"`
	CreditedEntity  bool `json:"credited_entity,omitempty"`
	CompanyAdjusted bool `json:"company_adjusted,omitempty"`
}

func (e *AppliedEffects) Clear() {
	e.DebitedEntity = false
	e.CreditedEntity = false
	e.CompanyAdjusted = false
}

// TransactionExtra is the typed rendering of the transaction's side data:
// direction flags, refund/transfer entity pairs with per-side modes, and the
// applied-effects audit trail. Persisted as a JSON column.
type TransactionExtra struct {
	RefundDirection   RefundDirection `json:"refund_direction,omitempty"`
	DeductFromAccount bool            `json:"deduct_from_account,omitempty"`
	CreditToAccount   bool            `json:"credit_to_account,omitempty"`

	FromEntityType EntityKind  `json:"from_entity_type,omitempty"`
	FromEntityID   *int        `json:"from_entity_id,omitempty"`
	ToEntityType   EntityKind  `json:"to_entity_type,omitempty"`
	ToEntityID     *int        `json:"to_entity_id,omitempty"`
	ModeForFrom    PaymentMode `json:"mode_for_from,omitempty"`
	ModeForTo      PaymentMode `json:"mode_for_to,omitempty"`

	FromEntityName string `json:"from_entity_name,omitempty"`
	ToEntityName   string `json:"to_entity_name,omitempty"`

	Applied AppliedEffects `json:"applied,omitempty"`
}

// Transaction is a standalone ledger movement not tied to a booking:
// payment, receipt, refund or wallet transfer.
type Transaction struct {
	ID              int             `gorm:"primary_key" json:"id"`
	RefNo           string          `gorm:"size:100;uniqueIndex;not null" json:"ref_no"`
	EntityType      EntityKind      `gorm:"size:20;index;not null" json:"entity_type"`
	EntityID        *int            `gorm:"index" json:"entity_id"`
	TransactionType TransactionType `gorm:"size:20;index;not null" json:"transaction_type"`
	PayType         PayType         `gorm:"size:20;not null" json:"pay_type"`
	Mode            PaymentMode     `gorm:"size:20;not null" json:"mode"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Date            time.Time       `json:"date"`
	Description     string          `gorm:"size:255" json:"description"`
	ParticularID    *int            `json:"particular_id"`
	UpdatedBy       string          `gorm:"size:100;default:'system'" json:"updated_by"`

	Extra TransactionExtra `gorm:"column:extra_data;serializer:json" json:"extra_data"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetTransaction(tx *gorm.DB, id int) (*Transaction, error) {
	var t Transaction
	err := tx.First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func GetTransactions(tx *gorm.DB, transactionType TransactionType, fromDate, toDate *time.Time) ([]*Transaction, error) {
	dbCtx := tx.Where("transaction_type = ?", transactionType)
	if fromDate != nil {
		dbCtx = dbCtx.Where("date >= ?", *fromDate)
	}
	if toDate != nil {
		dbCtx = dbCtx.Where("date < ?", toDate.AddDate(0, 0, 1))
	}
	var transactions []*Transaction
	if err := dbCtx.Order("date DESC").Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}
