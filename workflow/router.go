package workflow

import (
	"bitbucket.org/baburtravels/agency_backend/models"
	"bitbucket.org/baburtravels/agency_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountOp is what happens to the entity's wallet/credit pool when a side
// settles through the wallet mode.
type AccountOp int

const (
	AccountOpDeduct AccountOp = iota
	AccountOpRevert
)

// LedgerMeta tags the company ledger rows a settlement produces.
type LedgerMeta struct {
	RefNo           string
	TransactionType string
	Action          models.LedgerAction
	Actor           string
}

// SettlementSide describes one side of an operation: whose money moves, by
// which mode, and in which direction relative to the company.
type SettlementSide struct {
	Entity *EntityRef // nil when no tracked account is involved
	Mode   models.PaymentMode
	Amount decimal.Decimal
	// Op applies when Mode is wallet.
	Op AccountOp
	// Direction applies when Mode is cash/online.
	Direction models.LedgerDirection
}

// RouteSide settles one side. Wallet mode touches only the entity account;
// cash/online touch only the company ledger. Every other mode is rejected.
// Zero amounts are a no-op so callers can route optional sides untested.
func RouteSide(tx *gorm.DB, side SettlementSide, meta LedgerMeta) error {
	if side.Amount.IsZero() {
		return nil
	}
	switch {
	case side.Mode == models.PaymentModeWallet:
		if side.Entity == nil {
			return utils.ErrMissingEntity
		}
		if side.Op == AccountOpDeduct {
			return DeductEntity(tx, *side.Entity, side.Amount)
		}
		return RevertEntity(tx, *side.Entity, side.Amount)

	case side.Mode.CompanyMode():
		delta := side.Amount
		if side.Direction == models.LedgerDirectionOut {
			delta = delta.Neg()
		}
		_, err := models.AppendCompanyEntry(tx, side.Mode, delta, meta.RefNo, meta.TransactionType, meta.Action, meta.Actor)
		return err
	}
	return utils.ErrInvalidPaymentMode
}
