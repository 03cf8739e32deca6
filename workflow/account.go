package workflow

import (
	"errors"

	"bitbucket.org/baburtravels/agency_backend/models"
	"bitbucket.org/baburtravels/agency_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EntityRef is a tagged reference to a wallet-holding entity. It replaces
// stringly-typed model lookups: the settlement engine resolves the kind once
// and dispatches to the matching account arithmetic.
type EntityRef struct {
	Kind models.EntityKind
	ID   int
}

// DeductEntity takes amount out of the entity's wallet/credit pool.
// The caller must hold the entity posting lock (AcquireEntityLock) so two
// concurrent deductions cannot both read the same pre-deduction balance.
func DeductEntity(tx *gorm.DB, ref EntityRef, amount decimal.Decimal) error {
	return mutateAccount(tx, ref, amount, true)
}

// RevertEntity puts amount back into the entity's wallet/credit pool,
// restoring consumed credit before topping up the wallet. Exact inverse of
// DeductEntity.
func RevertEntity(tx *gorm.DB, ref EntityRef, amount decimal.Decimal) error {
	return mutateAccount(tx, ref, amount, false)
}

func mutateAccount(tx *gorm.DB, ref EntityRef, amount decimal.Decimal, deduct bool) error {
	if amount.IsZero() {
		return nil
	}
	switch ref.Kind {
	case models.EntityKindCustomer:
		var customer models.Customer
		if err := firstEntity(tx, &customer, ref.ID); err != nil {
			return err
		}
		if deduct {
			if err := customer.ApplyDeduction(amount); err != nil {
				return err
			}
		} else {
			customer.ApplyReversal(amount)
		}
		return tx.Model(&customer).Updates(map[string]interface{}{
			"wallet_balance": customer.WalletBalance,
			"credit_used":    customer.CreditUsed,
		}).Error

	case models.EntityKindAgent:
		var agent models.Agent
		if err := firstEntity(tx, &agent, ref.ID); err != nil {
			return err
		}
		if deduct {
			if err := agent.ApplyDeduction(amount); err != nil {
				return err
			}
		} else {
			agent.ApplyReversal(amount)
		}
		return tx.Model(&agent).Updates(map[string]interface{}{
			"wallet_balance": agent.WalletBalance,
			"credit_balance": agent.CreditBalance,
		}).Error

	case models.EntityKindPartner:
		var partner models.Partner
		if err := firstEntity(tx, &partner, ref.ID); err != nil {
			return err
		}
		if deduct {
			if err := partner.ApplyDeduction(amount); err != nil {
				return err
			}
		} else {
			partner.ApplyReversal(amount)
		}
		return tx.Model(&partner).Updates(map[string]interface{}{
			"wallet_balance": partner.WalletBalance,
		}).Error
	}
	return utils.ErrMissingEntity
}

func firstEntity(tx *gorm.DB, dest interface{}, id int) error {
	err := tx.First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrMissingEntity
	}
	return err
}

// EntityBalances is the point-read surface consumed by reporting.
type EntityBalances struct {
	Kind            models.EntityKind `json:"kind"`
	ID              int               `json:"id"`
	WalletBalance   decimal.Decimal   `json:"wallet_balance"`
	CreditLimit     decimal.Decimal   `json:"credit_limit"`
	CreditUsed      decimal.Decimal   `json:"credit_used"`
	CreditAvailable decimal.Decimal   `json:"credit_available"`
}

func GetEntityBalances(tx *gorm.DB, ref EntityRef) (*EntityBalances, error) {
	balances := EntityBalances{Kind: ref.Kind, ID: ref.ID}
	switch ref.Kind {
	case models.EntityKindCustomer:
		var customer models.Customer
		if err := firstEntity(tx, &customer, ref.ID); err != nil {
			return nil, err
		}
		balances.WalletBalance = customer.WalletBalance
		balances.CreditLimit = customer.CreditLimit
		balances.CreditUsed = customer.CreditUsed
		balances.CreditAvailable = customer.CreditLimit.Sub(customer.CreditUsed)
	case models.EntityKindAgent:
		var agent models.Agent
		if err := firstEntity(tx, &agent, ref.ID); err != nil {
			return nil, err
		}
		balances.WalletBalance = agent.WalletBalance
		balances.CreditLimit = agent.CreditLimit
		// agents store remaining credit; report the complementary view too
		balances.CreditUsed = agent.CreditLimit.Sub(agent.CreditBalance)
		balances.CreditAvailable = agent.CreditBalance
	case models.EntityKindPartner:
		var partner models.Partner
		if err := firstEntity(tx, &partner, ref.ID); err != nil {
			return nil, err
		}
		balances.WalletBalance = partner.WalletBalance
	default:
		return nil, utils.ErrMissingEntity
	}
	return &balances, nil
}
