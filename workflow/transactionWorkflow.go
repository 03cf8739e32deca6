package workflow

import (
	"time"

	"bitbucket.org/baburtravels/agency_backend/config"
	"bitbucket.org/baburtravels/agency_backend/models"
	"bitbucket.org/baburtravels/agency_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TransactionInput carries a standalone ledger movement: payment, receipt,
// refund or wallet transfer.
type TransactionInput struct {
	TransactionType models.TransactionType
	EntityType      models.EntityKind
	EntityID        *int
	PayType         models.PayType
	Mode            models.PaymentMode
	Amount          decimal.Decimal
	Date            time.Time
	Description     string
	ParticularID    *int

	// refund / wallet-transfer side data
	RefundDirection   models.RefundDirection
	DeductFromAccount bool
	CreditToAccount   bool
	FromEntityType    models.EntityKind
	FromEntityID      *int
	ToEntityType      models.EntityKind
	ToEntityID        *int
	ModeForFrom       models.PaymentMode
	ModeForTo         models.PaymentMode
}

// CreateTransaction allocates a reference number, applies the settlement
// effects for the transaction type and persists the row together with its
// applied-effects flags.
func CreateTransaction(tx *gorm.DB, logger *logrus.Logger, actor string, input TransactionInput) (*models.Transaction, error) {
	if !input.TransactionType.Valid() {
		return nil, utils.ErrInvalidTransactionType
	}
	if !input.Amount.IsPositive() {
		return nil, utils.ErrInvalidAmount
	}

	scope := RefNoScope(time.Now().Year(), input.TransactionType.RefPrefix())
	if err := AcquireRefNoLock(tx, scope); err != nil {
		return nil, err
	}
	defer ReleaseRefNoLock(tx, scope)

	refNo, err := models.NextTransactionRefNo(tx, input.TransactionType)
	if err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}
	transaction := models.Transaction{
		RefNo:           refNo,
		TransactionType: input.TransactionType,
		PayType:         input.PayType,
		Date:            date,
		Description:     input.Description,
		ParticularID:    input.ParticularID,
		Amount:          input.Amount,
		UpdatedBy:       actor,
	}
	setTransactionFields(&transaction, input)

	if err := applyTransactionEffects(tx, &transaction, actor); err != nil {
		config.LogError(logger, "transactionWorkflow.go", "CreateTransaction", "applyTransactionEffects", transaction.RefNo, err)
		return nil, err
	}
	if err := tx.Create(&transaction).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

// UpdateTransaction rewrites an existing transaction. The old effects are
// always unwound first, driven by the stored applied flags, then the new
// values are applied from scratch. This keeps an amount/entity/mode change
// financially identical to delete+recreate under the same reference number.
func UpdateTransaction(tx *gorm.DB, logger *logrus.Logger, actor string, id int, input TransactionInput) (*models.Transaction, error) {
	transaction, err := models.GetTransaction(tx, id)
	if err != nil {
		return nil, err
	}
	if input.TransactionType != transaction.TransactionType {
		return nil, utils.ErrInvalidTransactionType
	}
	if !input.Amount.IsPositive() {
		return nil, utils.ErrInvalidAmount
	}

	if err := reverseTransactionEffects(tx, transaction, models.LedgerActionReversal, actor); err != nil {
		config.LogError(logger, "transactionWorkflow.go", "UpdateTransaction", "reverseTransactionEffects", transaction.RefNo, err)
		return nil, err
	}

	transaction.PayType = input.PayType
	transaction.Amount = input.Amount
	transaction.Description = input.Description
	transaction.ParticularID = input.ParticularID
	if !input.Date.IsZero() {
		transaction.Date = input.Date
	}
	transaction.UpdatedBy = actor
	setTransactionFields(transaction, input)

	if err := applyTransactionEffects(tx, transaction, actor); err != nil {
		config.LogError(logger, "transactionWorkflow.go", "UpdateTransaction", "applyTransactionEffects", transaction.RefNo, err)
		return nil, err
	}
	if err := tx.Save(transaction).Error; err != nil {
		return nil, err
	}
	return transaction, nil
}

// DeleteTransaction unwinds the stored effects and removes the row.
func DeleteTransaction(tx *gorm.DB, logger *logrus.Logger, actor string, id int) error {
	transaction, err := models.GetTransaction(tx, id)
	if err != nil {
		return err
	}
	if err := reverseTransactionEffects(tx, transaction, models.LedgerActionDelete, actor); err != nil {
		config.LogError(logger, "transactionWorkflow.go", "DeleteTransaction", "reverseTransactionEffects", transaction.RefNo, err)
		return err
	}
	return tx.Delete(transaction).Error
}

// setTransactionFields fills the entity/mode columns from the input. Refund
// and wallet-transfer rows derive their headline entity and mode from the
// from/to pair so list views stay meaningful.
func setTransactionFields(transaction *models.Transaction, input TransactionInput) {
	transaction.Extra = models.TransactionExtra{
		RefundDirection:   input.RefundDirection,
		DeductFromAccount: input.DeductFromAccount,
		CreditToAccount:   input.CreditToAccount,
		FromEntityType:    input.FromEntityType,
		FromEntityID:      input.FromEntityID,
		ToEntityType:      input.ToEntityType,
		ToEntityID:        input.ToEntityID,
		ModeForFrom:       input.ModeForFrom,
		ModeForTo:         input.ModeForTo,
	}

	switch input.TransactionType {
	case models.TransactionTypeRefund:
		if input.RefundDirection == models.RefundDirectionIncoming {
			transaction.EntityType = input.FromEntityType
			transaction.EntityID = input.FromEntityID
		} else {
			transaction.EntityType = input.ToEntityType
			transaction.EntityID = input.ToEntityID
		}
		if input.RefundDirection == models.RefundDirectionIncoming && input.FromEntityType == models.EntityKindOthers {
			transaction.Mode = input.ModeForTo
		} else {
			transaction.Mode = input.ModeForFrom
		}
	case models.TransactionTypeWalletTransfer:
		transaction.EntityType = input.FromEntityType
		transaction.EntityID = input.FromEntityID
		transaction.Mode = models.PaymentModeWallet
	default:
		transaction.EntityType = input.EntityType
		transaction.EntityID = input.EntityID
		transaction.Mode = input.Mode
	}
}

func applyTransactionEffects(tx *gorm.DB, transaction *models.Transaction, actor string) error {
	transaction.Extra.Applied.Clear()
	switch transaction.TransactionType {
	case models.TransactionTypePayment:
		return applyPayment(tx, transaction, actor)
	case models.TransactionTypeReceipt:
		return applyReceipt(tx, transaction, actor)
	case models.TransactionTypeRefund:
		return applyRefund(tx, transaction, actor)
	case models.TransactionTypeWalletTransfer:
		return applyWalletTransfer(tx, transaction)
	}
	return utils.ErrInvalidTransactionType
}

// paymentCompanyDirection resolves which way a payment moves company money.
// Payments normally pay money out; an agent cash deposit is the agent
// handing money over, so the company account rises.
func paymentCompanyDirection(transaction *models.Transaction) models.LedgerDirection {
	if transaction.EntityType == models.EntityKindAgent && transaction.PayType == models.PayTypeCashDeposit {
		return models.LedgerDirectionIn
	}
	return models.LedgerDirectionOut
}

// applyPayment settles a payment. Depending on the pay type the
// counter-effect lands on the entity account: a cash deposit for an agent
// tops up their pool, an expense charged to an account deducts it.
func applyPayment(tx *gorm.DB, transaction *models.Transaction, actor string) error {
	extra := &transaction.Extra
	if transaction.EntityType != models.EntityKindOthers {
		if transaction.EntityID == nil {
			return utils.ErrMissingEntity
		}
		ref := EntityRef{Kind: transaction.EntityType, ID: *transaction.EntityID}
		if err := AcquireEntityLock(tx, ref); err != nil {
			return err
		}
		defer ReleaseEntityLock(tx, ref)
		switch {
		case transaction.EntityType == models.EntityKindAgent && transaction.PayType == models.PayTypeCashDeposit:
			if err := RevertEntity(tx, ref, transaction.Amount); err != nil {
				return err
			}
			extra.Applied.CreditedEntity = true
		case transaction.PayType == models.PayTypeCashWithdrawal,
			transaction.PayType == models.PayTypeOtherExpense && extra.DeductFromAccount:
			if err := DeductEntity(tx, ref, transaction.Amount); err != nil {
				return err
			}
			extra.Applied.DebitedEntity = true
		}
	}
	return logCompanyEffect(tx, transaction, transaction.Mode, paymentCompanyDirection(transaction), models.LedgerActionBook, actor)
}

// applyReceipt settles money entering the company. A customer or partner
// deposit tops up their pool; an agent receipt against their account
// deducts it (they owe the company less only through the company books).
func applyReceipt(tx *gorm.DB, transaction *models.Transaction, actor string) error {
	extra := &transaction.Extra
	if transaction.EntityType != models.EntityKindOthers {
		if transaction.EntityID == nil {
			return utils.ErrMissingEntity
		}
		ref := EntityRef{Kind: transaction.EntityType, ID: *transaction.EntityID}
		if err := AcquireEntityLock(tx, ref); err != nil {
			return err
		}
		defer ReleaseEntityLock(tx, ref)
		creditType := transaction.PayType == models.PayTypeCashDeposit ||
			(transaction.PayType == models.PayTypeOtherReceipt && extra.CreditToAccount)
		switch {
		case transaction.EntityType == models.EntityKindAgent &&
			transaction.PayType == models.PayTypeOtherReceipt && extra.CreditToAccount:
			if err := DeductEntity(tx, ref, transaction.Amount); err != nil {
				return err
			}
			extra.Applied.DebitedEntity = true
		case creditType && transaction.EntityType != models.EntityKindAgent:
			if err := RevertEntity(tx, ref, transaction.Amount); err != nil {
				return err
			}
			extra.Applied.CreditedEntity = true
		}
	}
	return logCompanyEffect(tx, transaction, transaction.Mode, models.LedgerDirectionIn, models.LedgerActionBook, actor)
}

// applyRefund settles a refund in either direction. Incoming: a supplier
// or third party returns money to the company (or to the origin entity's
// account). Outgoing: the company returns money to an entity.
func applyRefund(tx *gorm.DB, transaction *models.Transaction, actor string) error {
	extra := &transaction.Extra
	if extra.RefundDirection == models.RefundDirectionIncoming {
		return applyIncomingRefund(tx, transaction, actor)
	}
	return applyOutgoingRefund(tx, transaction, actor)
}

func applyIncomingRefund(tx *gorm.DB, transaction *models.Transaction, actor string) error {
	extra := &transaction.Extra
	fromOthers := extra.FromEntityType == models.EntityKindOthers
	switch {
	case fromOthers || extra.ModeForFrom.CompanyMode():
		if err := logCompanyEffect(tx, transaction, extra.ModeForTo, models.LedgerDirectionIn, models.LedgerActionRefund, actor); err != nil {
			return err
		}
		if !fromOthers && extra.CreditToAccount {
			if extra.FromEntityID == nil {
				return utils.ErrMissingEntity
			}
			ref := EntityRef{Kind: extra.FromEntityType, ID: *extra.FromEntityID}
			if err := AcquireEntityLock(tx, ref); err != nil {
				return err
			}
			defer ReleaseEntityLock(tx, ref)
			if err := RevertEntity(tx, ref, transaction.Amount); err != nil {
				return err
			}
			extra.Applied.CreditedEntity = true
		}
	case extra.ModeForFrom == models.PaymentModeWallet:
		if extra.FromEntityID == nil {
			return utils.ErrMissingEntity
		}
		ref := EntityRef{Kind: extra.FromEntityType, ID: *extra.FromEntityID}
		if err := AcquireEntityLock(tx, ref); err != nil {
			return err
		}
		defer ReleaseEntityLock(tx, ref)
		if err := DeductEntity(tx, ref, transaction.Amount); err != nil {
			return err
		}
		extra.Applied.DebitedEntity = true
	default:
		return utils.ErrInvalidPaymentMode
	}
	return nil
}

func applyOutgoingRefund(tx *gorm.DB, transaction *models.Transaction, actor string) error {
	extra := &transaction.Extra
	// a refund settled in kind (service availed) never moves company money
	if transaction.PayType != models.PayTypeServiceAvailed {
		if err := logCompanyEffect(tx, transaction, extra.ModeForFrom, models.LedgerDirectionOut, models.LedgerActionRefund, actor); err != nil {
			return err
		}
	}
	if extra.ToEntityType == models.EntityKindOthers {
		return nil
	}
	if extra.ToEntityID == nil {
		return utils.ErrMissingEntity
	}
	ref := EntityRef{Kind: extra.ToEntityType, ID: *extra.ToEntityID}
	switch {
	case extra.ToEntityType != models.EntityKindAgent && extra.DeductFromAccount:
		if err := AcquireEntityLock(tx, ref); err != nil {
			return err
		}
		defer ReleaseEntityLock(tx, ref)
		if err := DeductEntity(tx, ref, transaction.Amount); err != nil {
			return err
		}
		extra.Applied.DebitedEntity = true
	case extra.CreditToAccount:
		if err := AcquireEntityLock(tx, ref); err != nil {
			return err
		}
		defer ReleaseEntityLock(tx, ref)
		if err := RevertEntity(tx, ref, transaction.Amount); err != nil {
			return err
		}
		extra.Applied.CreditedEntity = true
	}
	return nil
}

// applyWalletTransfer moves balance between two tracked accounts without
// touching the company ledger. Both sides must exist.
func applyWalletTransfer(tx *gorm.DB, transaction *models.Transaction) error {
	extra := &transaction.Extra
	if extra.FromEntityID == nil || extra.ToEntityID == nil ||
		extra.FromEntityType == models.EntityKindOthers || extra.ToEntityType == models.EntityKindOthers {
		return utils.ErrMissingEntity
	}
	from := EntityRef{Kind: extra.FromEntityType, ID: *extra.FromEntityID}
	to := EntityRef{Kind: extra.ToEntityType, ID: *extra.ToEntityID}

	fromName, err := entityName(tx, from)
	if err != nil {
		return err
	}
	toName, err := entityName(tx, to)
	if err != nil {
		return err
	}
	extra.FromEntityName = fromName
	extra.ToEntityName = toName

	if err := AcquireEntityLock(tx, from); err != nil {
		return err
	}
	defer ReleaseEntityLock(tx, from)
	if err := AcquireEntityLock(tx, to); err != nil {
		return err
	}
	defer ReleaseEntityLock(tx, to)
	if err := DeductEntity(tx, from, transaction.Amount); err != nil {
		return err
	}
	extra.Applied.DebitedEntity = true
	if err := RevertEntity(tx, to, transaction.Amount); err != nil {
		return err
	}
	extra.Applied.CreditedEntity = true
	return nil
}

// logCompanyEffect appends the company ledger row for a transaction effect
// and records the fact in the applied flags. Wallet mode means no company
// movement.
func logCompanyEffect(tx *gorm.DB, transaction *models.Transaction, mode models.PaymentMode, direction models.LedgerDirection, action models.LedgerAction, actor string) error {
	if mode == models.PaymentModeWallet {
		return nil
	}
	if !mode.CompanyMode() {
		return utils.ErrInvalidPaymentMode
	}
	delta := transaction.Amount
	if direction == models.LedgerDirectionOut {
		delta = delta.Neg()
	}
	if _, err := models.AppendCompanyEntry(tx, mode, delta, transaction.RefNo, string(transaction.TransactionType), action, actor); err != nil {
		return err
	}
	transaction.Extra.Applied.CompanyAdjusted = true
	return nil
}

// reverseTransactionEffects unwinds whatever the stored applied flags say
// happened. It never re-derives intent from the current field values, so a
// description-only edit round-trips to the identical balances.
func reverseTransactionEffects(tx *gorm.DB, transaction *models.Transaction, action models.LedgerAction, actor string) error {
	extra := &transaction.Extra
	applied := extra.Applied

	switch transaction.TransactionType {
	case models.TransactionTypePayment, models.TransactionTypeReceipt:
		if applied.DebitedEntity || applied.CreditedEntity {
			if transaction.EntityID == nil {
				return utils.ErrMissingEntity
			}
			ref := EntityRef{Kind: transaction.EntityType, ID: *transaction.EntityID}
			if err := AcquireEntityLock(tx, ref); err != nil {
				return err
			}
			defer ReleaseEntityLock(tx, ref)
			if applied.DebitedEntity {
				if err := RevertEntity(tx, ref, transaction.Amount); err != nil {
					return err
				}
			}
			if applied.CreditedEntity {
				if err := DeductEntity(tx, ref, transaction.Amount); err != nil {
					return err
				}
			}
		}
		if applied.CompanyAdjusted {
			direction := models.LedgerDirectionOut
			if transaction.TransactionType == models.TransactionTypePayment &&
				paymentCompanyDirection(transaction) == models.LedgerDirectionOut {
				direction = models.LedgerDirectionIn
			}
			if err := reverseCompanyEffect(tx, transaction, transaction.Mode, direction, action, actor); err != nil {
				return err
			}
		}

	case models.TransactionTypeRefund:
		ref := EntityRef{Kind: extra.FromEntityType}
		if extra.RefundDirection == models.RefundDirectionOutgoing {
			ref.Kind = extra.ToEntityType
		}
		if applied.DebitedEntity || applied.CreditedEntity {
			id := extra.FromEntityID
			if extra.RefundDirection == models.RefundDirectionOutgoing {
				id = extra.ToEntityID
			}
			if id == nil {
				return utils.ErrMissingEntity
			}
			ref.ID = *id
			if err := AcquireEntityLock(tx, ref); err != nil {
				return err
			}
			defer ReleaseEntityLock(tx, ref)
			if applied.DebitedEntity {
				if err := RevertEntity(tx, ref, transaction.Amount); err != nil {
					return err
				}
			}
			if applied.CreditedEntity {
				if err := DeductEntity(tx, ref, transaction.Amount); err != nil {
					return err
				}
			}
		}
		if applied.CompanyAdjusted {
			mode, direction := extra.ModeForTo, models.LedgerDirectionOut
			if extra.RefundDirection == models.RefundDirectionOutgoing {
				mode, direction = extra.ModeForFrom, models.LedgerDirectionIn
			}
			if err := reverseCompanyEffect(tx, transaction, mode, direction, action, actor); err != nil {
				return err
			}
		}

	case models.TransactionTypeWalletTransfer:
		if extra.FromEntityID == nil || extra.ToEntityID == nil {
			return utils.ErrMissingEntity
		}
		from := EntityRef{Kind: extra.FromEntityType, ID: *extra.FromEntityID}
		to := EntityRef{Kind: extra.ToEntityType, ID: *extra.ToEntityID}
		if err := AcquireEntityLock(tx, from); err != nil {
			return err
		}
		defer ReleaseEntityLock(tx, from)
		if err := AcquireEntityLock(tx, to); err != nil {
			return err
		}
		defer ReleaseEntityLock(tx, to)
		if applied.CreditedEntity {
			if err := DeductEntity(tx, to, transaction.Amount); err != nil {
				return err
			}
		}
		if applied.DebitedEntity {
			if err := RevertEntity(tx, from, transaction.Amount); err != nil {
				return err
			}
		}

	default:
		return utils.ErrInvalidTransactionType
	}

	extra.Applied.Clear()
	return nil
}

func reverseCompanyEffect(tx *gorm.DB, transaction *models.Transaction, mode models.PaymentMode, direction models.LedgerDirection, action models.LedgerAction, actor string) error {
	delta := transaction.Amount
	if direction == models.LedgerDirectionOut {
		delta = delta.Neg()
	}
	_, err := models.AppendCompanyEntry(tx, mode, delta, transaction.RefNo, string(transaction.TransactionType), action, actor)
	return err
}

func entityName(tx *gorm.DB, ref EntityRef) (string, error) {
	switch ref.Kind {
	case models.EntityKindCustomer:
		var customer models.Customer
		if err := firstEntity(tx, &customer, ref.ID); err != nil {
			return "", err
		}
		return customer.Name, nil
	case models.EntityKindAgent:
		var agent models.Agent
		if err := firstEntity(tx, &agent, ref.ID); err != nil {
			return "", err
		}
		return agent.Name, nil
	case models.EntityKindPartner:
		var partner models.Partner
		if err := firstEntity(tx, &partner, ref.ID); err != nil {
			return "", err
		}
		return partner.Name, nil
	}
	return "", utils.ErrMissingEntity
}
