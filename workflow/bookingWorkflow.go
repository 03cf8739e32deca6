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

// BookingInput carries everything needed to book or rewrite a record.
type BookingInput struct {
	Kind                models.BookingKind
	CustomerID          int
	AgentID             *int
	PartnerID           *int
	TravelLocationID    *int
	PassengerID         *int
	ParticularID        *int
	TicketTypeID        *int
	VisaTypeID          *int
	Description         string
	CustomerCharge      decimal.Decimal
	AgentPaid           decimal.Decimal
	CustomerPaymentMode models.PaymentMode
	AgentPaymentMode    models.PaymentMode
	Date                time.Time
}

func (input *BookingInput) validate() error {
	if !input.Kind.Valid() {
		return utils.ErrInvalidTransactionType
	}
	if input.CustomerCharge.IsNegative() || input.AgentPaid.IsNegative() {
		return utils.ErrInvalidAmount
	}
	if !input.CustomerPaymentMode.Valid() {
		return utils.ErrInvalidPaymentMode
	}
	if input.AgentID != nil && input.AgentPaid.IsPositive() && !input.AgentPaymentMode.Valid() {
		return utils.ErrInvalidPaymentMode
	}
	// services have no supplier side
	if input.Kind == models.BookingKindService {
		input.AgentID = nil
		input.AgentPaid = decimal.Zero
	}
	return nil
}

// BookBooking creates a booked record and settles both sides: the customer
// charge flows into the company (cash/online) or out of the customer's
// wallet/credit pool; the agent payout flows out of the company or out of
// the agent's pool.
func BookBooking(tx *gorm.DB, logger *logrus.Logger, actor string, input BookingInput) (*models.Booking, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := firstEntity(tx, &models.Customer{}, input.CustomerID); err != nil {
		return nil, err
	}
	if err := AcquireEntityLock(tx, EntityRef{Kind: models.EntityKindCustomer, ID: input.CustomerID}); err != nil {
		return nil, err
	}
	defer ReleaseEntityLock(tx, EntityRef{Kind: models.EntityKindCustomer, ID: input.CustomerID})

	scope := RefNoScope(time.Now().Year(), input.Kind.RefPrefix())
	if err := AcquireRefNoLock(tx, scope); err != nil {
		return nil, err
	}
	defer ReleaseRefNoLock(tx, scope)

	refNo, err := models.NextBookingRefNo(tx, input.Kind)
	if err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}
	booking := models.Booking{
		Kind:                input.Kind,
		RefNo:               refNo,
		Status:              models.BookingStatusBooked,
		Date:                date,
		CustomerID:          input.CustomerID,
		AgentID:             input.AgentID,
		PartnerID:           input.PartnerID,
		TravelLocationID:    input.TravelLocationID,
		PassengerID:         input.PassengerID,
		ParticularID:        input.ParticularID,
		TicketTypeID:        input.TicketTypeID,
		VisaTypeID:          input.VisaTypeID,
		Description:         input.Description,
		CustomerCharge:      input.CustomerCharge,
		AgentPaid:           input.AgentPaid,
		Profit:              utils.RoundMoney(input.CustomerCharge.Sub(input.AgentPaid)),
		CustomerPaymentMode: input.CustomerPaymentMode,
		AgentPaymentMode:    input.AgentPaymentMode,
		UpdatedBy:           actor,
	}
	if err := tx.Create(&booking).Error; err != nil {
		return nil, err
	}

	if err := applyBookingPayments(tx, &booking, models.LedgerActionBook, actor); err != nil {
		config.LogError(logger, "bookingWorkflow.go", "BookBooking", "applyBookingPayments", booking.RefNo, err)
		return nil, err
	}
	return &booking, nil
}

// applyBookingPayments settles both sides of a booked record. Customer
// charge paid cash/online lands in the company account; the agent payout
// paid cash/online leaves it. Wallet modes deduct the respective pools.
func applyBookingPayments(tx *gorm.DB, booking *models.Booking, action models.LedgerAction, actor string) error {
	meta := LedgerMeta{
		RefNo:           booking.RefNo,
		TransactionType: string(booking.Kind),
		Action:          action,
		Actor:           actor,
	}
	customer := EntityRef{Kind: models.EntityKindCustomer, ID: booking.CustomerID}
	if err := RouteSide(tx, SettlementSide{
		Entity:    &customer,
		Mode:      booking.CustomerPaymentMode,
		Amount:    booking.CustomerCharge,
		Op:        AccountOpDeduct,
		Direction: models.LedgerDirectionIn,
	}, meta); err != nil {
		return err
	}

	if booking.HasAgentSide() {
		agent := EntityRef{Kind: models.EntityKindAgent, ID: *booking.AgentID}
		if err := AcquireEntityLock(tx, agent); err != nil {
			return err
		}
		defer ReleaseEntityLock(tx, agent)
		if err := RouteSide(tx, SettlementSide{
			Entity:    &agent,
			Mode:      booking.AgentPaymentMode,
			Amount:    booking.AgentPaid,
			Op:        AccountOpDeduct,
			Direction: models.LedgerDirectionOut,
		}, meta); err != nil {
			return err
		}
	}
	return nil
}

// reverseBookingPayments is the exact inverse of applyBookingPayments.
// Used before rewriting a booked record and when deleting one.
func reverseBookingPayments(tx *gorm.DB, booking *models.Booking, actor string) error {
	meta := LedgerMeta{
		RefNo:           booking.RefNo,
		TransactionType: string(booking.Kind),
		Action:          models.LedgerActionReversal,
		Actor:           actor,
	}
	customer := EntityRef{Kind: models.EntityKindCustomer, ID: booking.CustomerID}
	if err := AcquireEntityLock(tx, customer); err != nil {
		return err
	}
	defer ReleaseEntityLock(tx, customer)
	if err := RouteSide(tx, SettlementSide{
		Entity:    &customer,
		Mode:      booking.CustomerPaymentMode,
		Amount:    booking.CustomerCharge,
		Op:        AccountOpRevert,
		Direction: models.LedgerDirectionOut,
	}, meta); err != nil {
		return err
	}

	if booking.HasAgentSide() {
		agent := EntityRef{Kind: models.EntityKindAgent, ID: *booking.AgentID}
		if err := AcquireEntityLock(tx, agent); err != nil {
			return err
		}
		defer ReleaseEntityLock(tx, agent)
		if err := RouteSide(tx, SettlementSide{
			Entity:    &agent,
			Mode:      booking.AgentPaymentMode,
			Amount:    booking.AgentPaid,
			Op:        AccountOpRevert,
			Direction: models.LedgerDirectionIn,
		}, meta); err != nil {
			return err
		}
	}
	return nil
}

// CancelBooking moves a booked record to its terminal cancelled state and
// settles the refund/recovery sides. Charge and paid fields freeze from
// here on; only the refund breakdown may change via UpdateBooking.
func CancelBooking(tx *gorm.DB, logger *logrus.Logger, actor string, kind models.BookingKind, id int, refundAmount decimal.Decimal, refundMode models.PaymentMode, recoveryAmount decimal.Decimal, recoveryMode models.PaymentMode) (*models.Booking, error) {
	booking, err := models.GetBooking(tx, kind, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, utils.ErrAlreadyCancelled
	}
	if refundAmount.IsNegative() || recoveryAmount.IsNegative() {
		return nil, utils.ErrInvalidAmount
	}
	if refundAmount.GreaterThan(booking.CustomerCharge) {
		return nil, utils.ErrExceedsOriginal
	}
	if booking.AgentID != nil && recoveryAmount.GreaterThan(booking.AgentPaid) {
		return nil, utils.ErrExceedsOriginal
	}
	if refundAmount.IsPositive() && !refundMode.Valid() {
		return nil, utils.ErrInvalidPaymentMode
	}
	if recoveryAmount.IsPositive() && !recoveryMode.Valid() {
		return nil, utils.ErrInvalidPaymentMode
	}

	meta := LedgerMeta{
		RefNo:           booking.RefNo,
		TransactionType: string(booking.Kind),
		Action:          models.LedgerActionCancel,
		Actor:           actor,
	}
	if refundAmount.IsPositive() {
		customer := EntityRef{Kind: models.EntityKindCustomer, ID: booking.CustomerID}
		if err := AcquireEntityLock(tx, customer); err != nil {
			return nil, err
		}
		defer ReleaseEntityLock(tx, customer)
		// refund: customer gets money back (wallet revert / company pays out)
		if err := RouteSide(tx, SettlementSide{
			Entity:    &customer,
			Mode:      refundMode,
			Amount:    refundAmount,
			Op:        AccountOpRevert,
			Direction: models.LedgerDirectionOut,
		}, meta); err != nil {
			config.LogError(logger, "bookingWorkflow.go", "CancelBooking", "customer refund", booking.RefNo, err)
			return nil, err
		}
	}
	if booking.AgentID != nil && recoveryAmount.IsPositive() {
		agent := EntityRef{Kind: models.EntityKindAgent, ID: *booking.AgentID}
		if err := AcquireEntityLock(tx, agent); err != nil {
			return nil, err
		}
		defer ReleaseEntityLock(tx, agent)
		// recovery: the agent side unwinds (wallet revert) or the company
		// collects the supplier refund in cash/online
		if err := RouteSide(tx, SettlementSide{
			Entity:    &agent,
			Mode:      recoveryMode,
			Amount:    recoveryAmount,
			Op:        AccountOpRevert,
			Direction: models.LedgerDirectionIn,
		}, meta); err != nil {
			config.LogError(logger, "bookingWorkflow.go", "CancelBooking", "agent recovery", booking.RefNo, err)
			return nil, err
		}
	}

	booking.Status = models.BookingStatusCancelled
	booking.CustomerRefundAmount = refundAmount
	booking.CustomerRefundMode = refundMode
	booking.AgentRecoveryAmount = recoveryAmount
	booking.AgentRecoveryMode = recoveryMode
	booking.UpdatedBy = actor
	if err := tx.Save(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdateBooking rewrites a record. A booked record is financially
// equivalent to delete+recreate: the original payments are fully reversed,
// the fields replaced, and the payment logic re-run with the new values.
// A cancelled record only accepts refund/recovery changes, applied as
// deltas.
func UpdateBooking(tx *gorm.DB, logger *logrus.Logger, actor string, kind models.BookingKind, id int, input BookingInput) (*models.Booking, error) {
	booking, err := models.GetBooking(tx, kind, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, utils.ErrAlreadyCancelled
	}
	input.Kind = kind
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := firstEntity(tx, &models.Customer{}, input.CustomerID); err != nil {
		return nil, err
	}

	if err := reverseBookingPayments(tx, booking, actor); err != nil {
		config.LogError(logger, "bookingWorkflow.go", "UpdateBooking", "reverseBookingPayments", booking.RefNo, err)
		return nil, err
	}

	booking.CustomerID = input.CustomerID
	booking.AgentID = input.AgentID
	booking.PartnerID = input.PartnerID
	booking.TravelLocationID = input.TravelLocationID
	booking.PassengerID = input.PassengerID
	booking.ParticularID = input.ParticularID
	booking.TicketTypeID = input.TicketTypeID
	booking.VisaTypeID = input.VisaTypeID
	booking.Description = input.Description
	booking.CustomerCharge = input.CustomerCharge
	booking.AgentPaid = input.AgentPaid
	booking.Profit = utils.RoundMoney(input.CustomerCharge.Sub(input.AgentPaid))
	booking.CustomerPaymentMode = input.CustomerPaymentMode
	booking.AgentPaymentMode = input.AgentPaymentMode
	if !input.Date.IsZero() {
		booking.Date = input.Date
	}
	booking.UpdatedBy = actor

	if err := applyBookingPayments(tx, booking, models.LedgerActionUpdate, actor); err != nil {
		config.LogError(logger, "bookingWorkflow.go", "UpdateBooking", "applyBookingPayments", booking.RefNo, err)
		return nil, err
	}
	if err := tx.Save(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdateCancelledBooking changes the refund/recovery breakdown of a
// cancelled record. Only the per-side delta moves: the end state is the
// same as if the record had been cancelled with the new values originally.
func UpdateCancelledBooking(tx *gorm.DB, logger *logrus.Logger, actor string, kind models.BookingKind, id int, refundAmount decimal.Decimal, refundMode models.PaymentMode, recoveryAmount decimal.Decimal, recoveryMode models.PaymentMode) (*models.Booking, error) {
	booking, err := models.GetBooking(tx, kind, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusCancelled {
		return nil, utils.ErrorRecordNotFound
	}
	if refundAmount.IsNegative() || recoveryAmount.IsNegative() {
		return nil, utils.ErrInvalidAmount
	}
	if refundAmount.GreaterThan(booking.CustomerCharge) {
		return nil, utils.ErrExceedsOriginal
	}
	if booking.AgentID != nil && recoveryAmount.GreaterThan(booking.AgentPaid) {
		return nil, utils.ErrExceedsOriginal
	}

	meta := LedgerMeta{
		RefNo:           booking.RefNo,
		TransactionType: string(booking.Kind),
		Action:          models.LedgerActionAdjustment,
		Actor:           actor,
	}

	customerDelta := refundAmount.Sub(booking.CustomerRefundAmount)
	if !customerDelta.IsZero() {
		customer := EntityRef{Kind: models.EntityKindCustomer, ID: booking.CustomerID}
		if err := AcquireEntityLock(tx, customer); err != nil {
			return nil, err
		}
		defer ReleaseEntityLock(tx, customer)
		if err := applySignedDelta(tx, &customer, refundMode, customerDelta, models.LedgerDirectionOut, meta); err != nil {
			config.LogError(logger, "bookingWorkflow.go", "UpdateCancelledBooking", "customer refund delta", booking.RefNo, err)
			return nil, err
		}
	}
	if booking.AgentID != nil {
		agentDelta := recoveryAmount.Sub(booking.AgentRecoveryAmount)
		if !agentDelta.IsZero() {
			agent := EntityRef{Kind: models.EntityKindAgent, ID: *booking.AgentID}
			if err := AcquireEntityLock(tx, agent); err != nil {
				return nil, err
			}
			defer ReleaseEntityLock(tx, agent)
			if err := applySignedDelta(tx, &agent, recoveryMode, agentDelta, models.LedgerDirectionIn, meta); err != nil {
				config.LogError(logger, "bookingWorkflow.go", "UpdateCancelledBooking", "agent recovery delta", booking.RefNo, err)
				return nil, err
			}
		}
	}

	booking.CustomerRefundAmount = refundAmount
	booking.CustomerRefundMode = refundMode
	booking.AgentRecoveryAmount = recoveryAmount
	booking.AgentRecoveryMode = recoveryMode
	booking.UpdatedBy = actor
	if err := tx.Save(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// applySignedDelta settles a refund/recovery delta. A positive delta
// repeats the cancel-time effect (revert to entity or company entry in the
// cancel direction) for the difference; a negative delta runs the inverse.
func applySignedDelta(tx *gorm.DB, entity *EntityRef, mode models.PaymentMode, delta decimal.Decimal, cancelDirection models.LedgerDirection, meta LedgerMeta) error {
	side := SettlementSide{Entity: entity, Mode: mode, Amount: delta, Op: AccountOpRevert, Direction: cancelDirection}
	if delta.IsNegative() {
		side.Amount = delta.Neg()
		side.Op = AccountOpDeduct
		if cancelDirection == models.LedgerDirectionOut {
			side.Direction = models.LedgerDirectionIn
		} else {
			side.Direction = models.LedgerDirectionOut
		}
	}
	return RouteSide(tx, side, meta)
}

// DeleteBooking removes a record after fully unwinding its financial
// footprint. Booked records reverse the original payments; cancelled
// records reverse the net lifetime effect (charge minus refund, paid minus
// recovery), routed by the refund/recovery mode when one was set.
func DeleteBooking(tx *gorm.DB, logger *logrus.Logger, actor string, kind models.BookingKind, id int) error {
	booking, err := models.GetBooking(tx, kind, id)
	if err != nil {
		return err
	}

	if booking.Status == models.BookingStatusBooked {
		if err := reverseBookingPayments(tx, booking, actor); err != nil {
			config.LogError(logger, "bookingWorkflow.go", "DeleteBooking", "reverseBookingPayments", booking.RefNo, err)
			return err
		}
		return tx.Delete(booking).Error
	}

	meta := LedgerMeta{
		RefNo:           booking.RefNo,
		TransactionType: string(booking.Kind),
		Action:          models.LedgerActionDelete,
		Actor:           actor,
	}
	customerNet := booking.CustomerCharge.Sub(booking.CustomerRefundAmount)
	if customerNet.IsPositive() {
		customer := EntityRef{Kind: models.EntityKindCustomer, ID: booking.CustomerID}
		if err := AcquireEntityLock(tx, customer); err != nil {
			return err
		}
		defer ReleaseEntityLock(tx, customer)
		mode := booking.CustomerRefundMode
		if !mode.Valid() {
			mode = booking.CustomerPaymentMode
		}
		if err := RouteSide(tx, SettlementSide{
			Entity:    &customer,
			Mode:      mode,
			Amount:    customerNet,
			Op:        AccountOpRevert,
			Direction: models.LedgerDirectionOut,
		}, meta); err != nil {
			config.LogError(logger, "bookingWorkflow.go", "DeleteBooking", "customer net reversal", booking.RefNo, err)
			return err
		}
	}
	if booking.AgentID != nil {
		agentNet := booking.AgentPaid.Sub(booking.AgentRecoveryAmount)
		if agentNet.IsPositive() {
			agent := EntityRef{Kind: models.EntityKindAgent, ID: *booking.AgentID}
			if err := AcquireEntityLock(tx, agent); err != nil {
				return err
			}
			defer ReleaseEntityLock(tx, agent)
			mode := booking.AgentRecoveryMode
			if !mode.Valid() {
				mode = booking.AgentPaymentMode
			}
			if err := RouteSide(tx, SettlementSide{
				Entity:    &agent,
				Mode:      mode,
				Amount:    agentNet,
				Op:        AccountOpRevert,
				Direction: models.LedgerDirectionIn,
			}, meta); err != nil {
				config.LogError(logger, "bookingWorkflow.go", "DeleteBooking", "agent net reversal", booking.RefNo, err)
				return err
			}
		}
	}
	return tx.Delete(booking).Error
}
