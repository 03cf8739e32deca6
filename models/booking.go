package models

import (
	"errors"
	"time"

	"bitbucket.org/baburtravels/agency_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Booking is a ticket, visa or service record. The three kinds share one
// financial shape and one state machine (booked -> cancelled -> gone), so
// they share one table with a kind discriminator; reference numbers stay
// per-kind ({year}/T|V|S/{seq:05d}).
//
// Service bookings carry no agent side: AgentID is nil and AgentPaid zero.
type Booking struct {
	ID     int           `gorm:"primary_key" json:"id"`
	Kind   BookingKind   `gorm:"size:20;index;not null" json:"kind"`
	RefNo  string        `gorm:"size:100;uniqueIndex;not null" json:"ref_no"`
	Status BookingStatus `gorm:"size:20;index;default:'booked'" json:"status"`
	Date   time.Time     `json:"date"`

	CustomerID       int    `gorm:"index;not null" json:"customer_id"`
	AgentID          *int   `gorm:"index" json:"agent_id"`
	PartnerID        *int   `gorm:"index" json:"partner_id"`
	TravelLocationID *int   `json:"travel_location_id"`
	PassengerID      *int   `json:"passenger_id"`
	ParticularID     *int   `json:"particular_id"`
	TicketTypeID     *int   `json:"ticket_type_id"`
	VisaTypeID       *int   `json:"visa_type_id"`
	Description      string `gorm:"size:255" json:"description"`

	CustomerCharge decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"customer_charge"`
	AgentPaid      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"agent_paid"`
	Profit         decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"profit"`

	CustomerPaymentMode PaymentMode `gorm:"size:20" json:"customer_payment_mode"`
	AgentPaymentMode    PaymentMode `gorm:"size:20" json:"agent_payment_mode"`

	CustomerRefundAmount decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"customer_refund_amount"`
	CustomerRefundMode   PaymentMode     `gorm:"size:20" json:"customer_refund_mode"`
	AgentRecoveryAmount  decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"agent_recovery_amount"`
	AgentRecoveryMode    PaymentMode     `gorm:"size:20" json:"agent_recovery_mode"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	UpdatedBy string    `gorm:"size:100;default:'system'" json:"updated_by"`
}

// HasAgentSide reports whether the booking charged an agent at all.
func (b *Booking) HasAgentSide() bool {
	return b.AgentID != nil && b.AgentPaid.IsPositive()
}

func GetBooking(tx *gorm.DB, kind BookingKind, id int) (*Booking, error) {
	var booking Booking
	err := tx.Where("kind = ? AND id = ?", kind, id).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func GetBookings(tx *gorm.DB, kind BookingKind, status *BookingStatus, fromDate, toDate *time.Time) ([]*Booking, error) {
	dbCtx := tx.Where("kind = ?", kind)
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if fromDate != nil {
		dbCtx = dbCtx.Where("date >= ?", *fromDate)
	}
	if toDate != nil {
		dbCtx = dbCtx.Where("date < ?", toDate.AddDate(0, 0, 1))
	}
	var bookings []*Booking
	if err := dbCtx.Order("ref_no DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
