package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is a billing header over a settlement period. Rendering is done
// elsewhere; the engine only owns the sequence and the status field.
type Invoice struct {
	ID            int           `gorm:"primary_key" json:"id"`
	InvoiceNumber string        `gorm:"size:50;uniqueIndex;not null" json:"invoice_number"`
	EntityType    EntityKind    `gorm:"size:20;not null" json:"entity_type"`
	EntityID      int           `gorm:"not null" json:"entity_id"`
	PeriodStart   time.Time     `gorm:"not null" json:"period_start"`
	PeriodEnd     time.Time     `gorm:"not null" json:"period_end"`
	Status        InvoiceStatus `gorm:"size:20;default:'pending'" json:"status"`
	GeneratedDate time.Time     `gorm:"autoCreateTime" json:"generated_date"`
}

// NextInvoiceNumber allocates the next number in the opaque
// {year}/BAB/INV/{seq:04d} sequence.
func NextInvoiceNumber(tx *gorm.DB) (string, error) {
	year := time.Now().Year()
	like := fmt.Sprintf("%d/BAB/INV/%%", year)

	var maxRef *string
	err := tx.Model(&Invoice{}).
		Where("invoice_number LIKE ?", like).
		Select("MAX(invoice_number)").
		Scan(&maxRef).Error
	if err != nil {
		return "", err
	}
	seq := 1
	if maxRef != nil {
		seq = lastSequence(*maxRef) + 1
	}
	return fmt.Sprintf("%d/BAB/INV/%04d", year, seq), nil
}
