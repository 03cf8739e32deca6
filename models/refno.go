package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Reference numbers are {year}/{prefix}/{seq:05d}, sequential per
// (year, prefix). Callers that can race must hold the ref-no posting lock
// for the scope first (workflow.AcquireRefNoLock).

func formatRefNo(year int, prefix string, seq int) string {
	return fmt.Sprintf("%d/%s/%05d", year, prefix, seq)
}

func lastSequence(refNo string) int {
	parts := strings.Split(refNo, "/")
	if len(parts) == 0 {
		return 0
	}
	seq, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return seq
}

// NextBookingRefNo allocates the next reference number for a booking kind.
func NextBookingRefNo(tx *gorm.DB, kind BookingKind) (string, error) {
	year := time.Now().Year()
	prefix := kind.RefPrefix()

	var maxRef *string
	err := tx.Model(&Booking{}).
		Where("ref_no LIKE ?", fmt.Sprintf("%d/%s/%%", year, prefix)).
		Select("MAX(ref_no)").
		Scan(&maxRef).Error
	if err != nil {
		return "", err
	}
	seq := 1
	if maxRef != nil {
		seq = lastSequence(*maxRef) + 1
	}
	return formatRefNo(year, prefix, seq), nil
}

// NextTransactionRefNo allocates the next reference number for a
// transaction type (P/R/E/WT prefixes).
func NextTransactionRefNo(tx *gorm.DB, transactionType TransactionType) (string, error) {
	year := time.Now().Year()
	prefix := transactionType.RefPrefix()

	var last Transaction
	err := tx.Where("ref_no LIKE ?", fmt.Sprintf("%d/%s/%%", year, prefix)).
		Order("ref_no DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	seq := 1
	if err == nil {
		seq = lastSequence(last.RefNo) + 1
	}
	return formatRefNo(year, prefix, seq), nil
}
