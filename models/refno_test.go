package models_test

import (
	"fmt"
	"testing"
	"time"

	"bitbucket.org/baburtravels/agency_backend/models"
	"github.com/stretchr/testify/require"
)

func TestNextBookingRefNo_StartsAtOnePerKind(t *testing.T) {
	db := newTestDB(t)
	year := time.Now().Year()

	refNo, err := models.NextBookingRefNo(db, models.BookingKindTicket)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d/T/00001", year), refNo)

	refNo, err = models.NextBookingRefNo(db, models.BookingKindVisa)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d/V/00001", year), refNo)

	refNo, err = models.NextBookingRefNo(db, models.BookingKindService)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d/S/00001", year), refNo)
}

func TestNextBookingRefNo_IncrementsWithinKind(t *testing.T) {
	db := newTestDB(t)
	year := time.Now().Year()

	for seq := 1; seq <= 3; seq++ {
		refNo, err := models.NextBookingRefNo(db, models.BookingKindTicket)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("%d/T/%05d", year, seq), refNo)
		require.NoError(t, db.Create(&models.Booking{
			Kind:       models.BookingKindTicket,
			RefNo:      refNo,
			CustomerID: 1,
			Date:       time.Now(),
		}).Error)
	}

	// visa sequence is independent of the ticket sequence
	refNo, err := models.NextBookingRefNo(db, models.BookingKindVisa)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d/V/00001", year), refNo)
}

func TestNextTransactionRefNo_PerTypeSequences(t *testing.T) {
	db := newTestDB(t)
	year := time.Now().Year()

	refNo, err := models.NextTransactionRefNo(db, models.TransactionTypePayment)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d/P/00001", year), refNo)

	require.NoError(t, db.Create(&models.Transaction{
		RefNo:           refNo,
		EntityType:      models.EntityKindOthers,
		TransactionType: models.TransactionTypePayment,
		PayType:         models.PayTypeOtherExpense,
		Mode:            models.PaymentModeCash,
		Date:            time.Now(),
	}).Error)

	refNo, err = models.NextTransactionRefNo(db, models.TransactionTypePayment)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d/P/00002", year), refNo)

	refNo, err = models.NextTransactionRefNo(db, models.TransactionTypeWalletTransfer)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d/WT/00001", year), refNo)
}
