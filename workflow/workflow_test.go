package workflow_test

import (
	"fmt"
	"io"
	"testing"

	"bitbucket.org/baburtravels/agency_backend/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func createCustomer(t *testing.T, db *gorm.DB, wallet, creditLimit int64) *models.Customer {
	t.Helper()
	customer := models.Customer{
		Name:          "customer-" + uuid.NewString(),
		WalletBalance: decimal.NewFromInt(wallet),
		CreditLimit:   decimal.NewFromInt(creditLimit),
	}
	require.NoError(t, db.Create(&customer).Error)
	return &customer
}

func createAgent(t *testing.T, db *gorm.DB, wallet, creditLimit, creditBalance int64) *models.Agent {
	t.Helper()
	agent := models.Agent{
		Name:          "agent-" + uuid.NewString(),
		WalletBalance: decimal.NewFromInt(wallet),
		CreditLimit:   decimal.NewFromInt(creditLimit),
		CreditBalance: decimal.NewFromInt(creditBalance),
	}
	require.NoError(t, db.Create(&agent).Error)
	return &agent
}

func createPartner(t *testing.T, db *gorm.DB, wallet int64, allowNegative bool) *models.Partner {
	t.Helper()
	partner := models.Partner{
		Name:                "partner-" + uuid.NewString(),
		WalletBalance:       decimal.NewFromInt(wallet),
		AllowNegativeWallet: allowNegative,
	}
	require.NoError(t, db.Create(&partner).Error)
	return &partner
}

func reloadCustomer(t *testing.T, db *gorm.DB, id int) *models.Customer {
	t.Helper()
	var customer models.Customer
	require.NoError(t, db.First(&customer, id).Error)
	return &customer
}

func reloadAgent(t *testing.T, db *gorm.DB, id int) *models.Agent {
	t.Helper()
	var agent models.Agent
	require.NoError(t, db.First(&agent, id).Error)
	return &agent
}

func reloadPartner(t *testing.T, db *gorm.DB, id int) *models.Partner {
	t.Helper()
	var partner models.Partner
	require.NoError(t, db.First(&partner, id).Error)
	return &partner
}

func companyBalance(t *testing.T, db *gorm.DB, mode models.PaymentMode) decimal.Decimal {
	t.Helper()
	balance, err := models.CompanyBalance(db, mode)
	require.NoError(t, err)
	return balance
}

func requireMoney(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Equal(t, expected, actual.StringFixed(2), msgAndArgs...)
}
