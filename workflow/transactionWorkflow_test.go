package workflow_test

import (
	"fmt"
	"testing"
	"time"

	"bitbucket.org/baburtravels/agency_backend/models"
	"bitbucket.org/baburtravels/agency_backend/utils"
	"bitbucket.org/baburtravels/agency_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction_ReceiptThenDeleteNetsToZero(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	customer := createCustomer(t, db, 0, 0)

	transaction, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeReceipt,
		EntityType:      models.EntityKindCustomer,
		EntityID:        &customer.ID,
		PayType:         models.PayTypeCashDeposit,
		Mode:            models.PaymentModeCash,
		Amount:          decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d/R/00001", time.Now().Year()), transaction.RefNo)
	require.True(t, transaction.Extra.Applied.CreditedEntity)
	require.True(t, transaction.Extra.Applied.CompanyAdjusted)

	customer = reloadCustomer(t, db, customer.ID)
	requireMoney(t, "500.00", customer.WalletBalance)
	requireMoney(t, "500.00", companyBalance(t, db, models.PaymentModeCash))

	require.NoError(t, workflow.DeleteTransaction(db, logger, "tester", transaction.ID))

	customer = reloadCustomer(t, db, customer.ID)
	requireMoney(t, "0.00", customer.WalletBalance)
	requireMoney(t, "0.00", companyBalance(t, db, models.PaymentModeCash))

	_, err = models.GetTransaction(db, transaction.ID)
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestCreateTransaction_AgentCashDepositPayment(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	agent := createAgent(t, db, 0, 100, 40)

	// the agent hands the company cash against their account: the account
	// is credited and the company holds the money
	transaction, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypePayment,
		EntityType:      models.EntityKindAgent,
		EntityID:        &agent.ID,
		PayType:         models.PayTypeCashDeposit,
		Mode:            models.PaymentModeCash,
		Amount:          decimal.NewFromInt(80),
	})
	require.NoError(t, err)

	agent = reloadAgent(t, db, agent.ID)
	requireMoney(t, "100.00", agent.CreditBalance)
	requireMoney(t, "20.00", agent.WalletBalance)
	requireMoney(t, "80.00", companyBalance(t, db, models.PaymentModeCash))

	// deleting pays the deposit back out and debits the account again
	require.NoError(t, workflow.DeleteTransaction(db, logger, "tester", transaction.ID))
	agent = reloadAgent(t, db, agent.ID)
	requireMoney(t, "40.00", agent.CreditBalance)
	requireMoney(t, "0.00", agent.WalletBalance)
	requireMoney(t, "0.00", companyBalance(t, db, models.PaymentModeCash))
}

func TestCreateTransaction_ExpenseAgainstOthersOnlyMovesCompany(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()

	_, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypePayment,
		EntityType:      models.EntityKindOthers,
		PayType:         models.PayTypeOtherExpense,
		Mode:            models.PaymentModeOnline,
		Amount:          decimal.NewFromInt(45),
	})
	require.NoError(t, err)
	requireMoney(t, "-45.00", companyBalance(t, db, models.PaymentModeOnline))
}

func TestCreateTransaction_WalletTransfer(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	agent := createAgent(t, db, 0, 100, 50)
	customer := createCustomer(t, db, 0, 50)
	require.NoError(t, db.Model(customer).Update("credit_used", decimal.NewFromInt(30)).Error)

	transaction, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeWalletTransfer,
		PayType:         models.PayTypeWalletTransfer,
		Amount:          decimal.NewFromInt(30),
		FromEntityType:  models.EntityKindAgent,
		FromEntityID:    &agent.ID,
		ToEntityType:    models.EntityKindCustomer,
		ToEntityID:      &customer.ID,
	})
	require.NoError(t, err)
	require.Equal(t, agent.Name, transaction.Extra.FromEntityName)
	require.Equal(t, customer.Name, transaction.Extra.ToEntityName)

	agent = reloadAgent(t, db, agent.ID)
	requireMoney(t, "20.00", agent.CreditBalance)
	customer = reloadCustomer(t, db, customer.ID)
	requireMoney(t, "0.00", customer.CreditUsed)

	// company ledger never moves on transfers
	requireMoney(t, "0.00", companyBalance(t, db, models.PaymentModeCash))
	requireMoney(t, "0.00", companyBalance(t, db, models.PaymentModeOnline))
}

func TestCreateTransaction_WalletTransferRequiresBothSides(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	agent := createAgent(t, db, 100, 0, 0)
	missing := 9999

	_, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeWalletTransfer,
		PayType:         models.PayTypeWalletTransfer,
		Amount:          decimal.NewFromInt(10),
		FromEntityType:  models.EntityKindAgent,
		FromEntityID:    &agent.ID,
		ToEntityType:    models.EntityKindCustomer,
		ToEntityID:      &missing,
	})
	require.ErrorIs(t, err, utils.ErrMissingEntity)
}

func TestCreateTransaction_IncomingRefundFromAgentAccount(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	agent := createAgent(t, db, 0, 100, 40)

	// supplier refunds in cash, and the agent's account is credited too
	transaction, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeRefund,
		PayType:         models.PayTypeRefund,
		Amount:          decimal.NewFromInt(60),
		RefundDirection: models.RefundDirectionIncoming,
		CreditToAccount: true,
		FromEntityType:  models.EntityKindAgent,
		FromEntityID:    &agent.ID,
		ModeForFrom:     models.PaymentModeCash,
		ModeForTo:       models.PaymentModeCash,
	})
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d/E/00001", time.Now().Year()), transaction.RefNo)

	agent = reloadAgent(t, db, agent.ID)
	requireMoney(t, "100.00", agent.CreditBalance)
	requireMoney(t, "60.00", companyBalance(t, db, models.PaymentModeCash))

	// deleting unwinds both effects
	require.NoError(t, workflow.DeleteTransaction(db, logger, "tester", transaction.ID))
	agent = reloadAgent(t, db, agent.ID)
	requireMoney(t, "40.00", agent.CreditBalance)
	requireMoney(t, "0.00", companyBalance(t, db, models.PaymentModeCash))
}

func TestCreateTransaction_IncomingRefundFromWallet(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	partner := createPartner(t, db, 100, false)

	// refund settled out of the partner's wallet: no company movement
	_, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeRefund,
		PayType:         models.PayTypeRefund,
		Amount:          decimal.NewFromInt(25),
		RefundDirection: models.RefundDirectionIncoming,
		FromEntityType:  models.EntityKindPartner,
		FromEntityID:    &partner.ID,
		ModeForFrom:     models.PaymentModeWallet,
	})
	require.NoError(t, err)

	partner = reloadPartner(t, db, partner.ID)
	requireMoney(t, "75.00", partner.WalletBalance)
	requireMoney(t, "0.00", companyBalance(t, db, models.PaymentModeCash))
}

func TestCreateTransaction_OutgoingRefundToCustomerAccount(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	customer := createCustomer(t, db, 10, 0)

	_, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeRefund,
		PayType:         models.PayTypeRefund,
		Amount:          decimal.NewFromInt(40),
		RefundDirection: models.RefundDirectionOutgoing,
		CreditToAccount: true,
		ToEntityType:    models.EntityKindCustomer,
		ToEntityID:      &customer.ID,
		ModeForFrom:     models.PaymentModeOnline,
	})
	require.NoError(t, err)

	customer = reloadCustomer(t, db, customer.ID)
	requireMoney(t, "50.00", customer.WalletBalance)
	requireMoney(t, "-40.00", companyBalance(t, db, models.PaymentModeOnline))
}

func TestCreateTransaction_OutgoingRefundServiceAvailedSkipsCompany(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	customer := createCustomer(t, db, 0, 0)

	_, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeRefund,
		PayType:         models.PayTypeServiceAvailed,
		Amount:          decimal.NewFromInt(40),
		RefundDirection: models.RefundDirectionOutgoing,
		CreditToAccount: true,
		ToEntityType:    models.EntityKindCustomer,
		ToEntityID:      &customer.ID,
		ModeForFrom:     models.PaymentModeCash,
	})
	require.NoError(t, err)

	customer = reloadCustomer(t, db, customer.ID)
	requireMoney(t, "40.00", customer.WalletBalance)
	requireMoney(t, "0.00", companyBalance(t, db, models.PaymentModeCash))
}

func TestUpdateTransaction_DescriptionOnlyEditKeepsBalances(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	customer := createCustomer(t, db, 0, 0)

	transaction, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeReceipt,
		EntityType:      models.EntityKindCustomer,
		EntityID:        &customer.ID,
		PayType:         models.PayTypeCashDeposit,
		Mode:            models.PaymentModeCash,
		Amount:          decimal.NewFromInt(100),
		Description:     "before",
	})
	require.NoError(t, err)

	updated, err := workflow.UpdateTransaction(db, logger, "tester", transaction.ID, workflow.TransactionInput{
		TransactionType: models.TransactionTypeReceipt,
		EntityType:      models.EntityKindCustomer,
		EntityID:        &customer.ID,
		PayType:         models.PayTypeCashDeposit,
		Mode:            models.PaymentModeCash,
		Amount:          decimal.NewFromInt(100),
		Description:     "after",
	})
	require.NoError(t, err)
	require.Equal(t, "after", updated.Description)
	require.Equal(t, transaction.RefNo, updated.RefNo)

	customer = reloadCustomer(t, db, customer.ID)
	requireMoney(t, "100.00", customer.WalletBalance)
	requireMoney(t, "100.00", companyBalance(t, db, models.PaymentModeCash))
}

func TestUpdateTransaction_AmountChange(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	customer := createCustomer(t, db, 0, 0)

	transaction, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeReceipt,
		EntityType:      models.EntityKindCustomer,
		EntityID:        &customer.ID,
		PayType:         models.PayTypeCashDeposit,
		Mode:            models.PaymentModeCash,
		Amount:          decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = workflow.UpdateTransaction(db, logger, "tester", transaction.ID, workflow.TransactionInput{
		TransactionType: models.TransactionTypeReceipt,
		EntityType:      models.EntityKindCustomer,
		EntityID:        &customer.ID,
		PayType:         models.PayTypeCashDeposit,
		Mode:            models.PaymentModeOnline,
		Amount:          decimal.NewFromInt(60),
	})
	require.NoError(t, err)

	customer = reloadCustomer(t, db, customer.ID)
	requireMoney(t, "60.00", customer.WalletBalance)
	requireMoney(t, "0.00", companyBalance(t, db, models.PaymentModeCash))
	requireMoney(t, "60.00", companyBalance(t, db, models.PaymentModeOnline))
}

func TestUpdateTransaction_TypeChangeRejected(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	customer := createCustomer(t, db, 0, 0)

	transaction, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeReceipt,
		EntityType:      models.EntityKindCustomer,
		EntityID:        &customer.ID,
		PayType:         models.PayTypeCashDeposit,
		Mode:            models.PaymentModeCash,
		Amount:          decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = workflow.UpdateTransaction(db, logger, "tester", transaction.ID, workflow.TransactionInput{
		TransactionType: models.TransactionTypePayment,
		EntityType:      models.EntityKindCustomer,
		EntityID:        &customer.ID,
		PayType:         models.PayTypeCashWithdrawal,
		Mode:            models.PaymentModeCash,
		Amount:          decimal.NewFromInt(100),
	})
	require.ErrorIs(t, err, utils.ErrInvalidTransactionType)
}

func TestCreateTransaction_NonPositiveAmountRejected(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	customer := createCustomer(t, db, 0, 0)

	for _, amount := range []decimal.Decimal{decimal.NewFromInt(-100), decimal.Zero} {
		_, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
			TransactionType: models.TransactionTypeReceipt,
			EntityType:      models.EntityKindCustomer,
			EntityID:        &customer.ID,
			PayType:         models.PayTypeCashDeposit,
			Mode:            models.PaymentModeCash,
			Amount:          amount,
		})
		require.ErrorIs(t, err, utils.ErrInvalidAmount)
	}

	customer = reloadCustomer(t, db, customer.ID)
	requireMoney(t, "0.00", customer.WalletBalance)
	requireMoney(t, "0.00", companyBalance(t, db, models.PaymentModeCash))
}

func TestUpdateTransaction_NonPositiveAmountRejected(t *testing.T) {
	db := newTestDB(t)
	logger := newTestLogger()
	customer := createCustomer(t, db, 0, 0)

	transaction, err := workflow.CreateTransaction(db, logger, "tester", workflow.TransactionInput{
		TransactionType: models.TransactionTypeReceipt,
		EntityType:      models.EntityKindCustomer,
		EntityID:        &customer.ID,
		PayType:         models.PayTypeCashDeposit,
		Mode:            models.PaymentModeCash,
		Amount:          decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = workflow.UpdateTransaction(db, logger, "tester", transaction.ID, workflow.TransactionInput{
		TransactionType: models.TransactionTypeReceipt,
		EntityType:      models.EntityKindCustomer,
		EntityID:        &customer.ID,
		PayType:         models.PayTypeCashDeposit,
		Mode:            models.PaymentModeCash,
		Amount:          decimal.NewFromInt(-60),
	})
	require.ErrorIs(t, err, utils.ErrInvalidAmount)

	customer = reloadCustomer(t, db, customer.ID)
	requireMoney(t, "100.00", customer.WalletBalance)
	requireMoney(t, "100.00", companyBalance(t, db, models.PaymentModeCash))
}
