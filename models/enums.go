package models

// PaymentMode is how money physically moves: through an entity's wallet/credit
// pool, or through one of the two company accounts.
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeOnline PaymentMode = "online"
	PaymentModeWallet PaymentMode = "wallet"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeOnline, PaymentModeWallet:
		return true
	}
	return false
}

// CompanyMode reports whether the mode settles against a company account
// rather than an entity wallet.
func (m PaymentMode) CompanyMode() bool {
	return m == PaymentModeCash || m == PaymentModeOnline
}

// LedgerDirection is relative to the company: "in" grows the company
// account, "out" shrinks it.
type LedgerDirection string

const (
	LedgerDirectionIn  LedgerDirection = "in"
	LedgerDirectionOut LedgerDirection = "out"
)

// LedgerAction tags why a company ledger row was appended.
type LedgerAction string

const (
	LedgerActionBook       LedgerAction = "book"
	LedgerActionCancel     LedgerAction = "cancel"
	LedgerActionUpdate     LedgerAction = "update"
	LedgerActionAdjustment LedgerAction = "adjustment"
	LedgerActionReversal   LedgerAction = "reversal"
	LedgerActionRefund     LedgerAction = "refund"
	LedgerActionDelete     LedgerAction = "delete"
)

type BookingKind string

const (
	BookingKindTicket  BookingKind = "ticket"
	BookingKindVisa    BookingKind = "visa"
	BookingKindService BookingKind = "service"
)

func (k BookingKind) Valid() bool {
	switch k {
	case BookingKindTicket, BookingKindVisa, BookingKindService:
		return true
	}
	return false
}

// RefPrefix is the per-kind segment of the reference number
// ({year}/{prefix}/{seq:05d}).
func (k BookingKind) RefPrefix() string {
	switch k {
	case BookingKindTicket:
		return "T"
	case BookingKindVisa:
		return "V"
	case BookingKindService:
		return "S"
	}
	return ""
}

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type EntityKind string

const (
	EntityKindCustomer EntityKind = "customer"
	EntityKindAgent    EntityKind = "agent"
	EntityKindPartner  EntityKind = "partner"
	// EntityKindOthers marks transactions against no tracked account;
	// only the company ledger moves.
	EntityKindOthers EntityKind = "others"
)

func (k EntityKind) Valid() bool {
	switch k {
	case EntityKindCustomer, EntityKindAgent, EntityKindPartner, EntityKindOthers:
		return true
	}
	return false
}

type TransactionType string

const (
	TransactionTypePayment        TransactionType = "payment"
	TransactionTypeReceipt        TransactionType = "receipt"
	TransactionTypeRefund         TransactionType = "refund"
	TransactionTypeWalletTransfer TransactionType = "wallet_transfer"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeReceipt, TransactionTypeRefund, TransactionTypeWalletTransfer:
		return true
	}
	return false
}

func (t TransactionType) RefPrefix() string {
	switch t {
	case TransactionTypePayment:
		return "P"
	case TransactionTypeReceipt:
		return "R"
	case TransactionTypeRefund:
		return "E"
	case TransactionTypeWalletTransfer:
		return "WT"
	}
	return "X"
}

// PayType narrows what a payment/receipt is for; together with the
// direction flags it selects the row of the settlement effect table.
type PayType string

const (
	PayTypeCashDeposit    PayType = "cash_deposit"
	PayTypeCashWithdrawal PayType = "cash_withdrawal"
	PayTypeOtherExpense   PayType = "other_expense"
	PayTypeOtherReceipt   PayType = "other_receipt"
	PayTypeRefund         PayType = "refund"
	PayTypeWalletTransfer PayType = "wallet_transfer"
	// PayTypeServiceAvailed on an outgoing refund means the refund is
	// settled in kind, so the company account is never touched.
	PayTypeServiceAvailed PayType = "service_availed"
)

type RefundDirection string

const (
	RefundDirectionIncoming RefundDirection = "incoming"
	RefundDirectionOutgoing RefundDirection = "outgoing"
)
