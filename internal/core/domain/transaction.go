package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind is the closed set of money movements the ledger records.
// Constructing a transaction with a kind outside this set is a validation
// error, never a silent string mismatch.
type TransactionKind string

const (
	KindTopUp              TransactionKind = "TOP_UP"
	KindMarketplace        TransactionKind = "MARKETPLACE"
	KindCommission         TransactionKind = "COMMISSION"
	KindTax                TransactionKind = "TAX"
	KindRefund             TransactionKind = "REFUND"
	KindReversal           TransactionKind = "REVERSAL"
	KindTeleconsultation   TransactionKind = "TELECONSULTATION"
	KindDanaOpex           TransactionKind = "DANA_OPEX"
	KindInsuranceClaim     TransactionKind = "INSURANCE_CLAIM"
	KindInternalTransfer   TransactionKind = "INTERNAL_TRANSFER"
	KindOperationalExpense TransactionKind = "OPERATIONAL_EXPENSE"
)

// Valid reports whether k is a recognized transaction kind.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindTopUp, KindMarketplace, KindCommission, KindTax, KindRefund,
		KindReversal, KindTeleconsultation, KindDanaOpex, KindInsuranceClaim,
		KindInternalTransfer, KindOperationalExpense:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// Transaction is an immutable ledger entry. Corrections are new transactions
// pointing back through RelatedID; no update or delete path exists.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	OwnerID     uuid.UUID         `json:"owner_id"`
	Kind        TransactionKind   `json:"kind"`
	Amount      int64             `json:"amount"` // Signed: credit > 0, debit < 0
	Description string            `json:"description"`
	Status      TransactionStatus `json:"status"`
	RelatedID   *uuid.UUID        `json:"related_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// IsDebit reports whether the transaction removes funds from its wallet.
func (t *Transaction) IsDebit() bool {
	return t.Amount < 0
}
