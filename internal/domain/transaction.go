// internal/domain/transaction.go
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the direction of a ledger entry.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// TransactionStatus defines the status of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// Contexts embedded in transaction IDs.
const (
	TxContextInit     = "init"
	TxContextReward   = "rew"
	TxContextInvite   = "inv"
	TxContextTransfer = "send"
	TxContextService  = "serv"
)

// Transaction is an immutable ledger entry embedded in a User record.
type Transaction struct {
	ID          string            `json:"id"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"` // Never negative; the sign is carried by Type
	Description string            `json:"description"`
	Date        time.Time         `json:"date"`
	Status      TransactionStatus `json:"status"`
}

// NewTransaction creates a successful ledger entry stamped at now.
func NewTransaction(context string, txType TransactionType, amount decimal.Decimal, description string, now time.Time) Transaction {
	now = now.UTC()
	return Transaction{
		ID:          TransactionID(context, now),
		Type:        txType,
		Amount:      amount.Abs(),
		Description: description,
		Date:        now.Truncate(time.Millisecond),
		Status:      TransactionStatusSuccess, // Current flows only produce settled entries
	}
}

// TransactionID builds the trx-<context>-<unix millis> identifier.
func TransactionID(context string, at time.Time) string {
	return fmt.Sprintf("trx-%s-%d", context, at.UnixMilli())
}

// IsCredit reports whether the entry increases the balance.
func (t Transaction) IsCredit() bool {
	return t.Type == TransactionTypeCredit
}

// SignedAmount returns the balance delta the entry represents.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}
