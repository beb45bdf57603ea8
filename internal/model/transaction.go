package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the category of a ledger transaction. It decides which
// structural and sufficiency rules apply.
type TransactionKind string

const (
	TransactionKindDeposit  TransactionKind = "deposit"
	TransactionKindWithdraw TransactionKind = "withdraw"
	TransactionKindTransfer TransactionKind = "transfer"
)

// Known reports whether the kind is one of the three recognized values.
func (k TransactionKind) Known() bool {
	switch k {
	case TransactionKindDeposit, TransactionKindWithdraw, TransactionKindTransfer:
		return true
	}
	return false
}

// Transaction is one row of the ledger.
//
// The ledger is append only: rows are never updated or deleted. For deposit
// and withdraw the source and destination account are the same; for transfer
// they differ. The timestamp is assigned by the server at commit.
type Transaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	FromAccountID int64           `gorm:"index;not null" json:"from_account_id"`
	ToAccountID   int64           `gorm:"index;not null" json:"to_account_id"`
	Value         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"value"`
	Kind          TransactionKind `gorm:"type:varchar(20);not null" json:"kind"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transaction"
}
