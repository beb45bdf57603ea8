package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts (e.g. checking, savings). Immutable after
// creation.
type AccountType struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(25);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AccountType) TableName() string {
	return "account_type"
}

// Account holds a user's money. Balance is a scale-2 decimal and is mutated
// only by the ledger service, inside a database transaction.
type Account struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Number        string          `gorm:"type:char(10);uniqueIndex;not null" json:"number"`
	Balance       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	UserID        int64           `gorm:"index;not null" json:"user_id"`
	AccountTypeID int64           `gorm:"index;not null" json:"account_type_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
