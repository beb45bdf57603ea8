package repository

import (
	"context"
	"errors"
	"fmt"

	"corebank/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountTypeNotFound = errors.New("account type not found")
	ErrUnknownField        = errors.New("unknown query field")
)

// accountQueryFields is the allow-list of columns GetByField may filter on.
// Field names outside this map are rejected instead of being probed
// dynamically.
var accountQueryFields = map[string]struct{}{
	"id":      {},
	"number":  {},
	"user_id": {},
}

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	return r.GetByField(ctx, "id", id)
}

// GetByField returns the first account whose allow-listed field matches the
// given value, or ErrAccountNotFound.
func (r *AccountRepository) GetByField(ctx context.Context, field string, value interface{}) (*model.Account, error) {
	if _, ok := accountQueryFields[field]; !ok {
		return nil, fmt.Errorf("%w: account has no queryable field %q", ErrUnknownField, field)
	}

	var account model.Account
	err := r.db.WithContext(ctx).Where(field+" = ?", value).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetByIDForUpdate fetches the account row inside tx holding a row-level
// write lock. Callers locking several accounts must lock them in ascending id
// order to avoid deadlock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Account, error) {
	var account model.Account
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// UpdateBalance persists an absolute new balance for the account. The row is
// expected to be locked by the surrounding transaction.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *gorm.DB, id int64, newBalance decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Update("balance", newBalance)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*model.Account, error) {
	var accounts []*model.Account
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Account{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
