package repository

import (
	"context"
	"errors"

	"corebank/internal/model"

	"gorm.io/gorm"
)

type AccountTypeRepository struct {
	db *gorm.DB
}

func NewAccountTypeRepository(db *gorm.DB) *AccountTypeRepository {
	return &AccountTypeRepository{db: db}
}

func (r *AccountTypeRepository) Create(ctx context.Context, accountType *model.AccountType) error {
	return r.db.WithContext(ctx).Create(accountType).Error
}

func (r *AccountTypeRepository) GetByID(ctx context.Context, id int64) (*model.AccountType, error) {
	var accountType model.AccountType
	err := r.db.WithContext(ctx).First(&accountType, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountTypeNotFound
		}
		return nil, err
	}
	return &accountType, nil
}

func (r *AccountTypeRepository) GetByName(ctx context.Context, name string) (*model.AccountType, error) {
	var accountType model.AccountType
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&accountType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountTypeNotFound
		}
		return nil, err
	}
	return &accountType, nil
}

func (r *AccountTypeRepository) List(ctx context.Context) ([]*model.AccountType, error) {
	var accountTypes []*model.AccountType
	err := r.db.WithContext(ctx).Order("id ASC").Find(&accountTypes).Error
	return accountTypes, err
}
