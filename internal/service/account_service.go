package service

import (
	"context"
	"errors"
	"fmt"

	"corebank/internal/config"
	"corebank/internal/model"
	"corebank/internal/repository"
	"corebank/pkg/idgen"
	"corebank/pkg/validate"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountService owns the account and account-type workflows. It never
// touches balances beyond setting the initial zero; mutation is the ledger
// service's job.
type AccountService struct {
	cfg             *config.Config
	accountRepo     *repository.AccountRepository
	accountTypeRepo *repository.AccountTypeRepository
}

func NewAccountService(db *gorm.DB, cfg *config.Config) *AccountService {
	return &AccountService{
		cfg:             cfg,
		accountRepo:     repository.NewAccountRepository(db),
		accountTypeRepo: repository.NewAccountTypeRepository(db),
	}
}

// CreateAccount opens an account for the user with a server-generated number
// and a zero balance.
func (s *AccountService) CreateAccount(ctx context.Context, userID, accountTypeID int64) (*model.Account, error) {
	if _, err := s.accountTypeRepo.GetByID(ctx, accountTypeID); err != nil {
		if errors.Is(err, repository.ErrAccountTypeNotFound) {
			return nil, NewError(ErrKindNotFound, "account type does not exist")
		}
		return nil, WrapStorage("fetch account type failed", err)
	}

	rules := s.cfg.Rules.Account
	number := idgen.GenerateAccountNumber(rules.NumberSize)
	if !validate.MatchesPattern(rules.NumberPattern, number, false) ||
		!validate.InRangeInt(rules.NumberSize, rules.NumberSize, len(number)) {
		return nil, NewError(ErrKindInvalidValue,
			fmt.Sprintf("account number must be %d digits", rules.NumberSize))
	}

	account := &model.Account{
		Number:        number,
		Balance:       decimal.Zero,
		UserID:        userID,
		AccountTypeID: accountTypeID,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, WrapStorage("create account failed", err)
	}
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, NewError(ErrKindNotFound, "account does not exist")
		}
		return nil, WrapStorage("fetch account failed", err)
	}
	return account, nil
}

func (s *AccountService) GetAccountByNumber(ctx context.Context, number string) (*model.Account, error) {
	account, err := s.accountRepo.GetByField(ctx, "number", number)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, NewError(ErrKindNotFound, "account does not exist")
		}
		return nil, WrapStorage("fetch account failed", err)
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, userID int64) ([]*model.Account, error) {
	accounts, err := s.accountRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, WrapStorage("list accounts failed", err)
	}
	return accounts, nil
}

// DeleteAccount removes an account. Accounts still holding money cannot be
// deleted.
func (s *AccountService) DeleteAccount(ctx context.Context, id int64) error {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if account.Balance.GreaterThan(decimal.Zero) {
		return NewError(ErrKindInvalidOperation, "account balance must be zero before deletion")
	}
	if err := s.accountRepo.Delete(ctx, id); err != nil {
		return WrapStorage("delete account failed", err)
	}
	return nil
}

// CreateAccountType registers a new account type. The name must be letters
// only and within the configured size.
func (s *AccountService) CreateAccountType(ctx context.Context, name string) (*model.AccountType, error) {
	rules := s.cfg.Rules.AccountType
	if !validate.MatchesPattern(rules.NamePattern, name, false) {
		return nil, NewError(ErrKindInvalidValue, "account type name must contain only letters")
	}
	if !validate.InRangeInt(1, rules.MaxNameSize, len(name)) {
		return nil, NewError(ErrKindInvalidValue,
			fmt.Sprintf("account type name must have at most %d letters", rules.MaxNameSize))
	}

	if _, err := s.accountTypeRepo.GetByName(ctx, name); err == nil {
		return nil, NewError(ErrKindConflict, "account type already exists")
	} else if !errors.Is(err, repository.ErrAccountTypeNotFound) {
		return nil, WrapStorage("fetch account type failed", err)
	}

	accountType := &model.AccountType{Name: name}
	if err := s.accountTypeRepo.Create(ctx, accountType); err != nil {
		return nil, WrapStorage("create account type failed", err)
	}
	return accountType, nil
}

func (s *AccountService) ListAccountTypes(ctx context.Context) ([]*model.AccountType, error) {
	accountTypes, err := s.accountTypeRepo.List(ctx)
	if err != nil {
		return nil, WrapStorage("list account types failed", err)
	}
	return accountTypes, nil
}
