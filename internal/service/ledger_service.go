package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"corebank/internal/config"
	"corebank/internal/model"
	"corebank/internal/repository"
	"corebank/pkg/idgen"
	"corebank/pkg/validate"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountLocker serializes ledger operations touching the same accounts
// across processes. LockAccounts must acquire the per-account locks in
// ascending id order and return a release function.
type AccountLocker interface {
	LockAccounts(ctx context.Context, ids ...int64) (release func(context.Context), err error)
}

// LedgerService is the transaction engine. It is the only component allowed
// to mutate account balances, and it does so inside a single database
// transaction per operation: the ledger row, the balance update(s) and the
// outbox event commit together or not at all.
//
// The service keeps no state of its own; each call is a one-shot transition
// over the (source balance, destination balance) pair guarded by the
// validation rules.
type LedgerService struct {
	db              *gorm.DB
	locker          AccountLocker
	cfg             *config.Config
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

func NewLedgerService(db *gorm.DB, locker AccountLocker, cfg *config.Config) *LedgerService {
	return &LedgerService{
		db:              db,
		locker:          locker,
		cfg:             cfg,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

// ExecuteTransaction validates and applies one ledger transaction.
//
// Guards run in a fixed order and the first failure aborts with no persisted
// side effect: value bounds for the kind, then the structural self/other
// rule, then sufficiency against the source balance (withdraw and transfer
// only). An unrecognized kind fails the dispatch fallback. Identical calls
// are not deduplicated: each successful call appends its own ledger row.
func (s *LedgerService) ExecuteTransaction(
	ctx context.Context,
	source, destination *model.Account,
	value decimal.Decimal,
	kind model.TransactionKind,
) (bool, error) {
	if source == nil || destination == nil {
		return false, NewError(ErrKindNotFound, "source or destination account does not exist")
	}

	if err := s.validate(source, destination, value, kind); err != nil {
		return false, err
	}

	release, err := s.locker.LockAccounts(ctx, lockOrder(source.ID, destination.ID)...)
	if err != nil {
		return false, WrapStorage("could not acquire account lock", err)
	}
	defer release(ctx)

	var transactionNo string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		lockedSource, lockedDestination, err := s.lockRows(ctx, tx, source.ID, destination.ID)
		if err != nil {
			return fmt.Errorf("lock account rows: %w", err)
		}

		// The snapshot passed in may be stale; the sufficiency rule is
		// re-checked against the locked row before any write.
		if kind != model.TransactionKindDeposit && value.GreaterThan(lockedSource.Balance) {
			return NewError(ErrKindInsufficientFunds, "insufficient funds")
		}

		trans := &model.Transaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			FromAccountID: source.ID,
			ToAccountID:   destination.ID,
			Value:         value,
			Kind:          kind,
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("append ledger row: %w", err)
		}
		transactionNo = trans.TransactionNo

		switch kind {
		case model.TransactionKindDeposit:
			err = s.accountRepo.UpdateBalance(ctx, tx, source.ID, lockedSource.Balance.Add(value))
		case model.TransactionKindWithdraw:
			err = s.accountRepo.UpdateBalance(ctx, tx, source.ID, lockedSource.Balance.Sub(value))
		case model.TransactionKindTransfer:
			if err = s.accountRepo.UpdateBalance(ctx, tx, source.ID, lockedSource.Balance.Sub(value)); err == nil {
				err = s.accountRepo.UpdateBalance(ctx, tx, destination.ID, lockedDestination.Balance.Add(value))
			}
		default:
			return NewError(ErrKindUnknownKind, "invalid transaction type")
		}
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		return s.writeEvent(ctx, tx, trans)
	})
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			return false, be
		}
		return false, WrapStorage("ledger commit failed", err)
	}

	log.Printf("[Ledger] transaction committed: no=%s, kind=%s, from=%d, to=%d, value=%s",
		transactionNo, kind, source.ID, destination.ID, value.StringFixed(2))
	return true, nil
}

// validate runs the precondition guards against the account snapshots. It
// returns nil only when every guard for the kind passes.
func (s *LedgerService) validate(source, destination *model.Account, value decimal.Decimal, kind model.TransactionKind) error {
	if !kind.Known() {
		return NewError(ErrKindUnknownKind, "invalid transaction type")
	}
	min, max, bounded, _ := s.cfg.Rules.Transaction.Bounds(string(kind))

	inBounds := value.GreaterThanOrEqual(min)
	if bounded {
		inBounds = validate.InRange(min, max, value)
	}
	if !inBounds {
		return NewError(ErrKindInvalidValue, fmt.Sprintf("invalid %s value", kind))
	}

	switch kind {
	case model.TransactionKindDeposit:
		if source.ID != destination.ID {
			return NewError(ErrKindInvalidOperation, "deposit must target own account")
		}
	case model.TransactionKindWithdraw:
		if source.ID != destination.ID {
			return NewError(ErrKindInvalidOperation, "withdraw must target own account")
		}
		if value.GreaterThan(source.Balance) {
			return NewError(ErrKindInsufficientFunds, "insufficient funds")
		}
	case model.TransactionKindTransfer:
		if source.ID == destination.ID {
			return NewError(ErrKindInvalidOperation, "no self-transfer")
		}
		if value.GreaterThan(source.Balance) {
			return NewError(ErrKindInsufficientFunds, "insufficient funds")
		}
	}
	return nil
}

// lockRows fetches the account rows FOR UPDATE in ascending id order and
// returns them keyed back to their source/destination roles. For deposit and
// withdraw both ids are the same row.
func (s *LedgerService) lockRows(ctx context.Context, tx *gorm.DB, sourceID, destinationID int64) (lockedSource, lockedDestination *model.Account, err error) {
	if sourceID == destinationID {
		account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, sourceID)
		if err != nil {
			return nil, nil, err
		}
		return account, account, nil
	}

	locked := make(map[int64]*model.Account, 2)
	for _, id := range lockOrder(sourceID, destinationID) {
		account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = account
	}
	return locked[sourceID], locked[destinationID], nil
}

// transactionCreatedEvent is the outbox payload published after a commit.
type transactionCreatedEvent struct {
	EventID       string `json:"event_id"`
	TransactionNo string `json:"transaction_no"`
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Value         string `json:"value"`
	Kind          string `json:"kind"`
	CreatedAt     string `json:"created_at"`
}

func (s *LedgerService) writeEvent(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	payload, err := json.Marshal(transactionCreatedEvent{
		EventID:       uuid.NewString(),
		TransactionNo: trans.TransactionNo,
		FromAccountID: trans.FromAccountID,
		ToAccountID:   trans.ToAccountID,
		Value:         trans.Value.StringFixed(2),
		Kind:          string(trans.Kind),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := &model.OutboxMessage{
		MessageKey: trans.TransactionNo,
		Topic:      s.cfg.Kafka.Topic.TransactionCreated,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("write outbox event: %w", err)
	}
	return nil
}

// ListTransactions pages through the whole ledger, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, page, pageSize int) ([]*model.Transaction, int64, error) {
	transactions, total, err := s.transactionRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, WrapStorage("list transactions failed", err)
	}
	return transactions, total, nil
}

// GetTransaction fetches one ledger row by its transaction number.
func (s *LedgerService) GetTransaction(ctx context.Context, transactionNo string) (*model.Transaction, error) {
	trans, err := s.transactionRepo.GetByTransactionNo(ctx, transactionNo)
	if err != nil {
		return nil, WrapStorage("fetch transaction failed", err)
	}
	if trans == nil {
		return nil, NewError(ErrKindNotFound, "transaction does not exist")
	}
	return trans, nil
}

// ListAccountTransactions pages through one account's statement.
func (s *LedgerService) ListAccountTransactions(ctx context.Context, accountID int64, page, pageSize int) ([]*model.Transaction, int64, error) {
	transactions, total, err := s.transactionRepo.ListByAccountID(ctx, accountID, page, pageSize)
	if err != nil {
		return nil, 0, WrapStorage("list account transactions failed", err)
	}
	return transactions, total, nil
}

// lockOrder returns the distinct account ids in ascending order, so every
// caller acquires locks in the same sequence regardless of transfer
// direction.
func lockOrder(a, b int64) []int64 {
	if a == b {
		return []int64{a}
	}
	if a < b {
		return []int64{a, b}
	}
	return []int64{b, a}
}
