package service

import "errors"

// ErrorKind is the machine-distinguishable category of a business error.
type ErrorKind string

const (
	// ErrKindInvalidValue marks a transaction value outside the configured
	// bounds for its kind, or an otherwise invalid field value.
	ErrKindInvalidValue ErrorKind = "invalid_value"
	// ErrKindInvalidOperation marks a transaction with the wrong self/other
	// relationship for its kind.
	ErrKindInvalidOperation ErrorKind = "invalid_operation"
	// ErrKindInsufficientFunds marks a withdraw or transfer exceeding the
	// source account balance.
	ErrKindInsufficientFunds ErrorKind = "insufficient_funds"
	// ErrKindUnknownKind marks a transaction kind outside the three
	// recognized values.
	ErrKindUnknownKind ErrorKind = "unknown_kind"
	// ErrKindNotFound marks a missing row.
	ErrKindNotFound ErrorKind = "not_found"
	// ErrKindConflict marks a uniqueness violation (username, CPF, type name).
	ErrKindConflict ErrorKind = "conflict"
	// ErrKindUnauthorized marks failed credential or token checks.
	ErrKindUnauthorized ErrorKind = "unauthorized"
	// ErrKindStorage marks an infrastructure failure after validation passed;
	// the surrounding transaction has been rolled back.
	ErrKindStorage ErrorKind = "storage"
)

// Error is a business error: a kind for the caller to dispatch on plus a
// human-readable detail. It carries no stack trace or internal state.
type Error struct {
	Kind   ErrorKind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a business error of the given kind.
func NewError(kind ErrorKind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// WrapStorage wraps an infrastructure failure as a storage-kind error.
func WrapStorage(detail string, cause error) *Error {
	return &Error{Kind: ErrKindStorage, Detail: detail, cause: cause}
}

// IsKind reports whether err is a business error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

// KindOf returns the business kind of err, or storage for anything that is
// not a business error.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ErrKindStorage
}
