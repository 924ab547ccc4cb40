package models

import (
	"errors"
	"fmt"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
)

// ErrorKind classifies every error the ledger returns across its public
// boundary. The HTTP layer switches on it exhaustively; callers never see
// raw driver errors.
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "Validation"
	ErrorKindNotFound          ErrorKind = "NotFound"
	ErrorKindPrecondition      ErrorKind = "Precondition"
	ErrorKindInsufficientStock ErrorKind = "InsufficientStock"
	ErrorKindPersistence       ErrorKind = "Persistence"
)

type LedgerError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *LedgerError) Error() string { return e.Message }

func (e *LedgerError) Unwrap() error { return e.Err }

func NewValidationError(format string, args ...any) error {
	return &LedgerError{Kind: ErrorKindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(resource string) error {
	return &LedgerError{Kind: ErrorKindNotFound, Message: resource + " not found"}
}

func NewPreconditionError(format string, args ...any) error {
	return &LedgerError{Kind: ErrorKindPrecondition, Message: fmt.Sprintf(format, args...)}
}

func NewInsufficientStockError(itemName string, available decimal.Decimal, requested decimal.Decimal) error {
	return &LedgerError{
		Kind:    ErrorKindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for %s: available %s, requested %s", itemName, available.String(), requested.String()),
	}
}

// NewPersistenceError logs the underlying failure and returns an error whose
// message is safe to show to callers.
func NewPersistenceError(moduleName string, funcName string, err error) error {
	config.LogError(config.GetLogger(), moduleName, funcName, "db action", nil, err)
	return &LedgerError{Kind: ErrorKindPersistence, Message: "operation failed", Err: err}
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// ErrKindOf maps any error to its kind. Unclassified errors are treated as
// persistence failures so nothing internal leaks by default.
func ErrKindOf(err error) ErrorKind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return ErrorKindNotFound
	}
	return ErrorKindPersistence
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && ErrKindOf(err) == kind
}

func IsInsufficientStock(err error) bool {
	return IsKind(err, ErrorKindInsufficientStock)
}
