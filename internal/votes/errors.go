package votes

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the target (or its parent) does not exist. Nothing was written.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means there is no usable actor identity. Nothing was written.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBadRequest is returned for invalid choices or kinds, before any store access.
	ErrBadRequest = errors.New("bad request")
	// ErrConflict means a concurrent writer won a race. The unit was rolled back and
	// retried once; seeing it means the retry lost too. Safe to retry.
	ErrConflict = errors.New("conflict")
	// ErrStoreFailure means the transaction could not commit. It was rolled back.
	ErrStoreFailure = errors.New("store failure")
)

// PostgreSQL SQLSTATE codes the ledger reacts to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// storeError tags an underlying error with one of the sentinels while keeping
// the original reachable through Unwrap.
type storeError struct {
	kind error
	err  error
}

func (e *storeError) Error() string { return e.kind.Error() + ": " + e.err.Error() }

func (e *storeError) Is(target error) bool { return target == e.kind }

func (e *storeError) Unwrap() error { return e.err }

func tag(kind, err error) error {
	return &storeError{kind: kind, err: err}
}

// fkPolicy decides what a foreign-key violation means for the running unit.
type fkPolicy int

const (
	// fkMissingRow: a referenced row vanished under us (vote path).
	fkMissingRow fkPolicy = iota
	// fkRace: a dependent row appeared while deleting (cascade path).
	fkRace
)

// classify maps a transaction error onto the error taxonomy.
func classify(err error, policy fkPolicy) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrNotFound, ErrUnauthorized, ErrBadRequest, ErrConflict, ErrStoreFailure} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return tag(ErrNotFound, err)
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return tag(ErrConflict, err)
	case stderrors.Is(err, gorm.ErrForeignKeyViolated):
		return fkError(err, "", policy)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return tag(ErrStoreFailure, err)
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
			return tag(ErrConflict, err)
		case codeForeignKeyViolation:
			return fkError(err, pgErr.ConstraintName, policy)
		}
	}

	return tag(ErrStoreFailure, err)
}

func fkError(err error, constraint string, policy fkPolicy) error {
	if policy == fkRace {
		return tag(ErrConflict, err)
	}
	// GORM names has-many constraints fk_<owner>_<field>; the users side
	// means the actor was deleted mid-request.
	if strings.HasPrefix(constraint, "fk_users_") {
		return tag(ErrUnauthorized, err)
	}
	return tag(ErrNotFound, err)
}
