package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
)

var (
	// ErrInvalidAttempts is a configuration error: polling needs at least one attempt.
	ErrInvalidAttempts = errors.New("attempts must be positive")
	// ErrDeploymentTimeout is returned when a contract never becomes active.
	ErrDeploymentTimeout = errors.New("contract was not deployed")
	// ErrTransactionNotApplied is returned when the last sent transaction never appears.
	ErrTransactionNotApplied = errors.New("transaction was not applied")
	// ErrTransactionFailed is returned when a transaction was applied but failed.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrMissingSenderAddress is returned when the sender's wallet address is unknown.
	ErrMissingSenderAddress = errors.New("sender address is unknown")
	// ErrNotImplemented is returned when the last send result cannot be correlated.
	ErrNotImplemented = errors.New("not implemented")
	// ErrNothingSent is returned when waiting for a transaction before any send.
	ErrNothingSent = errors.New("no transaction has been sent")
	// ErrConfigContractInactive is returned when the config contract is not active.
	ErrConfigContractInactive = errors.New("config contract is not active")
	// ErrAlreadyDeployed is returned by Deploy for an active address.
	ErrAlreadyDeployed = errors.New("contract is already deployed")
)

// TransactionFailedError carries the diagnostic of a failed transaction.
type TransactionFailedError struct {
	Record *backend.TransactionRecord
	// Link is the explorer link of the transaction, "" when unavailable.
	Link string
}

func (e *TransactionFailedError) Error() string {
	return "transaction failed:\n" + FormatDiagnostic(Diagnostic(e.Record, e.Link))
}

func (e *TransactionFailedError) Unwrap() error { return ErrTransactionFailed }

// TimeoutError reports an exhausted polling loop.
type TimeoutError struct {
	Attempts int
	Interval time.Duration
	// Hint tells the user what to check.
	Hint string
	err  error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%v after %d attempts %s apart", e.err, e.Attempts, e.Interval)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.err }
