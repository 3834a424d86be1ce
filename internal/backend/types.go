package backend

import (
	"math/big"

	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusActive AccountStatus = "active"
	StatusUninit AccountStatus = "uninit"
	StatusFrozen AccountStatus = "frozen"
)

// AccountState is the normalized account snapshot.
type AccountState struct {
	Status   AccountStatus
	Balance  tlb.Coins
	Code     *cell.Cell
	Data     *cell.Cell
	LastLT   uint64
	LastHash []byte
}

// IsActive reports whether the account holds code and data.
func (s *AccountState) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

// StatusFailed is the status string backends use for a failed transaction.
const StatusFailed = "failed"

// FeeBreakdown splits total fees by phase when the backend reports them.
type FeeBreakdown struct {
	Storage *big.Int
	Gas     *big.Int
	Forward *big.Int
	Action  *big.Int
}

// TransactionRecord is the normalized read-only view of a transaction.
// Optional fields are nil when the backend did not report them.
type TransactionRecord struct {
	Hash           string // lowercase hex
	LT             uint64
	Timestamp      uint32
	ExitCode       *int32
	ComputeSuccess *bool
	Status         string
	Aborted        *bool
	TotalFees      *big.Int
	Fees           FeeBreakdown
	GasUsed        *big.Int
	VMSteps        *uint32

	// InMsgHash is the normalized hash of an external inbound message, lowercase hex.
	InMsgHash     string
	InMsgExternal bool
}

// OverallSuccess classifies the transaction.
func (r *TransactionRecord) OverallSuccess() bool {
	return Classify(r.ExitCode, r.Status, r.ComputeSuccess)
}

// Classify returns false iff the exit code is present and not 0 or 1, the
// status is "failed", or the compute phase explicitly failed.
func Classify(exitCode *int32, status string, computeSuccess *bool) bool {
	if exitCode != nil && *exitCode != 0 && *exitCode != 1 {
		return false
	}
	if status == StatusFailed {
		return false
	}
	if computeSuccess != nil && !*computeSuccess {
		return false
	}
	return true
}
