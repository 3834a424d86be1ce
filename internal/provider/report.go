package provider

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/xssnick/tonutils-go/tlb"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
)

// exitCodes describes the well-known TVM exit codes.
var exitCodes = map[int32]string{
	0:   "standard successful execution",
	1:   "alternative successful execution",
	2:   "stack underflow",
	3:   "stack overflow",
	4:   "integer overflow",
	5:   "integer out of expected range",
	6:   "invalid opcode",
	7:   "type check error",
	8:   "cell overflow",
	9:   "cell underflow",
	10:  "dictionary error",
	11:  "unknown error",
	12:  "fatal error",
	13:  "out of gas",
	-14: "out of gas",
	14:  "virtualization error",
	32:  "action list is invalid",
	33:  "action list is too long",
	34:  "action is invalid or not supported",
	35:  "invalid source address in outbound message",
	36:  "invalid destination address in outbound message",
	37:  "not enough Toncoin",
	38:  "not enough extra currencies",
	39:  "outbound message does not fit into a cell",
	40:  "cannot process a message",
	41:  "library reference is null",
	42:  "library change action error",
	43:  "library limits exceeded",
	50:  "account state size exceeded limits",
}

// ExitCodeDescription returns the meaning of a well-known exit code, or "".
func ExitCodeDescription(code int32) string {
	return exitCodes[code]
}

func formatTON(v *big.Int) string {
	if v == nil {
		return ""
	}
	return tlb.FromNanoTON(v).String() + " TON"
}

func optional[T any](v *T, f func(T) string) string {
	if v == nil {
		return ""
	}
	return f(*v)
}

// Diagnostic lists the fields of rec worth showing, in display order.
// Fields the backend did not report have an empty value.
func Diagnostic(rec *backend.TransactionRecord, link string) [][2]string {
	if rec == nil {
		return nil
	}
	exit := optional(rec.ExitCode, func(c int32) string {
		if d := ExitCodeDescription(c); d != "" {
			return fmt.Sprintf("%d (%s)", c, d)
		}
		return strconv.Itoa(int(c))
	})
	ts := ""
	if rec.Timestamp != 0 {
		ts = time.Unix(int64(rec.Timestamp), 0).UTC().Format(time.RFC3339)
	}
	gas := ""
	if rec.GasUsed != nil {
		gas = rec.GasUsed.String()
	}

	return [][2]string{
		{"Hash", rec.Hash},
		{"Logical time", strconv.FormatUint(rec.LT, 10)},
		{"Timestamp", ts},
		{"Success", strconv.FormatBool(rec.OverallSuccess())},
		{"Exit code", exit},
		{"Status", rec.Status},
		{"Compute success", optional(rec.ComputeSuccess, strconv.FormatBool)},
		{"Aborted", optional(rec.Aborted, strconv.FormatBool)},
		{"Gas used", gas},
		{"VM steps", optional(rec.VMSteps, func(s uint32) string { return strconv.FormatUint(uint64(s), 10) })},
		{"Total fees", formatTON(rec.TotalFees)},
		{"Storage fees", formatTON(rec.Fees.Storage)},
		{"Gas fees", formatTON(rec.Fees.Gas)},
		{"Forward fees", formatTON(rec.Fees.Forward)},
		{"Action fees", formatTON(rec.Fees.Action)},
		{"Explorer", link},
	}
}

// FormatDiagnostic renders pairs as "Key: value" lines, skipping empty values.
func FormatDiagnostic(pairs [][2]string) string {
	var sb strings.Builder
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		sb.WriteString("  " + p[0] + ": " + p[1] + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
