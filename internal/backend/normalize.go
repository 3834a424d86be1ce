package backend

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Everything that inspects a backend-specific payload lives in this file.
// Adapters decode wire JSON into the structs below and hand them to the
// converters; nothing outside the package sees a raw shape.

// NormalizeHash accepts a 32-byte hash as hex, base64 or base64url (padded or
// not) and returns it as lowercase hex.
func NormalizeHash(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty hash")
	}
	if len(s) == 64 {
		if b, err := hex.DecodeString(s); err == nil {
			return hex.EncodeToString(b), nil
		}
	}
	trimmed := strings.TrimRight(s, "=")
	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(trimmed); err == nil && len(b) == 32 {
			return hex.EncodeToString(b), nil
		}
	}
	return "", fmt.Errorf("unrecognized hash encoding %q", s)
}

// HashBytes decodes a normalized hex hash.
func HashBytes(h string) ([]byte, error) {
	n, err := NormalizeHash(h)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(n)
}

// NormalizedExternalHash hashes an inbound external message after dropping
// everything a relayer may change: the source becomes addr_none, the import
// fee zero, the state init is removed and the body is always a reference.
func NormalizedExternalHash(dst *address.Address, body *cell.Cell) string {
	if body == nil {
		body = cell.BeginCell().EndCell()
	}
	c := cell.BeginCell().
		MustStoreUInt(0b10, 2).
		MustStoreAddr(address.NewAddressNone()).
		MustStoreAddr(dst).
		MustStoreCoins(0).
		MustStoreBoolBit(false).
		MustStoreBoolBit(true).
		MustStoreRef(body).
		EndCell()
	return hex.EncodeToString(c.Hash())
}

// ExternalMessageHash parses a serialized external inbound message and returns
// its normalized hash.
func ExternalMessageHash(boc []byte) (string, error) {
	root, err := cell.FromBOC(boc)
	if err != nil {
		return "", fmt.Errorf("parsing message BOC: %w", err)
	}
	var msg tlb.Message
	if err := tlb.LoadFromCell(&msg, root.BeginParse()); err != nil {
		return "", fmt.Errorf("parsing message: %w", err)
	}
	if msg.MsgType != tlb.MsgTypeExternalIn {
		return "", fmt.Errorf("message is %v, not external inbound", msg.MsgType)
	}
	ext := msg.AsExternalIn()
	return NormalizedExternalHash(ext.DstAddr, ext.Body), nil
}

// recordFromTLB converts a fully parsed transaction. Used by the liteclient
// and v4 adapters and by v2 when the raw transaction is present.
func recordFromTLB(tx *tlb.Transaction) *TransactionRecord {
	rec := &TransactionRecord{
		Hash:      hex.EncodeToString(tx.Hash),
		LT:        tx.LT,
		Timestamp: tx.Now,
		TotalFees: tx.TotalFees.Coins.Nano(),
	}

	if tx.IO.In != nil && tx.IO.In.MsgType == tlb.MsgTypeExternalIn {
		ext := tx.IO.In.AsExternalIn()
		rec.InMsgExternal = true
		rec.InMsgHash = NormalizedExternalHash(ext.DstAddr, ext.Body)
	}

	dsc, ok := tx.Description.(tlb.TransactionDescriptionOrdinary)
	if !ok {
		return rec
	}
	aborted := dsc.Aborted
	rec.Aborted = &aborted
	if dsc.StoragePhase != nil {
		rec.Fees.Storage = dsc.StoragePhase.StorageFeesCollected.Nano()
	}
	if vm, ok := dsc.ComputePhase.Phase.(tlb.ComputePhaseVM); ok {
		success := vm.Success
		exitCode := vm.Details.ExitCode
		steps := vm.Details.VMSteps
		rec.ComputeSuccess = &success
		rec.ExitCode = &exitCode
		rec.VMSteps = &steps
		rec.GasUsed = vm.Details.GasUsed
		rec.Fees.Gas = vm.GasFees.Nano()
	}
	if dsc.ActionPhase != nil {
		if dsc.ActionPhase.TotalFwdFees != nil {
			rec.Fees.Forward = dsc.ActionPhase.TotalFwdFees.Nano()
		}
		if dsc.ActionPhase.TotalActionFees != nil {
			rec.Fees.Action = dsc.ActionPhase.TotalActionFees.Nano()
		}
	}
	return rec
}

func parseTLBTransaction(c *cell.Cell) (*TransactionRecord, error) {
	var tx tlb.Transaction
	if err := tlb.LoadFromCell(&tx, c.BeginParse()); err != nil {
		return nil, fmt.Errorf("parsing transaction: %w", err)
	}
	if len(tx.Hash) == 0 {
		tx.Hash = c.Hash()
	}
	return recordFromTLB(&tx), nil
}

// looseInt decodes integers sent either as JSON numbers or as decimal/hex strings.
type looseInt struct{ *big.Int }

func (l *looseInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return fmt.Errorf("invalid integer %s", b)
	}
	l.Int = v
	return nil
}

func (l looseInt) Uint64() uint64 {
	if l.Int == nil {
		return 0
	}
	return l.Int.Uint64()
}

func (l looseInt) big() *big.Int {
	if l.Int == nil {
		return nil
	}
	return new(big.Int).Set(l.Int)
}

// ---------------------------------------------------------------------------
// toncenter (v2) shapes
// ---------------------------------------------------------------------------

type toncenterTxID struct {
	LT   looseInt `json:"lt"`
	Hash string   `json:"hash"`
}

type toncenterMsg struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	MsgData     struct {
		Body string `json:"body"`
	} `json:"msg_data"`
}

type toncenterTx struct {
	Utime         uint32        `json:"utime"`
	Data          string        `json:"data"`
	TransactionID toncenterTxID `json:"transaction_id"`
	Fee           looseInt      `json:"fee"`
	StorageFee    looseInt      `json:"storage_fee"`
	OtherFee      looseInt      `json:"other_fee"`
	InMsg         *toncenterMsg `json:"in_msg"`
}

func (t *toncenterTx) record() (*TransactionRecord, error) {
	if t.Data != "" {
		if raw, err := base64.StdEncoding.DecodeString(t.Data); err == nil {
			if c, err := cell.FromBOC(raw); err == nil {
				if rec, err := parseTLBTransaction(c); err == nil {
					return rec, nil
				}
			}
		}
	}

	// The raw transaction is missing or unparseable: fall back to the flat fields.
	hash, err := NormalizeHash(t.TransactionID.Hash)
	if err != nil {
		return nil, fmt.Errorf("transaction id: %w", err)
	}
	rec := &TransactionRecord{
		Hash:      hash,
		LT:        t.TransactionID.LT.Uint64(),
		Timestamp: t.Utime,
		TotalFees: t.Fee.big(),
		Fees:      FeeBreakdown{Storage: t.StorageFee.big()},
	}
	if t.InMsg != nil && t.InMsg.Source == "" && t.InMsg.Destination != "" {
		rec.InMsgExternal = true
		if dst, err := address.ParseAddr(t.InMsg.Destination); err == nil {
			if body, err := cellFromBase64(t.InMsg.MsgData.Body); err == nil {
				rec.InMsgHash = NormalizedExternalHash(dst, body)
			}
		}
	}
	return rec, nil
}

type toncenterAddressInfo struct {
	Balance           looseInt      `json:"balance"`
	Code              string        `json:"code"`
	Data              string        `json:"data"`
	State             string        `json:"state"`
	LastTransactionID toncenterTxID `json:"last_transaction_id"`
}

func (i *toncenterAddressInfo) state() (*AccountState, error) {
	st := &AccountState{
		Balance: tlb.FromNanoTON(orZero(i.Balance.Int)),
		LastLT:  i.LastTransactionID.LT.Uint64(),
	}
	switch i.State {
	case "active":
		st.Status = StatusActive
	case "frozen":
		st.Status = StatusFrozen
	default:
		st.Status = StatusUninit
	}
	if st.Status == StatusUninit && st.LastLT == 0 && st.Balance.Nano().Sign() == 0 {
		return nil, ErrStateUnavailable
	}
	if st.LastLT != 0 {
		if h, err := HashBytes(i.LastTransactionID.Hash); err == nil {
			st.LastHash = h
		}
	}
	var err error
	if st.Code, err = optionalCellBase64(i.Code); err != nil {
		return nil, fmt.Errorf("account code: %w", err)
	}
	if st.Data, err = optionalCellBase64(i.Data); err != nil {
		return nil, fmt.Errorf("account data: %w", err)
	}
	return st, nil
}

// toncenter encodes stack entries as [type, value] pairs.
func parseToncenterStack(entries [][2]any) ([]any, error) {
	out := make([]any, 0, len(entries))
	for i, e := range entries {
		kind, _ := e[0].(string)
		switch kind {
		case "num", "int":
			s, _ := e[1].(string)
			v, ok := new(big.Int).SetString(strings.Replace(s, "0x-", "-0x", 1), 0)
			if !ok {
				return nil, fmt.Errorf("stack[%d]: invalid number %v", i, e[1])
			}
			out = append(out, v)
		case "cell", "slice", "tvm.Cell", "tvm.Slice":
			obj, _ := e[1].(map[string]any)
			b64, _ := obj["bytes"].(string)
			c, err := cellFromBase64(b64)
			if err != nil {
				return nil, fmt.Errorf("stack[%d]: %w", i, err)
			}
			out = append(out, c)
		case "null":
			out = append(out, nil)
		default:
			return nil, fmt.Errorf("stack[%d]: unsupported entry type %q", i, kind)
		}
	}
	return out, nil
}

func toncenterStackArgs(args []any) ([][2]string, error) {
	out := make([][2]string, 0, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *big.Int:
			out = append(out, [2]string{"num", v.String()})
		case int64:
			out = append(out, [2]string{"num", fmt.Sprint(v)})
		case int:
			out = append(out, [2]string{"num", fmt.Sprint(v)})
		case *cell.Cell:
			out = append(out, [2]string{"tvm.Cell", base64.StdEncoding.EncodeToString(v.ToBOC())})
		case *cell.Slice:
			c, err := v.ToCell()
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
			out = append(out, [2]string{"tvm.Slice", base64.StdEncoding.EncodeToString(c.ToBOC())})
		default:
			return nil, fmt.Errorf("arg %d: unsupported type %T", i, a)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// tonhub (v4) shapes
// ---------------------------------------------------------------------------

type tonhubAccount struct {
	Account struct {
		State struct {
			Type string `json:"type"`
			Code string `json:"code"`
			Data string `json:"data"`
		} `json:"state"`
		Balance struct {
			Coins looseInt `json:"coins"`
		} `json:"balance"`
		Last *struct {
			LT   looseInt `json:"lt"`
			Hash string   `json:"hash"`
		} `json:"last"`
	} `json:"account"`
}

func (a *tonhubAccount) state() (*AccountState, error) {
	acc := a.Account
	st := &AccountState{Balance: tlb.FromNanoTON(orZero(acc.Balance.Coins.Int))}
	switch acc.State.Type {
	case "active":
		st.Status = StatusActive
	case "frozen":
		st.Status = StatusFrozen
	default:
		st.Status = StatusUninit
	}
	if acc.Last == nil {
		if st.Status == StatusUninit && st.Balance.Nano().Sign() == 0 {
			return nil, ErrStateUnavailable
		}
	} else {
		st.LastLT = acc.Last.LT.Uint64()
		if h, err := HashBytes(acc.Last.Hash); err == nil {
			st.LastHash = h
		}
	}
	var err error
	if st.Code, err = optionalCellBase64(acc.State.Code); err != nil {
		return nil, fmt.Errorf("account code: %w", err)
	}
	if st.Data, err = optionalCellBase64(acc.State.Data); err != nil {
		return nil, fmt.Errorf("account data: %w", err)
	}
	return st, nil
}

type tonhubStackEntry struct {
	Type  string             `json:"type"`
	Value string             `json:"value"`
	Cell  string             `json:"cell"`
	Items []tonhubStackEntry `json:"items"`
}

func parseTonhubStack(entries []tonhubStackEntry) ([]any, error) {
	out := make([]any, 0, len(entries))
	for i, e := range entries {
		switch e.Type {
		case "int":
			v, ok := new(big.Int).SetString(e.Value, 10)
			if !ok {
				return nil, fmt.Errorf("stack[%d]: invalid int %q", i, e.Value)
			}
			out = append(out, v)
		case "cell", "slice", "builder":
			c, err := cellFromBase64(e.Cell)
			if err != nil {
				return nil, fmt.Errorf("stack[%d]: %w", i, err)
			}
			out = append(out, c)
		case "null", "nan":
			out = append(out, nil)
		case "tuple":
			items, err := parseTonhubStack(e.Items)
			if err != nil {
				return nil, fmt.Errorf("stack[%d]: %w", i, err)
			}
			out = append(out, items)
		default:
			return nil, fmt.Errorf("stack[%d]: unsupported entry type %q", i, e.Type)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// tonapi (indexer) shapes
// ---------------------------------------------------------------------------

type tonapiAccount struct {
	Balance             looseInt `json:"balance"`
	Status              string   `json:"status"`
	Code                string   `json:"code"`
	Data                string   `json:"data"`
	LastTransactionLT   looseInt `json:"last_transaction_lt"`
	LastTransactionHash string   `json:"last_transaction_hash"`
}

func (a *tonapiAccount) state() (*AccountState, error) {
	st := &AccountState{
		Balance: tlb.FromNanoTON(orZero(a.Balance.Int)),
		LastLT:  a.LastTransactionLT.Uint64(),
	}
	switch a.Status {
	case "active":
		st.Status = StatusActive
	case "frozen":
		st.Status = StatusFrozen
	case "nonexist":
		return nil, ErrStateUnavailable
	default:
		st.Status = StatusUninit
	}
	if a.LastTransactionHash != "" {
		if h, err := HashBytes(a.LastTransactionHash); err == nil {
			st.LastHash = h
		}
	}
	var err error
	if st.Code, err = optionalCellHex(a.Code); err != nil {
		return nil, fmt.Errorf("account code: %w", err)
	}
	if st.Data, err = optionalCellHex(a.Data); err != nil {
		return nil, fmt.Errorf("account data: %w", err)
	}
	return st, nil
}

type tonapiTx struct {
	Hash         string   `json:"hash"`
	LT           looseInt `json:"lt"`
	Utime        uint32   `json:"utime"`
	TotalFees    looseInt `json:"total_fees"`
	Success      *bool    `json:"success"`
	Aborted      *bool    `json:"aborted"`
	ComputePhase *struct {
		Skipped  bool     `json:"skipped"`
		Success  *bool    `json:"success"`
		GasFees  looseInt `json:"gas_fees"`
		GasUsed  looseInt `json:"gas_used"`
		VMSteps  *uint32  `json:"vm_steps"`
		ExitCode *int32   `json:"exit_code"`
	} `json:"compute_phase"`
	StoragePhase *struct {
		FeesCollected looseInt `json:"fees_collected"`
	} `json:"storage_phase"`
	ActionPhase *struct {
		TotalFees looseInt `json:"total_fees"`
		FwdFees   looseInt `json:"fwd_fees"`
	} `json:"action_phase"`
	InMsg *struct {
		MsgType     string `json:"msg_type"`
		Destination *struct {
			Address string `json:"address"`
		} `json:"destination"`
		RawBody string `json:"raw_body"`
	} `json:"in_msg"`
}

func (t *tonapiTx) record() (*TransactionRecord, error) {
	hash, err := NormalizeHash(t.Hash)
	if err != nil {
		return nil, fmt.Errorf("transaction hash: %w", err)
	}
	rec := &TransactionRecord{
		Hash:      hash,
		LT:        t.LT.Uint64(),
		Timestamp: t.Utime,
		TotalFees: t.TotalFees.big(),
		Aborted:   t.Aborted,
	}
	if t.Success != nil {
		if *t.Success {
			rec.Status = "success"
		} else {
			rec.Status = StatusFailed
		}
	}
	if cp := t.ComputePhase; cp != nil && !cp.Skipped {
		rec.ComputeSuccess = cp.Success
		rec.ExitCode = cp.ExitCode
		rec.VMSteps = cp.VMSteps
		rec.GasUsed = cp.GasUsed.big()
		rec.Fees.Gas = cp.GasFees.big()
	}
	if t.StoragePhase != nil {
		rec.Fees.Storage = t.StoragePhase.FeesCollected.big()
	}
	if t.ActionPhase != nil {
		rec.Fees.Action = t.ActionPhase.TotalFees.big()
		rec.Fees.Forward = t.ActionPhase.FwdFees.big()
	}
	if m := t.InMsg; m != nil && m.MsgType == "ext_in_msg" {
		rec.InMsgExternal = true
		if m.Destination != nil {
			dst, derr := address.ParseRawAddr(m.Destination.Address)
			if derr != nil {
				dst, derr = address.ParseAddr(m.Destination.Address)
			}
			body, berr := optionalCellHex(m.RawBody)
			if derr == nil && berr == nil {
				rec.InMsgHash = NormalizedExternalHash(dst, body)
			}
		}
	}
	return rec, nil
}

type tonapiStackEntry struct {
	Type  string             `json:"type"`
	Num   string             `json:"num"`
	Cell  string             `json:"cell"`
	Slice string             `json:"slice"`
	Tuple []tonapiStackEntry `json:"tuple"`
}

func parseTonapiStack(entries []tonapiStackEntry) ([]any, error) {
	out := make([]any, 0, len(entries))
	for i, e := range entries {
		switch e.Type {
		case "num":
			v, ok := new(big.Int).SetString(strings.Replace(e.Num, "0x-", "-0x", 1), 0)
			if !ok {
				return nil, fmt.Errorf("stack[%d]: invalid number %q", i, e.Num)
			}
			out = append(out, v)
		case "cell", "slice":
			raw := e.Cell
			if e.Type == "slice" {
				raw = e.Slice
			}
			c, err := optionalCellHex(raw)
			if err != nil || c == nil {
				return nil, fmt.Errorf("stack[%d]: invalid %s", i, e.Type)
			}
			out = append(out, c)
		case "null", "nan":
			out = append(out, nil)
		case "tuple":
			items, err := parseTonapiStack(e.Tuple)
			if err != nil {
				return nil, fmt.Errorf("stack[%d]: %w", i, err)
			}
			out = append(out, items)
		default:
			return nil, fmt.Errorf("stack[%d]: unsupported entry type %q", i, e.Type)
		}
	}
	return out, nil
}

// tonapi takes get-method arguments as strings: integers, raw addresses or hex BOCs.
func tonapiArgs(args []any) ([]string, error) {
	out := make([]string, 0, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *big.Int:
			out = append(out, v.String())
		case int64, int:
			out = append(out, fmt.Sprint(v))
		case *address.Address:
			out = append(out, v.StringRaw())
		case *cell.Cell:
			out = append(out, hex.EncodeToString(v.ToBOC()))
		default:
			return nil, fmt.Errorf("arg %d: unsupported type %T", i, a)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func cellFromBase64(s string) (*cell.Cell, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid base64 BOC: %w", err)
	}
	return cell.FromBOC(raw)
}

func optionalCellBase64(s string) (*cell.Cell, error) {
	if s == "" {
		return nil, nil
	}
	return cellFromBase64(s)
}

func optionalCellHex(s string) (*cell.Cell, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex BOC: %w", err)
	}
	return cell.FromBOC(raw)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
