package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
	"github.com/Mohsinsiddi/tonblueprint/internal/compile"
	"github.com/Mohsinsiddi/tonblueprint/internal/config"
	"github.com/Mohsinsiddi/tonblueprint/internal/network"
	"github.com/Mohsinsiddi/tonblueprint/internal/sender"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

type deployState int

const (
	awaitingActivation deployState = iota
	activationDetected
	verifyingTransaction
	confirmed
	confirmedWithWarning
	failed
	timedOut
)

func (s deployState) String() string {
	switch s {
	case awaitingActivation:
		return "awaiting activation"
	case activationDetected:
		return "activation detected"
	case verifyingTransaction:
		return "verifying transaction"
	case confirmed:
		return "confirmed"
	case confirmedWithWarning:
		return "confirmed with warning"
	case failed:
		return "failed"
	case timedOut:
		return "timed out"
	}
	return fmt.Sprintf("deployState(%d)", int(s))
}

// DeployReport is the outcome of a confirmed deployment.
type DeployReport struct {
	Address *address.Address
	Link    string
	// Transaction is nil when the deployment transaction could not be found.
	Transaction *backend.TransactionRecord
	TxLink      string
	Warnings    []string
}

func invalidAttempts(attempts int) error {
	return fmt.Errorf("%w: %w, got %d", network.ErrConfig, ErrInvalidAttempts, attempts)
}

var errNoSender = fmt.Errorf("%w: provider was built without a sender", network.ErrConfig)

// Deploy sends init with value and body to its address and waits for the
// contract to become active. An already-active address is refused.
func (p *Provider) Deploy(ctx context.Context, init *tlb.StateInit, value tlb.Coins, body *cell.Cell, attempts int) (*DeployReport, error) {
	if attempts <= 0 {
		return nil, invalidAttempts(attempts)
	}
	if p.sender == nil {
		return nil, errNoSender
	}
	addr, err := compile.Address(init, 0)
	if err != nil {
		return nil, err
	}
	deployed, err := p.IsContractDeployed(ctx, addr)
	if err != nil {
		return nil, err
	}
	if deployed {
		return nil, fmt.Errorf("%w at %s", ErrAlreadyDeployed, p.FormatAddress(addr))
	}

	if err := p.sender.Send(ctx, sender.Message{To: addr, Value: value, Body: body, Init: init}); err != nil {
		return nil, fmt.Errorf("sending deployment: %w", err)
	}
	return p.WaitForDeploy(ctx, addr, attempts, config.DeployInterval)
}

// WaitForDeploy polls addr until it is active, then verifies the
// transaction that activated it. Polling is bounded by attempts, not by
// wall-clock time.
func (p *Provider) WaitForDeploy(ctx context.Context, addr *address.Address, attempts int, interval time.Duration) (*DeployReport, error) {
	if attempts <= 0 {
		return nil, invalidAttempts(attempts)
	}
	defer p.ui.ClearActionPrompt()

	report := &DeployReport{Address: addr, Link: p.AddressLink(addr)}
	state := awaitingActivation
	attempt := 0

	for {
		p.log.Debugw("deploy state", "state", state, "attempt", attempt)
		switch state {
		case awaitingActivation:
			if attempt == attempts {
				state = timedOut
				continue
			}
			attempt++
			p.ui.SetActionPrompt(fmt.Sprintf("Awaiting contract deployment... [Attempt %d/%d]", attempt, attempts))
			active, err := p.IsContractDeployed(ctx, addr)
			if err != nil {
				return nil, err
			}
			if active {
				state = activationDetected
				continue
			}
			if err := p.sleep(ctx, interval); err != nil {
				return nil, err
			}

		case activationDetected:
			p.ui.ClearActionPrompt()
			p.ui.Write(ui.Success("Contract deployed at address " + p.FormatAddress(addr)))
			if report.Link != "" {
				p.ui.Write("You can view it at " + ui.Addr(report.Link))
			}
			// Activation can be visible before the transaction causing it is indexed.
			if err := p.sleep(ctx, p.timings.SettleDelay); err != nil {
				return nil, err
			}
			state = verifyingTransaction

		case verifyingTransaction:
			rec, err := p.VerifyDeployTransaction(ctx, addr)
			if err != nil {
				return nil, err
			}
			if rec == nil {
				report.Warnings = append(report.Warnings, "could not find the deployment transaction to verify it")
				state = confirmedWithWarning
				continue
			}
			report.Transaction = rec
			report.TxLink = p.TxLink(addr, rec)
			if !rec.OverallSuccess() {
				state = failed
				continue
			}
			if w := p.crossCheckTx(ctx, rec); w != "" {
				report.Warnings = append(report.Warnings, w)
				state = confirmedWithWarning
				continue
			}
			state = confirmed

		case failed:
			return nil, &TransactionFailedError{Record: report.Transaction, Link: report.TxLink}

		case confirmed, confirmedWithWarning:
			p.printReport(report)
			return report, nil

		case timedOut:
			return nil, &TimeoutError{
				Attempts: attempts,
				Interval: interval,
				Hint:     "check your wallet's transactions",
				err:      ErrDeploymentTimeout,
			}
		}
	}
}

// VerifyDeployTransaction fetches the latest transaction of addr, retrying
// while it is not indexed yet. It returns nil, nil when none shows up, and
// the last error when every attempt failed.
func (p *Provider) VerifyDeployTransaction(ctx context.Context, addr *address.Address) (*backend.TransactionRecord, error) {
	var lastErr error
	failures := 0
	for attempt := 1; attempt <= p.timings.VerifyAttempts; attempt++ {
		p.ui.SetActionPrompt(fmt.Sprintf("Verifying deployment transaction... [Attempt %d/%d]", attempt, p.timings.VerifyAttempts))
		txs, err := p.client.GetTransactions(ctx, addr, 0, nil, 1)
		switch {
		case err == nil && len(txs) > 0:
			p.ui.ClearActionPrompt()
			return txs[0], nil
		case errors.Is(err, backend.ErrStateUnavailable), err == nil:
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			p.log.Debugw("fetching deployment transaction failed", "attempt", attempt, "err", err)
			lastErr = err
			failures++
		}
		if attempt < p.timings.VerifyAttempts {
			if err := p.sleep(ctx, p.timings.VerifyInterval); err != nil {
				return nil, err
			}
		}
	}
	p.ui.ClearActionPrompt()
	if failures == p.timings.VerifyAttempts {
		return nil, fmt.Errorf("fetching deployment transaction: %w", lastErr)
	}
	return nil, nil
}

// crossCheckTx asks the indexer about rec by hash. It returns a warning, or "".
func (p *Provider) crossCheckTx(ctx context.Context, rec *backend.TransactionRecord) string {
	if p.crossCheck == nil || rec.Hash == "" {
		return ""
	}
	hash, err := backend.HashBytes(rec.Hash)
	if err != nil {
		return ""
	}
	other, err := p.crossCheck.GetTransactionByHash(ctx, hash)
	if err != nil {
		p.log.Debugw("indexer cross-check failed", "hash", rec.Hash, "err", err)
		return "could not cross-check the deployment transaction with the indexer: " + err.Error()
	}
	if !other.OverallSuccess() {
		code := "unknown"
		if other.ExitCode != nil {
			code = fmt.Sprint(*other.ExitCode)
		}
		return fmt.Sprintf("the indexer reports the deployment transaction as failed (exit code %s, status %q)", code, other.Status)
	}
	if rec.ExitCode != nil && other.ExitCode != nil && *rec.ExitCode != *other.ExitCode {
		return fmt.Sprintf("the indexer reports exit code %d, the backend reported %d", *other.ExitCode, *rec.ExitCode)
	}
	return ""
}

func (p *Provider) printReport(r *DeployReport) {
	if r.Transaction != nil {
		p.ui.Write(ui.KeyValueBlock("Deployment transaction", Diagnostic(r.Transaction, r.TxLink)))
	}
	for _, w := range r.Warnings {
		p.ui.Write(ui.Warn(w))
	}
}

// WaitForLastTransaction waits until the sender's last submission shows up
// in the sender wallet's history. Transactions are matched by their
// normalized inbound external message hash only.
func (p *Provider) WaitForLastTransaction(ctx context.Context, attempts int, interval time.Duration) (*backend.TransactionRecord, error) {
	if attempts <= 0 {
		return nil, invalidAttempts(attempts)
	}
	if p.sender == nil {
		return nil, errNoSender
	}
	wallet := p.sender.Address()
	if wallet == nil {
		return nil, ErrMissingSenderAddress
	}
	var boc []byte
	switch res := p.sender.LastSendResult().(type) {
	case nil:
		return nil, ErrNothingSent
	case *sender.TonConnectSendResult:
		boc = res.BOC
	default:
		// Only TonConnect hands back the signed message.
		return nil, fmt.Errorf("%w: cannot correlate a %T with on-chain transactions", ErrNotImplemented, res)
	}
	want, err := backend.ExternalMessageHash(boc)
	if err != nil {
		return nil, fmt.Errorf("hashing last sent message: %w", err)
	}
	defer p.ui.ClearActionPrompt()

	for attempt := 1; attempt <= attempts; attempt++ {
		p.ui.SetActionPrompt(fmt.Sprintf("Awaiting transaction... [Attempt %d/%d]", attempt, attempts))
		// The whole window is re-read every time: transactions may appear out of order.
		txs, err := p.client.GetTransactions(ctx, wallet, 0, nil, p.timings.TxWindow)
		if err != nil && !errors.Is(err, backend.ErrStateUnavailable) {
			return nil, err
		}
		for _, tx := range txs {
			if !tx.InMsgExternal || tx.InMsgHash != want {
				continue
			}
			p.ui.ClearActionPrompt()
			link := p.TxLink(wallet, tx)
			if !tx.OverallSuccess() {
				return nil, &TransactionFailedError{Record: tx, Link: link}
			}
			p.ui.Write(ui.Success("Transaction applied"))
			if link != "" {
				p.ui.Write("You can view it at " + ui.Addr(link))
			}
			return tx, nil
		}
		if err := p.sleep(ctx, interval); err != nil {
			return nil, err
		}
	}
	return nil, &TimeoutError{
		Attempts: attempts,
		Interval: interval,
		Hint:     "check your wallet's transactions",
		err:      ErrTransactionNotApplied,
	}
}
