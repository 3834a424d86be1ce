// Package sender submits messages through one of the supported signing
// mechanisms and remembers the raw result of the last submission.
package sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

var (
	// ErrUnsupportedSendMode is returned for any send mode other than SendModePayGasSeparately.
	ErrUnsupportedSendMode = errors.New("unsupported send mode")
	// ErrNotConnected is returned by Send before a successful Connect.
	ErrNotConnected = errors.New("sender not connected")
	// ErrRequestExpired is returned when a remote wallet does not answer before the request expires.
	ErrRequestExpired = errors.New("wallet did not answer before the request expired")
	// ErrMissingMnemonic is returned when WALLET_MNEMONIC or WALLET_VERSION is unset.
	ErrMissingMnemonic = errors.New("WALLET_MNEMONIC and WALLET_VERSION must both be set")
	// ErrUnknownWalletVersion is returned for WALLET_VERSION values with no wallet contract.
	ErrUnknownWalletVersion = errors.New("unknown wallet version")
)

// SendModePayGasSeparately is the only send mode senders accept.
const SendModePayGasSeparately uint8 = 1

// Message is one outgoing internal message.
type Message struct {
	To    *address.Address
	Value tlb.Coins
	Body  *cell.Cell
	// Init is attached when the destination must be deployed.
	Init *tlb.StateInit
	// Bounce is not honored by any sender; setting it only produces a warning.
	Bounce   *bool
	SendMode *uint8
}

// Sender is a signing mechanism.
type Sender interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg Message) error
	// Address is nil for a deep-link sender until the user supplies it.
	Address() *address.Address
	// LastSendResult is the raw result of the last successful Send, nil before any.
	LastSendResult() any
	Close() error
}

// WalletSendResult is recorded by the mnemonic sender.
type WalletSendResult struct {
	Wallet *address.Address
	To     *address.Address
	Value  tlb.Coins
}

// DeeplinkSendResult is recorded by the deep-link sender.
type DeeplinkSendResult struct {
	Link string
}

// TonConnectSendResult is recorded by the TonConnect sender. BOC is the signed
// external message the wallet broadcast.
type TonConnectSendResult struct {
	BOC []byte
}

// checkMessage applies the rules shared by every sender.
func checkMessage(u ui.UI, name string, msg Message) error {
	if msg.To == nil {
		return fmt.Errorf("message has no destination")
	}
	if msg.SendMode != nil && *msg.SendMode != SendModePayGasSeparately {
		return fmt.Errorf("%w: %s sender only supports send mode %d, got %d",
			ErrUnsupportedSendMode, name, SendModePayGasSeparately, *msg.SendMode)
	}
	if msg.Bounce != nil && u != nil {
		u.Write(ui.Warn(fmt.Sprintf("%s sender does not support the bounce flag, it will be ignored", name)))
	}
	return nil
}
