package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
	"github.com/Mohsinsiddi/tonblueprint/internal/sender"
)

// Contract is anything with an address and, before deployment, an init.
type Contract interface {
	Address() *address.Address
	// Init is nil for contracts that are only ever opened, never deployed.
	Init() *tlb.StateInit
}

// StaticContract is a Contract built from plain values.
type StaticContract struct {
	Addr      *address.Address
	StateInit *tlb.StateInit
}

func (c StaticContract) Address() *address.Address { return c.Addr }
func (c StaticContract) Init() *tlb.StateInit      { return c.StateInit }

// InternalArgs describes an internal message sent through a wallet.
type InternalArgs struct {
	Value    tlb.Coins
	Body     *cell.Cell
	Bounce   *bool
	SendMode *uint8
}

// ContractProvider is what a contract binding uses to talk to the chain.
type ContractProvider struct {
	p    *Provider
	addr *address.Address
	init *tlb.StateInit
}

// Address is the contract address.
func (c *ContractProvider) Address() *address.Address { return c.addr }

// State returns the account state. A never-touched account is reported as
// uninitialized rather than as an error.
func (c *ContractProvider) State(ctx context.Context) (*backend.AccountState, error) {
	st, err := c.p.client.GetState(ctx, c.addr)
	if errors.Is(err, backend.ErrStateUnavailable) {
		return &backend.AccountState{Status: backend.StatusUninit}, nil
	}
	return st, err
}

// Get runs a get-method.
func (c *ContractProvider) Get(ctx context.Context, method string, args ...any) ([]any, error) {
	return c.p.client.CallGetMethod(ctx, c.addr, method, args...)
}

// Transactions lists the contract's transactions, newest first.
func (c *ContractProvider) Transactions(ctx context.Context, fromLT uint64, fromHash []byte, limit int) ([]*backend.TransactionRecord, error) {
	return c.p.client.GetTransactions(ctx, c.addr, fromLT, fromHash, limit)
}

// initIfUndeployed returns the init to attach: only while the contract is not active.
func (c *ContractProvider) initIfUndeployed(ctx context.Context) (*tlb.StateInit, error) {
	if c.init == nil {
		return nil, nil
	}
	st, err := c.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading state of %s: %w", c.p.FormatAddress(c.addr), err)
	}
	if st.IsActive() {
		return nil, nil
	}
	return c.init, nil
}

// External broadcasts an external message with body to the contract.
func (c *ContractProvider) External(ctx context.Context, body *cell.Cell) error {
	init, err := c.initIfUndeployed(ctx)
	if err != nil {
		return err
	}
	msg, err := externalMessage(c.addr, init, body)
	if err != nil {
		return err
	}
	return c.p.client.SendMessage(ctx, msg.ToBOC())
}

// Internal sends an internal message to the contract through via.
func (c *ContractProvider) Internal(ctx context.Context, via sender.Sender, args InternalArgs) error {
	init, err := c.initIfUndeployed(ctx)
	if err != nil {
		return err
	}
	return via.Send(ctx, sender.Message{
		To:       c.addr,
		Value:    args.Value,
		Body:     args.Body,
		Init:     init,
		Bounce:   args.Bounce,
		SendMode: args.SendMode,
	})
}

// Open returns the provider of another contract.
func (c *ContractProvider) Open(x Contract) *ContractProvider {
	return c.p.Open(x)
}

// externalMessage serializes ext_in_msg_info with an optional init and the body as a reference.
func externalMessage(dst *address.Address, init *tlb.StateInit, body *cell.Cell) (*cell.Cell, error) {
	if body == nil {
		body = cell.BeginCell().EndCell()
	}
	b := cell.BeginCell().
		MustStoreUInt(0b10, 2).
		MustStoreAddr(address.NewAddressNone()).
		MustStoreAddr(dst).
		MustStoreCoins(0)
	if init != nil {
		ic, err := tlb.ToCell(init)
		if err != nil {
			return nil, fmt.Errorf("serializing state init: %w", err)
		}
		b.MustStoreBoolBit(true).MustStoreBoolBit(true).MustStoreRef(ic)
	} else {
		b.MustStoreBoolBit(false)
	}
	return b.MustStoreBoolBit(true).MustStoreRef(body).EndCell(), nil
}
