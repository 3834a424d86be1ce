package provider

import (
	"context"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
)

// ChainConfig reads every configuration parameter from the config contract.
// Its data starts with a reference to the Hashmap 32 ^Cell of parameters.
func (p *Provider) ChainConfig(ctx context.Context) (map[uint32]*cell.Cell, error) {
	st, err := p.client.GetState(ctx, backend.ConfigAddress)
	if err != nil {
		return nil, fmt.Errorf("reading config contract: %w", err)
	}
	if !st.IsActive() || st.Data == nil {
		return nil, ErrConfigContractInactive
	}
	return parseChainConfig(st.Data)
}

// ConfigParam returns parameter id, nil when it is absent.
func (p *Provider) ConfigParam(ctx context.Context, id uint32) (*cell.Cell, error) {
	params, err := p.ChainConfig(ctx)
	if err != nil {
		return nil, err
	}
	return params[id], nil
}

func parseChainConfig(data *cell.Cell) (map[uint32]*cell.Cell, error) {
	root, err := data.PeekRef(0)
	if err != nil {
		return nil, fmt.Errorf("config data has no parameter dictionary: %w", err)
	}
	dict, err := cell.BeginCell().MustStoreMaybeRef(root).EndCell().BeginParse().LoadDict(32)
	if err != nil {
		return nil, fmt.Errorf("parsing parameter dictionary: %w", err)
	}
	kvs, err := dict.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("reading parameter dictionary: %w", err)
	}

	params := make(map[uint32]*cell.Cell, len(kvs))
	for _, kv := range kvs {
		id, err := kv.Key.LoadUInt(32)
		if err != nil {
			return nil, fmt.Errorf("parameter key: %w", err)
		}
		val, err := kv.Value.LoadRef()
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", id, err)
		}
		c, err := val.ToCell()
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", id, err)
		}
		params[uint32(id)] = c
	}
	return params, nil
}
