package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/airtime-queen/airtime_queen/internal/passkey"
)

const factoryABI = `[{"type":"function","name":"getAddress","stateMutability":"view",
  "inputs":[{"name":"owners","type":"bytes[]"},{"name":"nonce","type":"uint256"}],
  "outputs":[{"name":"","type":"address"}]}]`

// ContractCaller is the read-only slice of an Ethereum client the deriver needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// FactoryDeriver computes counterfactual Coinbase Smart Wallet addresses for a
// single passkey owner by calling getAddress on the wallet factory.
type FactoryDeriver struct {
	caller  ContractCaller
	factory common.Address
	abi     abi.ABI
}

// NewFactoryDeriver builds a deriver against factory using caller.
func NewFactoryDeriver(caller ContractCaller, factory string) (*FactoryDeriver, error) {
	if !common.IsHexAddress(factory) {
		return nil, fmt.Errorf("%w: factory %q", ErrInvalidAddress, factory)
	}
	parsed, err := abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	return &FactoryDeriver{caller: caller, factory: common.HexToAddress(factory), abi: parsed}, nil
}

// DialFactoryDeriver connects to an RPC endpoint and returns a deriver plus
// the client, which the caller must close.
func DialFactoryDeriver(ctx context.Context, rpcURL, factory string) (*FactoryDeriver, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rpc: %w", err)
	}
	deriver, err := NewFactoryDeriver(client, factory)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return deriver, client, nil
}

// DeriveAddress returns the checksummed wallet address owned by the passkey.
func (d *FactoryDeriver) DeriveAddress(ctx context.Context, passkeyPublicKey string) (string, error) {
	x, y, err := passkey.Coordinates(passkeyPublicKey)
	if err != nil {
		return "", err
	}
	// A passkey owner is abi.encode(bytes32 x, bytes32 y).
	owner := make([]byte, 0, len(x)+len(y))
	owner = append(owner, x[:]...)
	owner = append(owner, y[:]...)

	data, err := d.abi.Pack("getAddress", [][]byte{owner}, big.NewInt(0))
	if err != nil {
		return "", fmt.Errorf("pack getAddress: %w", err)
	}
	out, err := d.caller.CallContract(ctx, ethereum.CallMsg{To: &d.factory, Data: data}, nil)
	if err != nil {
		return "", fmt.Errorf("call getAddress: %w", err)
	}
	values, err := d.abi.Unpack("getAddress", out)
	if err != nil {
		return "", fmt.Errorf("unpack getAddress: %w", err)
	}
	if len(values) != 1 {
		return "", fmt.Errorf("unpack getAddress: got %d values", len(values))
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("unpack getAddress: unexpected %T", values[0])
	}
	return addr.Hex(), nil
}
