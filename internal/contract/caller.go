package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/monsend/internal/chain"
)

// Reader executes eth_call. *chain.EVMClient satisfies it.
type Reader interface {
	Call(ctx context.Context, msg chain.CallMsg) ([]byte, error)
}

// Caller calls read-only (view/pure) functions of one ABI.
type Caller struct {
	reader Reader
	abi    ABI
}

// NewCaller creates a Caller for abi.
func NewCaller(reader Reader, abi ABI) *Caller {
	return &Caller{reader: reader, abi: abi}
}

// NewERC20Caller creates a Caller over the built-in ERC-20 ABI.
func NewERC20Caller(reader Reader) *Caller { return NewCaller(reader, Builtin(ERC20)) }

// NewERC721Caller creates a Caller over the built-in ERC-721 ABI.
func NewERC721Caller(reader Reader) *Caller { return NewCaller(reader, Builtin(ERC721)) }

// Call calls a read function on a contract and returns decoded results as strings.
func (c *Caller) Call(ctx context.Context, contractAddr, funcName string, args ...string) ([]string, error) {
	fn, err := c.abi.Function(funcName)
	if err != nil {
		return nil, err
	}
	if !fn.IsReadFunction() {
		return nil, fmt.Errorf("function %q is not a read function (stateMutability: %s)", funcName, fn.StateMutability)
	}

	calldata, err := EncodeCall(fn, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	result, err := c.reader.Call(ctx, chain.CallMsg{To: contractAddr, Data: calldata})
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", contractAddr, funcName, err)
	}
	if len(result) == 0 && len(fn.Outputs) > 0 {
		return nil, fmt.Errorf("%s.%s: empty return data (not a contract?)", contractAddr, funcName)
	}
	return DecodeOutputs(fn, result), nil
}

// Uint calls a function whose first output is an integer.
func (c *Caller) Uint(ctx context.Context, contractAddr, funcName string, args ...string) (*big.Int, error) {
	out, err := c.Call(ctx, contractAddr, funcName, args...)
	if err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(out[0], 10)
	if !ok {
		return nil, fmt.Errorf("%s.%s: not an integer result", contractAddr, funcName)
	}
	return n, nil
}

// String calls a function whose first output is a string.
func (c *Caller) String(ctx context.Context, contractAddr, funcName string, args ...string) (string, error) {
	out, err := c.Call(ctx, contractAddr, funcName, args...)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// Pack encodes calldata for any function of abi, read or write.
func Pack(abi ABI, funcName string, args ...string) ([]byte, error) {
	fn, err := abi.Function(funcName)
	if err != nil {
		return nil, err
	}
	return EncodeCall(fn, args...)
}
