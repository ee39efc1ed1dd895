package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/contract"
)

// Connector errors.
var (
	ErrNotConnected     = errors.New("wallet not connected")
	ErrUnsupportedChain = errors.New("chain not supported by this connector")
)

// Gas limits used when estimation fails.
const (
	fallbackTransferGas = 21_000
	fallbackContractGas = 100_000
)

// Connector is the capability surface the send flow issues transactions
// through. Implementations own key custody and signing.
type Connector interface {
	Connect(ctx context.Context) error
	Disconnect()
	SwitchChain(ctx context.Context, chainID int64) error
	SendTransaction(ctx context.Context, to string, value *big.Int) (string, error)
	WriteContract(ctx context.Context, contractAddr string, abi contract.ABI, fn string, args ...string) (string, error)
	Address() string
	ChainID() int64
}

// TxClient is the slice of the chain client a LocalConnector needs.
type TxClient interface {
	ChainID(ctx context.Context) (int64, error)
	PendingNonce(ctx context.Context, address string) (uint64, error)
	EstimateGas(ctx context.Context, msg chain.CallMsg) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	MaxPriorityFee(ctx context.Context) (*big.Int, error)
	SendRawTransaction(ctx context.Context, raw []byte) (string, error)
}

// LocalConnector signs with a keystore-backed wallet and broadcasts through
// a single RPC endpoint.
type LocalConnector struct {
	signer *Signer
	client TxClient

	mu        sync.Mutex
	connected bool
	chainID   int64
}

var _ Connector = (*LocalConnector)(nil)

// NewLocalConnector creates a connector for w.
func NewLocalConnector(w *Wallet, ks KeystoreBackend, client TxClient) *LocalConnector {
	return &LocalConnector{signer: NewSigner(w, ks), client: client}
}

// Connect checks the wallet can sign and records the endpoint's chain.
func (c *LocalConnector) Connect(ctx context.Context) error {
	if !c.signer.wallet.CanSign() {
		return fmt.Errorf("wallet %q is watch-only and cannot send", c.signer.wallet.Name)
	}
	id, err := c.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	c.mu.Lock()
	c.connected, c.chainID = true, id
	c.mu.Unlock()
	return nil
}

// Disconnect forgets the session.
func (c *LocalConnector) Disconnect() {
	c.mu.Lock()
	c.connected, c.chainID = false, 0
	c.mu.Unlock()
}

// SwitchChain succeeds only when the endpoint already serves chainID; a local
// connector cannot move to another network on its own.
func (c *LocalConnector) SwitchChain(ctx context.Context, chainID int64) error {
	if !c.isConnected() {
		return ErrNotConnected
	}
	id, err := c.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("switching chain: %w", err)
	}
	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
	if id != chainID {
		return fmt.Errorf("%w: endpoint serves %d, want %d", ErrUnsupportedChain, id, chainID)
	}
	return nil
}

// Address returns the connected account.
func (c *LocalConnector) Address() string { return c.signer.Address() }

// ChainID returns the chain recorded at connect time, or 0 when disconnected.
func (c *LocalConnector) ChainID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chainID
}

// SendTransaction transfers value wei of the native currency to to.
func (c *LocalConnector) SendTransaction(ctx context.Context, to string, value *big.Int) (string, error) {
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, to)
	}
	return c.submit(ctx, to, value, nil, fallbackTransferGas)
}

// WriteContract calls a state-changing function of contractAddr.
func (c *LocalConnector) WriteContract(ctx context.Context, contractAddr string, abi contract.ABI, fn string, args ...string) (string, error) {
	entry, err := abi.Function(fn)
	if err != nil {
		return "", err
	}
	if !entry.IsWriteFunction() {
		return "", fmt.Errorf("function %q is not a write function", fn)
	}
	data, err := contract.EncodeCall(entry, args...)
	if err != nil {
		return "", fmt.Errorf("encoding call: %w", err)
	}
	return c.submit(ctx, contractAddr, big.NewInt(0), data, fallbackContractGas)
}

func (c *LocalConnector) submit(ctx context.Context, to string, value *big.Int, data []byte, fallbackGas uint64) (string, error) {
	if !c.isConnected() {
		return "", ErrNotConnected
	}
	from := c.signer.Address()

	gas, err := c.client.EstimateGas(ctx, chain.CallMsg{From: from, To: to, Data: data, Value: value})
	if err != nil {
		gas = fallbackGas
	}
	gasPrice, err := c.client.GasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}
	tip, err := c.client.MaxPriorityFee(ctx)
	if err != nil {
		tip = gasPrice
	}
	nonce, err := c.client.PendingNonce(ctx, from)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}

	chainID := big.NewInt(c.ChainID())
	toAddr := common.HexToAddress(to)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: new(big.Int).Add(new(big.Int).Mul(gasPrice, big.NewInt(2)), tip),
		Gas:       gas,
		To:        &toAddr,
		Value:     value,
		Data:      data,
	})

	raw, err := c.signer.SignTx(tx, chainID)
	if err != nil {
		return "", err
	}
	hash, err := c.client.SendRawTransaction(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("broadcasting transaction: %w", err)
	}
	return hash, nil
}

func (c *LocalConnector) isConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
