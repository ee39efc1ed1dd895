package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EVMClient is a minimal read-mostly JSON-RPC client for one EVM endpoint.
type EVMClient struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

// Transaction holds a simplified transaction record.
type Transaction struct {
	Hash      string
	From      string
	To        string // empty for contract creation
	Value     *big.Int
	Input     string
	Gas       uint64
	Nonce     uint64
	BlockNum  uint64
	Pending   bool // true while the node reports no block number
	Timestamp uint64
}

// Block is a block fetched with full transaction bodies.
type Block struct {
	Number       uint64
	Timestamp    uint64
	Transactions []*Transaction
}

// Receipt is the on-chain receipt of a mined transaction.
type Receipt struct {
	Hash        string
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
	GasUsed     uint64
}

// Succeeded reports whether the receipt carries the success status.
func (r *Receipt) Succeeded() bool { return r.Status == 1 }

// CallMsg describes an eth_call / eth_estimateGas request.
type CallMsg struct {
	From  string
	To    string
	Data  []byte
	Value *big.Int
}

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
func NewEVMClient(url string) *EVMClient {
	return &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// URL returns the endpoint this client talks to.
func (c *EVMClient) URL() string { return c.url }

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (int64, error) {
	var hexStr string
	if err := c.call(ctx, &hexStr, "eth_chainId"); err != nil {
		return 0, err
	}
	id, ok := parseBigHex(hexStr)
	if !ok {
		return 0, fmt.Errorf("could not parse chain id: %s", hexStr)
	}
	return id.Int64(), nil
}

// BlockNumber returns the latest block number.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	var hexStr string
	if err := c.call(ctx, &hexStr, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return parseUint64Hex(hexStr)
}

// Balance returns the native balance of address in wei.
func (c *EVMClient) Balance(ctx context.Context, address string) (*big.Int, error) {
	var hexStr string
	if err := c.call(ctx, &hexStr, "eth_getBalance", address, "latest"); err != nil {
		return nil, err
	}
	wei, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse balance hex: %s", hexStr)
	}
	return wei, nil
}

// Call executes a read-only contract call and returns the raw return data.
func (c *EVMClient) Call(ctx context.Context, msg CallMsg) ([]byte, error) {
	var hexStr string
	if err := c.call(ctx, &hexStr, "eth_call", toCallArg(msg), "latest"); err != nil {
		return nil, err
	}
	if hexStr == "" || hexStr == "0x" {
		return nil, nil
	}
	out, err := hexutil.Decode(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decoding call result: %w", err)
	}
	return out, nil
}

// EstimateGas estimates the gas a transaction will use.
func (c *EVMClient) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var hexStr string
	if err := c.call(ctx, &hexStr, "eth_estimateGas", toCallArg(msg)); err != nil {
		return 0, err
	}
	return parseUint64Hex(hexStr)
}

// GasPrice returns the current gas price.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.bigQuantity(ctx, "eth_gasPrice")
}

// MaxPriorityFee returns the node's suggested EIP-1559 tip.
func (c *EVMClient) MaxPriorityFee(ctx context.Context) (*big.Int, error) {
	return c.bigQuantity(ctx, "eth_maxPriorityFeePerGas")
}

// PendingNonce returns the transaction count including queued transactions.
func (c *EVMClient) PendingNonce(ctx context.Context, address string) (uint64, error) {
	var hexStr string
	if err := c.call(ctx, &hexStr, "eth_getTransactionCount", address, "pending"); err != nil {
		return 0, err
	}
	return parseUint64Hex(hexStr)
}

// SendRawTransaction broadcasts a signed transaction and returns its hash.
func (c *EVMClient) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	var hash string
	if err := c.call(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return "", err
	}
	return hash, nil
}

// BlockByNumber fetches a block with full transaction bodies.
func (c *EVMClient) BlockByNumber(ctx context.Context, num uint64) (*Block, error) {
	var raw json.RawMessage
	if err := c.call(ctx, &raw, "eth_getBlockByNumber", fmt.Sprintf("0x%x", num), true); err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, fmt.Errorf("block %d: %w", num, ErrNotFound)
	}

	var rb rawBlock
	if err := json.Unmarshal(raw, &rb); err != nil {
		return nil, fmt.Errorf("parsing block %d: %w", num, err)
	}

	b := &Block{Number: num}
	if n, err := parseUint64Hex(rb.Number); err == nil {
		b.Number = n
	}
	if ts, err := parseUint64Hex(rb.Timestamp); err == nil {
		b.Timestamp = ts
	}
	for _, txRaw := range rb.Transactions {
		var rt rawTx
		// Hash-only entries decode as strings and are skipped.
		if err := json.Unmarshal(txRaw, &rt); err != nil {
			continue
		}
		tx := rt.toTx()
		tx.Timestamp = b.Timestamp
		b.Transactions = append(b.Transactions, tx)
	}
	return b, nil
}

// TransactionByHash returns a transaction by hash, or ErrNotFound.
func (c *EVMClient) TransactionByHash(ctx context.Context, hash string) (*Transaction, error) {
	var raw json.RawMessage
	if err := c.call(ctx, &raw, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, fmt.Errorf("transaction %s: %w", hash, ErrNotFound)
	}
	var rt rawTx
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil, err
	}
	return rt.toTx(), nil
}

// TransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) TransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	var raw json.RawMessage
	if err := c.call(ctx, &raw, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}

	var r struct {
		Status      string `json:"status"`
		BlockNumber string `json:"blockNumber"`
		GasUsed     string `json:"gasUsed"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}

	receipt := &Receipt{Hash: hash}
	if s, ok := parseBigHex(r.Status); ok {
		receipt.Status = s.Uint64()
	}
	if bn, ok := parseBigHex(r.BlockNumber); ok {
		receipt.BlockNumber = bn.Uint64()
	}
	if gu, ok := parseBigHex(r.GasUsed); ok {
		receipt.GasUsed = gu.Uint64()
	}
	return receipt, nil
}

// Ping tests the endpoint and returns latency + block number.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.BlockNumber(ctx)
	return time.Since(start), blockNum, err
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int64         `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

func (c *EVMClient) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if raw, ok := out.(*json.RawMessage); ok {
		*raw = rpcResp.Result
		return nil
	}
	if isNull(rpcResp.Result) {
		return fmt.Errorf("%s: empty result", method)
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("parsing result: %w", err)
	}
	return nil
}

func (c *EVMClient) bigQuantity(ctx context.Context, method string) (*big.Int, error) {
	var hexStr string
	if err := c.call(ctx, &hexStr, method); err != nil {
		return nil, err
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse %s result: %s", method, hexStr)
	}
	return n, nil
}

func toCallArg(msg CallMsg) map[string]string {
	arg := map[string]string{"to": msg.To}
	if msg.From != "" {
		arg["from"] = msg.From
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Encode(msg.Data)
	}
	if msg.Value != nil && msg.Value.Sign() > 0 {
		arg["value"] = hexutil.EncodeBig(msg.Value)
	}
	return arg
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

type rawTx struct {
	Hash     string `json:"hash"`
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
	Input    string `json:"input"`
	Gas      string `json:"gas"`
	Nonce    string `json:"nonce"`
	BlockNum string `json:"blockNumber"`
}

func (rt *rawTx) toTx() *Transaction {
	tx := &Transaction{
		Hash:  rt.Hash,
		From:  rt.From,
		To:    rt.To,
		Input: rt.Input,
		Value: big.NewInt(0),
	}
	if v, ok := parseBigHex(rt.Value); ok {
		tx.Value = v
	}
	if g, err := parseUint64Hex(rt.Gas); err == nil {
		tx.Gas = g
	}
	if n, err := parseUint64Hex(rt.Nonce); err == nil {
		tx.Nonce = n
	}
	if rt.BlockNum == "" {
		tx.Pending = true
	} else if bn, err := parseUint64Hex(rt.BlockNum); err == nil {
		tx.BlockNum = bn
	}
	return tx
}

type rawBlock struct {
	Number       string            `json:"number"`
	Timestamp    string            `json:"timestamp"`
	Transactions []json.RawMessage `json:"transactions"`
}
