package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs EVM transactions and messages for a signing wallet.
type Signer struct {
	wallet *Wallet
	ks     KeystoreBackend
}

// NewSigner creates a signer for the given wallet.
func NewSigner(w *Wallet, ks KeystoreBackend) *Signer {
	return &Signer{wallet: w, ks: ks}
}

// Address returns the wallet's address.
func (s *Signer) Address() string { return s.wallet.Address }

// SignTx signs an EIP-1559 transaction and returns the raw signed bytes.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshaling signed tx: %w", err)
	}
	return raw, nil
}

// SignMessage signs message using EIP-191 (personal_sign) and returns a
// 65-byte R || S || V signature with V in {27, 28}.
func (s *Signer) SignMessage(message []byte) ([]byte, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(eip191Hash(message), key)
	if err != nil {
		return nil, fmt.Errorf("signing message: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// VerifyMessage recovers the signer address from an EIP-191 signature.
func VerifyMessage(message, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length: expected 65 bytes, got %d", len(sig))
	}
	rs := make([]byte, 65)
	copy(rs, sig)
	if rs[64] >= 27 {
		rs[64] -= 27
	}
	pub, err := crypto.SigToPub(eip191Hash(message), rs)
	if err != nil {
		return common.Address{}, fmt.Errorf("recovering signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func (s *Signer) privateKey() (*ecdsa.PrivateKey, error) {
	if !s.wallet.CanSign() {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot sign", s.wallet.Name)
	}
	if s.ks == nil {
		return nil, ErrNoKeystore
	}
	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return key, nil
}

func eip191Hash(message []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return crypto.Keccak256([]byte(prefix), message)
}
