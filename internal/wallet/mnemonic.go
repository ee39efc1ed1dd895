package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	bip32 "github.com/tyler-smith/go-bip32"
	bip39 "github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic is returned for phrases that fail the BIP-39 checksum.
var ErrInvalidMnemonic = errors.New("invalid BIP-39 mnemonic")

// IsMnemonic reports whether input looks like a valid recovery phrase.
func IsMnemonic(input string) bool {
	return bip39.IsMnemonicValid(normaliseMnemonic(input))
}

// DeriveFromMnemonic returns the address and hex private key at
// m/44'/60'/0'/0/0.
func DeriveFromMnemonic(mnemonic, passphrase string) (address, hexKey string, err error) {
	mnemonic = normaliseMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", "", ErrInvalidMnemonic
	}

	key, err := bip32.NewMasterKey(bip39.NewSeed(mnemonic, passphrase))
	if err != nil {
		return "", "", fmt.Errorf("master key: %w", err)
	}
	for _, idx := range []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild,
		0,
		0,
	} {
		if key, err = key.NewChildKey(idx); err != nil {
			return "", "", fmt.Errorf("deriving child %d: %w", idx, err)
		}
	}

	pk, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return crypto.PubkeyToAddress(pk.PublicKey).Hex(), hex.EncodeToString(crypto.FromECDSA(pk)), nil
}

func normaliseMnemonic(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
