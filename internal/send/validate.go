// Package send validates a transfer request and dispatches it through a
// wallet connector.
package send

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/token"
)

// Validation and dispatch errors.
var (
	ErrMissingFields       = errors.New("please fill in all fields")
	ErrInvalidRecipient    = errors.New("invalid recipient address")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("amount exceeds balance")
	ErrWrongNetwork        = errors.New("please switch to Monad Testnet")
	ErrNoToken             = errors.New("no token selected")
)

// Validate checks a transfer against the token's last known balance and
// returns the amount in base units. It makes no network calls. Checks run in
// a fixed order: missing fields, recipient, amount, balance.
func Validate(recipient, amount string, tk token.Token) (*big.Int, error) {
	recipient, amount = strings.TrimSpace(recipient), strings.TrimSpace(amount)
	if recipient == "" || amount == "" {
		return nil, ErrMissingFields
	}
	if !common.IsHexAddress(recipient) {
		return nil, ErrInvalidRecipient
	}

	d, err := decimal.NewFromString(amount)
	if err != nil || !d.IsPositive() {
		return nil, ErrInvalidAmount
	}
	raw, err := chain.ParseUnits(amount, tk.Decimals)
	switch {
	case errors.Is(err, chain.ErrAmountTooLarge):
		return nil, ErrInsufficientBalance
	case err != nil:
		return nil, ErrInvalidAmount
	}

	if raw.Cmp(lastKnown(tk)) > 0 {
		return nil, ErrInsufficientBalance
	}
	return raw, nil
}

// lastKnown prefers the raw balance and falls back to the display string.
func lastKnown(tk token.Token) *big.Int {
	if tk.Raw != nil {
		return tk.Raw
	}
	if n, err := chain.ParseUnits(tk.Balance, tk.Decimals); err == nil {
		return n
	}
	return new(big.Int)
}
