package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUnits renders a base-unit amount as a decimal string with the
// trailing zeros removed, e.g. 1500000000000000000 with 18 decimals → "1.5".
func FormatUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, int32(-decimals)).String()
}

// maxUnitDigits is the digit count of the largest uint256.
const maxUnitDigits = 78

// ErrAmountTooLarge is returned by ParseUnits for amounts that do not fit in
// a uint256 once scaled.
var ErrAmountTooLarge = errors.New("amount too large")

// ParseUnits converts a decimal string into base units. Precision beyond
// decimals is rejected rather than rounded.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q", amount)
	}
	if d.IsZero() {
		return new(big.Int), nil
	}
	// Bound the exponent before scaling: rescaling "1e999999999" or
	// "1e-999999999" would build a number with a billion digits.
	digits := int64(len(new(big.Int).Abs(d.Coefficient()).String()))
	exp := int64(d.Exponent()) + int64(decimals)
	if digits+exp > maxUnitDigits {
		return nil, fmt.Errorf("%w: %q", ErrAmountTooLarge, amount)
	}
	if -exp >= digits {
		return nil, fmt.Errorf("%q has more than %d decimal places", amount, decimals)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%q has more than %d decimal places", amount, decimals)
	}
	n := scaled.BigInt()
	if n.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %q", ErrAmountTooLarge, amount)
	}
	return n, nil
}

// WeiToMON formats a wei amount using the native currency's 18 decimals.
func WeiToMON(wei *big.Int) string { return FormatUnits(wei, MonadTestnet.NativeDecimals) }

func parseBigHex(s string) (*big.Int, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return big.NewInt(0), true
	}
	return new(big.Int).SetString(s, 16)
}

func parseUint64Hex(s string) (uint64, error) {
	n, ok := parseBigHex(s)
	if !ok || !n.IsUint64() {
		return 0, fmt.Errorf("could not parse quantity: %s", s)
	}
	return n.Uint64(), nil
}
