package contract

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

const wordSize = 32

// EncodeCall builds calldata: 4-byte selector followed by one word per
// argument. Only static types are supported; arguments are given as strings
// (hex address, decimal or 0x-prefixed integer, "true"/"false").
func EncodeCall(fn *ABIEntry, args ...string) ([]byte, error) {
	if len(args) != len(fn.Inputs) {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", fn.Name, len(fn.Inputs), len(args))
	}
	out := make([]byte, 0, 4+wordSize*len(args))
	out = append(out, Selector(fn)...)
	for i, param := range fn.Inputs {
		word, err := encodeParam(param.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", paramLabel(param, i), err)
		}
		out = append(out, word...)
	}
	return out, nil
}

// Selector computes the 4-byte function selector.
func Selector(fn *ABIEntry) []byte {
	types := make([]string, len(fn.Inputs))
	for i, p := range fn.Inputs {
		types[i] = p.Type
	}
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(fn.Name + "(" + strings.Join(types, ",") + ")"))
	return h.Sum(nil)[:4]
}

func paramLabel(p ABIParam, i int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("arg %d", i)
}

func encodeParam(typ, val string) ([]byte, error) {
	word := make([]byte, wordSize)
	val = strings.TrimSpace(val)

	switch {
	case typ == "address":
		if !common.IsHexAddress(val) {
			return nil, fmt.Errorf("invalid address: %q", val)
		}
		copy(word[12:], common.HexToAddress(val).Bytes())

	case strings.HasPrefix(typ, "uint"):
		n, ok := new(big.Int).SetString(val, 0)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("invalid unsigned integer: %q", val)
		}
		if n.BitLen() > 256 {
			return nil, fmt.Errorf("integer overflows 256 bits: %q", val)
		}
		n.FillBytes(word)

	case typ == "bool":
		switch val {
		case "true", "1":
			word[31] = 1
		case "false", "0", "":
		default:
			return nil, fmt.Errorf("invalid bool: %q", val)
		}

	default:
		return nil, fmt.Errorf("unsupported parameter type %s", typ)
	}
	return word, nil
}

// DecodeOutputs decodes return data into one string per output. Missing
// words decode as empty strings.
func DecodeOutputs(fn *ABIEntry, data []byte) []string {
	out := make([]string, len(fn.Outputs))
	for i, o := range fn.Outputs {
		off := i * wordSize
		if off+wordSize > len(data) {
			continue
		}
		out[i] = decodeWord(o.Type, data[off:off+wordSize], data)
	}
	return out
}

func decodeWord(typ string, word, full []byte) string {
	switch {
	case typ == "address":
		return common.BytesToAddress(word[12:]).Hex()

	case strings.HasPrefix(typ, "uint") || strings.HasPrefix(typ, "int"):
		return new(big.Int).SetBytes(word).String()

	case typ == "bool":
		if word[31] == 1 {
			return "true"
		}
		return "false"

	case typ == "string":
		if s, ok := decodeDynamicString(word, full); ok {
			return s
		}
		// Some older tokens return bytes32 for name/symbol.
		if len(full) == wordSize {
			return bytes32String(full)
		}
		return ""

	default:
		return "0x" + hex.EncodeToString(word)
	}
}

func decodeDynamicString(word, full []byte) (string, bool) {
	offset := new(big.Int).SetBytes(word)
	if !offset.IsUint64() || offset.Uint64()+wordSize > uint64(len(full)) {
		return "", false
	}
	start := offset.Uint64()
	length := new(big.Int).SetBytes(full[start : start+wordSize])
	start += wordSize
	if !length.IsUint64() || start+length.Uint64() > uint64(len(full)) {
		return "", false
	}
	return string(full[start : start+length.Uint64()]), true
}

func bytes32String(b []byte) string {
	b = bytes.TrimRight(b, "\x00")
	if !utf8.Valid(b) {
		return ""
	}
	return string(b)
}
