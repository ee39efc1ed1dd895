package contract

import (
	"fmt"
	"sort"
)

// ABIEntry is one ABI entry (function, event, etc.).
type ABIEntry struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs"`
	StateMutability string     `json:"stateMutability"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// ABI is a parsed contract interface.
type ABI []ABIEntry

// Function looks up a function entry by name.
func (a ABI) Function(name string) (*ABIEntry, error) {
	for i := range a {
		if a[i].Type == "function" && a[i].Name == name {
			return &a[i], nil
		}
	}
	return nil, fmt.Errorf("function %q not found in ABI", name)
}

// Standard identifies one of the token interfaces compiled into the binary.
type Standard string

const (
	ERC20  Standard = "erc20"
	ERC721 Standard = "erc721"
)

var builtins = map[Standard]ABI{}

func register(s Standard, abi ABI) { builtins[s] = abi }

// Builtin returns the ABI for a built-in standard, or nil if unknown.
func Builtin(s Standard) ABI { return builtins[s] }

// Standards lists the built-in standards in name order.
func Standards() []Standard {
	out := make([]Standard, 0, len(builtins))
	for s := range builtins {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
