package contract

// The subset of EIP-20 the wallet reads and writes.
//
//	name()              → 0x06fdde03
//	symbol()            → 0x95d89b41
//	decimals()          → 0x313ce567
//	balanceOf(address)  → 0x70a08231
//	transfer(a,u256)    → 0xa9059cbb
func init() {
	register(ERC20, ABI{
		{
			Name: "balanceOf", Type: "function",
			Inputs:          []ABIParam{{Name: "account", Type: "address"}},
			Outputs:         []ABIParam{{Type: "uint256"}},
			StateMutability: "view",
		},
		{
			Name: "decimals", Type: "function",
			Outputs:         []ABIParam{{Type: "uint8"}},
			StateMutability: "view",
		},
		{
			Name: "symbol", Type: "function",
			Outputs:         []ABIParam{{Type: "string"}},
			StateMutability: "view",
		},
		{
			Name: "name", Type: "function",
			Outputs:         []ABIParam{{Type: "string"}},
			StateMutability: "view",
		},
		{
			Name: "transfer", Type: "function",
			Inputs:          []ABIParam{{Name: "to", Type: "address"}, {Name: "amount", Type: "uint256"}},
			Outputs:         []ABIParam{{Type: "bool"}},
			StateMutability: "nonpayable",
		},
	})
}
